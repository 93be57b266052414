package bigcommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"catalog-migrator/internal/clients"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const productInclude = "variants,images,options,custom_fields"

// Config carries the settings needed to reach the BigCommerce v3 API
type Config struct {
	StoreHash         string
	AccessToken       string
	BaseURL           string // overrides the store-hash URL when set
	PageSize          int
	RequestsPerSecond float64
	Timeout           time.Duration
	Retry             *clients.RetryConfig
}

// Client is the source-side gateway. All catalog reads go through it.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	pageSize    int
	rateLimiter *rate.Limiter
	retrier     *clients.Retrier
	logger      *zap.SugaredLogger
}

// NewClient creates a BigCommerce Catalog API client
func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://api.bigcommerce.com/stores/%s/v3", cfg.StoreHash)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		pageSize:    pageSize,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		retrier:     clients.NewRetrier(cfg.Retry),
		logger:      logger,
	}
}

// FetchAllProducts pages through the catalog listing until a page comes back
// empty. Pages are requested with variants, images, options and custom fields
// expanded so the migration needs no per-product follow-up reads.
//
// A page that still fails after retries does not end pagination silently:
// everything accumulated so far is returned together with the error, and the
// caller decides whether a partial catalog is acceptable.
func (c *Client) FetchAllProducts(ctx context.Context) ([]Product, error) {
	var all []Product

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("page", strconv.Itoa(page))
		params.Set("include", productInclude)

		body, err := c.doRequest(ctx, http.MethodGet, "/catalog/products", params)
		if err != nil {
			return all, fmt.Errorf("fetch products page %d: %w", page, err)
		}

		var response struct {
			Data []Product `json:"data"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return all, fmt.Errorf("parse products page %d: %w", page, err)
		}

		if len(response.Data) == 0 {
			break
		}
		all = append(all, response.Data...)
		c.logger.Infow("fetched catalog page", "page", page, "items", len(response.Data), "total", len(all))
	}

	return all, nil
}

// GetBrand fetches a brand by id, used to resolve the vendor name
func (c *Client) GetBrand(ctx context.Context, id int64) (*Brand, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/catalog/brands/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data Brand `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse brand %d: %w", id, err)
	}
	return &response.Data, nil
}

// GetCategory fetches a category by id, used to resolve collection titles
func (c *Client) GetCategory(ctx context.Context, id int64) (*Category, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/catalog/categories/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data Category `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse category %d: %w", id, err)
	}
	return &response.Data, nil
}

// doRequest performs an authenticated request with rate limiting and
// transient-failure retries
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.retrier.MaxAttempts(); attempt++ {
		if attempt > 0 {
			if err := c.retrier.Wait(ctx, attempt-1, retryAfterOf(lastErr)); err != nil {
				return nil, err
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Auth-Token", c.accessToken)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if c.retrier.ShouldRetry(0, err) {
				c.logger.Warnw("bigcommerce request failed, retrying", "path", path, "attempt", attempt+1, "error", err)
				continue
			}
			return nil, err
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 400 {
			lastErr = &apiError{status: resp.StatusCode, body: string(respBody), retryAfter: clients.ParseRetryAfter(resp)}
			if c.retrier.ShouldRetry(resp.StatusCode, nil) {
				c.logger.Warnw("bigcommerce request rejected, retrying", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
				continue
			}
			return nil, lastErr
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

type apiError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("BigCommerce API error (status %d): %s", e.status, e.body)
}

func retryAfterOf(err error) time.Duration {
	if apiErr, ok := err.(*apiError); ok {
		return apiErr.retryAfter
	}
	return 0
}

// BigCommerce catalog data structures
type Product struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	IsVisible    bool          `json:"is_visible"`
	Type         string        `json:"type"`
	BrandID      int64         `json:"brand_id"`
	Options      []Option      `json:"options"`
	Variants     []Variant     `json:"variants"`
	Images       []Image       `json:"images"`
	CustomFields []CustomField `json:"custom_fields"`
	Categories   []int64       `json:"categories"`
}

type Option struct {
	ID           int64         `json:"id"`
	DisplayName  string        `json:"display_name"`
	OptionValues []OptionValue `json:"option_values"`
}

type OptionValue struct {
	Label string `json:"label"`
}

type Variant struct {
	ID                    int64                `json:"id"`
	SKU                   string               `json:"sku"`
	SalePrice             *float64             `json:"sale_price"`
	RetailPrice           *float64             `json:"retail_price"`
	CostPrice             *float64             `json:"cost_price"`
	InventoryLevel        int                  `json:"inventory_level"`
	InventoryWarningLevel int                  `json:"inventory_warning_level"`
	Weight                *float64             `json:"weight"`
	Width                 *float64             `json:"width"`
	Height                *float64             `json:"height"`
	Depth                 *float64             `json:"depth"`
	UPC                   string               `json:"upc"`
	EAN                   string               `json:"ean"`
	BinPickingNumber      string               `json:"bin_picking_number"`
	MPN                   string               `json:"mpn"`
	CountryOfOrigin       string               `json:"country_of_origin"`
	HSCode                string               `json:"hs_code"`
	ImageURL              string               `json:"image_url"`
	OptionValues          []VariantOptionValue `json:"option_values"`
}

type VariantOptionValue struct {
	OptionID int64  `json:"option_id"`
	Label    string `json:"label"`
}

type Image struct {
	ID          int64  `json:"id"`
	URLZoom     string `json:"url_zoom"`
	Description string `json:"description"`
	Alt         string `json:"alt"`
	IsThumbnail bool   `json:"is_thumbnail"`
}

type CustomField struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
