package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"catalog-migrator/internal/clients"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config carries the settings needed to reach the Shopify Admin API
type Config struct {
	Store             string // store name, without .myshopify.com
	AccessToken       string
	APIVersion        string
	BaseURL           string // overrides the store URL when set
	RequestsPerSecond float64
	Timeout           time.Duration
	Retry             *clients.RetryConfig
}

// Client is the destination-side gateway. All catalog writes go through it.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	rateLimiter *rate.Limiter
	retrier     *clients.Retrier
	logger      *zap.SugaredLogger
}

// NewClient creates a Shopify Admin API client
func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-01"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", cfg.Store, apiVersion)
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2 // Shopify Admin REST allows 2 requests per second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		retrier:     clients.NewRetrier(cfg.Retry),
		logger:      logger,
	}
}

// CreateProduct creates a product with its options and gallery images in one
// call. The returned product carries the destination identities, including
// the created image ids in payload order.
func (c *Client) CreateProduct(ctx context.Context, payload *ProductPayload) (*Product, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/products.json", nil, map[string]any{"product": payload})
	if err != nil {
		return nil, err
	}

	var response struct {
		Product Product `json:"product"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse create product response: %w", err)
	}
	return &response.Product, nil
}

// CreateImage uploads a single image to an existing product
func (c *Client) CreateImage(ctx context.Context, productID int64, src, alt string) (*Image, error) {
	payload := map[string]any{"image": ImagePayload{Src: src, Alt: alt}}
	body, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/products/%d/images.json", productID), nil, payload)
	if err != nil {
		return nil, err
	}

	var response struct {
		Image Image `json:"image"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse create image response: %w", err)
	}
	return &response.Image, nil
}

// UpdateVariants attaches the full variant list to a product in one batched
// product update
func (c *Client) UpdateVariants(ctx context.Context, productID int64, variants []VariantPayload) error {
	payload := map[string]any{"product": map[string]any{"id": productID, "variants": variants}}
	_, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/products/%d.json", productID), nil, payload)
	return err
}

// CreateMetafield attaches one metafield to a product
func (c *Client) CreateMetafield(ctx context.Context, productID int64, metafield MetafieldPayload) error {
	payload := map[string]any{"metafield": metafield}
	_, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/products/%d/metafields.json", productID), nil, payload)
	return err
}

// FindCustomCollection looks up a custom collection by exact title.
// Returns (nil, nil) when no collection matches.
func (c *Client) FindCustomCollection(ctx context.Context, title string) (*CustomCollection, error) {
	params := url.Values{}
	params.Set("title", title)
	body, err := c.doRequest(ctx, http.MethodGet, "/custom_collections.json", params, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		CustomCollections []CustomCollection `json:"custom_collections"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse custom collections response: %w", err)
	}

	// The title filter is a prefix match on some API versions; insist on exact
	for i := range response.CustomCollections {
		if response.CustomCollections[i].Title == title {
			return &response.CustomCollections[i], nil
		}
	}
	return nil, nil
}

// CreateCustomCollection creates a published custom collection
func (c *Client) CreateCustomCollection(ctx context.Context, title string) (*CustomCollection, error) {
	payload := map[string]any{"custom_collection": map[string]any{"title": title, "published": true}}
	body, err := c.doRequest(ctx, http.MethodPost, "/custom_collections.json", nil, payload)
	if err != nil {
		return nil, err
	}

	var response struct {
		CustomCollection CustomCollection `json:"custom_collection"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parse create collection response: %w", err)
	}
	return &response.CustomCollection, nil
}

// CreateCollect links a product to a collection
func (c *Client) CreateCollect(ctx context.Context, productID, collectionID int64) error {
	payload := map[string]any{"collect": map[string]any{"product_id": productID, "collection_id": collectionID}}
	_, err := c.doRequest(ctx, http.MethodPost, "/collects.json", nil, payload)
	return err
}

// doRequest performs an authenticated request with rate limiting and
// transient-failure retries
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
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

		var reqBody io.Reader
		if jsonBody != nil {
			reqBody = bytes.NewReader(jsonBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if c.retrier.ShouldRetry(0, err) {
				c.logger.Warnw("shopify request failed, retrying", "path", path, "attempt", attempt+1, "error", err)
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
				c.logger.Warnw("shopify request rejected, retrying", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
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
	return fmt.Sprintf("Shopify API error (status %d): %s", e.status, e.body)
}

func retryAfterOf(err error) time.Duration {
	if apiErr, ok := err.(*apiError); ok {
		return apiErr.retryAfter
	}
	return 0
}

// Shopify data structures
type ProductPayload struct {
	Title       string         `json:"title"`
	BodyHTML    string         `json:"body_html,omitempty"`
	Vendor      string         `json:"vendor,omitempty"`
	ProductType string         `json:"product_type,omitempty"`
	Status      string         `json:"status"`
	Options     []Option       `json:"options,omitempty"`
	Images      []ImagePayload `json:"images,omitempty"`
}

type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type ImagePayload struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Product struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Status string  `json:"status"`
	Images []Image `json:"images"`
}

type VariantPayload struct {
	SKU                 string             `json:"sku,omitempty"`
	Price               string             `json:"price"`
	CompareAtPrice      *string            `json:"compare_at_price,omitempty"`
	Cost                *string            `json:"cost,omitempty"`
	InventoryManagement string             `json:"inventory_management"`
	InventoryQuantity   int                `json:"inventory_quantity"`
	Weight              float64            `json:"weight"`
	WeightUnit          string             `json:"weight_unit"`
	Barcode             *string            `json:"barcode,omitempty"`
	RequiresShipping    bool               `json:"requires_shipping"`
	Option1             *string            `json:"option1,omitempty"`
	Option2             *string            `json:"option2,omitempty"`
	Option3             *string            `json:"option3,omitempty"`
	ImageID             *int64             `json:"image_id,omitempty"`
	Metafields          []MetafieldPayload `json:"metafields,omitempty"`
}

type MetafieldPayload struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type CustomCollection struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
