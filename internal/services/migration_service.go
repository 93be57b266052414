package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-migrator/internal/clients/bigcommerce"
	"catalog-migrator/internal/clients/shopify"
	"catalog-migrator/internal/config"
	"catalog-migrator/internal/mapper"
	"catalog-migrator/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MigrationService drives one full catalog pass: fetch everything from the
// source, then migrate products strictly one at a time with a fixed pacing
// delay between items. A failed item never aborts the run.
type MigrationService struct {
	source             *bigcommerce.Client
	destination        *shopify.Client
	collections        *CollectionResolver
	pacingDelay        time.Duration
	metafieldBatchSize int
	logger             *zap.SugaredLogger
}

// NewMigrationService creates the orchestrator and its per-run collection
// resolver
func NewMigrationService(source *bigcommerce.Client, destination *shopify.Client, cfg *config.Config, logger *zap.SugaredLogger) *MigrationService {
	batchSize := cfg.MetafieldBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &MigrationService{
		source:             source,
		destination:        destination,
		collections:        NewCollectionResolver(destination, logger),
		pacingDelay:        cfg.PacingDelay,
		metafieldBatchSize: batchSize,
		logger:             logger,
	}
}

// Run migrates the whole catalog. Per-item failures are recorded on the
// summary and logged; only a cancelled context stops the pass early.
func (s *MigrationService) Run(ctx context.Context) (*models.RunSummary, error) {
	runID := uuid.New()
	log := s.logger.With("runId", runID.String())
	summary := &models.RunSummary{RunID: runID, StartedAt: time.Now()}

	products, err := s.source.FetchAllProducts(ctx)
	if err != nil {
		// Keep going with whatever was fetched; the gap is loud in the logs.
		log.Errorw("catalog fetch incomplete, migrating partial catalog", "fetched", len(products), "error", err)
	}

	progress := &summary.Progress
	progress.TotalItems = len(products)
	log.Infow("starting migration", "products", len(products))

	for i := range products {
		report := s.migrateProduct(ctx, &products[i])
		summary.Items = append(summary.Items, *report)

		progress.ProcessedItems++
		if report.Failed() {
			progress.FailedItems++
			log.Errorw("product migration failed", "sourceId", report.SourceID, "name", report.Name, "reason", report.Reason)
		} else {
			progress.SuccessfulItems++
		}
		progress.Percentage = float64(progress.ProcessedItems) / float64(progress.TotalItems) * 100
		log.Infow("progress", "processed", progress.ProcessedItems, "total", progress.TotalItems,
			"succeeded", progress.SuccessfulItems, "failed", progress.FailedItems)

		if i < len(products)-1 {
			if err := s.pace(ctx); err != nil {
				summary.CompletedAt = time.Now()
				return summary, err
			}
		}
	}

	summary.CompletedAt = time.Now()
	log.Infow("migration complete", "succeeded", progress.SuccessfulItems, "failed", progress.FailedItems,
		"duration", summary.CompletedAt.Sub(summary.StartedAt))
	return summary, nil
}

// migrateProduct walks one product through the pipeline. A panic anywhere in
// the item is recovered here and marks the item failed without touching the
// rest of the run.
func (s *MigrationService) migrateProduct(ctx context.Context, src *bigcommerce.Product) (report *models.ItemReport) {
	report = &models.ItemReport{SourceID: src.ID, Name: src.Name, State: models.StateMapping}
	defer func() {
		if r := recover(); r != nil {
			report.State = models.StateFailed
			report.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	log := s.logger.With("sourceId", src.ID, "product", src.Name)

	options := mapper.Options(src.Options)
	images := mapper.Images(src.Images)

	vendor := ""
	if src.BrandID > 0 {
		brand, err := s.source.GetBrand(ctx, src.BrandID)
		if err != nil {
			log.Warnw("brand lookup failed, leaving vendor empty", "brandId", src.BrandID, "error", err)
		} else {
			vendor = brand.Name
		}
	}

	created, err := s.destination.CreateProduct(ctx, &shopify.ProductPayload{
		Title:       src.Name,
		BodyHTML:    src.Description,
		Vendor:      vendor,
		ProductType: src.Type,
		Status:      mapper.ProductStatus(src.IsVisible),
		Options:     options,
		Images:      images,
	})
	if err != nil {
		return failed(report, fmt.Errorf("create product: %w", err))
	}
	if created.ID == 0 {
		return failed(report, errors.New("create product returned no id"))
	}
	report.DestinationID = created.ID
	report.State = models.StateProductCreated
	log = log.With("productId", created.ID)
	log.Infow("product created", "status", mapper.ProductStatus(src.IsVisible), "images", len(images))

	// Destination image ids come back in payload order; the table is scoped
	// to this item and thrown away with it.
	imageIDsByURL := make(map[string]int64, len(images))
	for i, img := range images {
		if i < len(created.Images) {
			imageIDsByURL[img.Src] = created.Images[i].ID
		}
	}

	if len(src.Variants) > 0 {
		variants := make([]shopify.VariantPayload, 0, len(src.Variants))
		for _, v := range src.Variants {
			payload := mapper.Variant(v, src.Options)
			payload.ImageID = s.variantImageID(ctx, log, created.ID, v, imageIDsByURL)
			variants = append(variants, payload)
		}
		if err := s.destination.UpdateVariants(ctx, created.ID, variants); err != nil {
			log.Errorw("variant attach failed", "variants", len(variants), "error", err)
		} else {
			report.State = models.StateVariantsAttached
			log.Infow("variants attached", "variants", len(variants))
		}
	}

	for _, categoryID := range src.Categories {
		category, err := s.source.GetCategory(ctx, categoryID)
		if err != nil {
			log.Warnw("category lookup failed, skipping", "categoryId", categoryID, "error", err)
			continue
		}
		if category.Name == "" {
			log.Warnw("category has no name, skipping", "categoryId", categoryID)
			continue
		}
		collectionID, err := s.collections.GetOrCreate(ctx, category.Name)
		if err != nil {
			log.Warnw("collection resolution failed, skipping", "title", category.Name, "error", err)
			continue
		}
		if err := s.destination.CreateCollect(ctx, created.ID, collectionID); err != nil {
			log.Warnw("collection link failed, skipping", "collectionId", collectionID, "error", err)
		}
	}
	report.State = models.StateCollectionsLinked

	if len(src.CustomFields) > 0 {
		metafields := mapper.ProductMetafields(src.CustomFields)
		for start := 0; start < len(metafields); start += s.metafieldBatchSize {
			end := min(start+s.metafieldBatchSize, len(metafields))
			for _, mf := range metafields[start:end] {
				if err := s.destination.CreateMetafield(ctx, created.ID, mf); err != nil {
					log.Warnw("metafield write failed, skipping", "key", mf.Key, "error", err)
				}
			}
			log.Infow("metafields written", "from", start+1, "to", end, "total", len(metafields))
		}
		report.State = models.StateMetafieldsWritten
	}

	report.State = models.StateDone
	return report
}

// variantImageID resolves the destination image id for a variant's image URL,
// uploading the image individually when the product gallery did not already
// cover it. A failed upload leaves the variant without an image.
func (s *MigrationService) variantImageID(ctx context.Context, log *zap.SugaredLogger, productID int64, v bigcommerce.Variant, imageIDsByURL map[string]int64) *int64 {
	if v.ImageURL == "" {
		return nil
	}
	if id, ok := imageIDsByURL[v.ImageURL]; ok {
		return &id
	}
	uploaded, err := s.destination.CreateImage(ctx, productID, v.ImageURL, "")
	if err != nil {
		log.Warnw("variant image upload failed, attaching variant without image", "sku", v.SKU, "error", err)
		return nil
	}
	imageIDsByURL[v.ImageURL] = uploaded.ID
	return &uploaded.ID
}

// pace waits the fixed inter-item delay
func (s *MigrationService) pace(ctx context.Context) error {
	if s.pacingDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(s.pacingDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func failed(report *models.ItemReport, err error) *models.ItemReport {
	report.State = models.StateFailed
	report.Reason = err.Error()
	return report
}
