package main

import (
	"context"
	"log"

	"catalog-migrator/internal/clients/bigcommerce"
	"catalog-migrator/internal/clients/shopify"
	"catalog-migrator/internal/config"
	"catalog-migrator/internal/secrets"
	"catalog-migrator/internal/services"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may be set by other means
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	if err := resolveTokens(ctx, cfg); err != nil {
		sugar.Fatalw("failed to resolve API tokens", "error", err)
	}

	source := bigcommerce.NewClient(bigcommerce.Config{
		StoreHash:         cfg.BigCommerceStoreHash,
		AccessToken:       cfg.BigCommerceToken,
		BaseURL:           cfg.BigCommerceBaseURL,
		PageSize:          cfg.PageSize,
		RequestsPerSecond: cfg.SourceRateLimit,
		Timeout:           cfg.HTTPTimeout,
	}, sugar)

	destination := shopify.NewClient(shopify.Config{
		Store:             cfg.ShopifyStore,
		AccessToken:       cfg.ShopifyToken,
		APIVersion:        cfg.ShopifyAPIVersion,
		BaseURL:           cfg.ShopifyBaseURL,
		RequestsPerSecond: cfg.DestinationRateLimit,
		Timeout:           cfg.HTTPTimeout,
	}, sugar)

	migration := services.NewMigrationService(source, destination, cfg, sugar)

	summary, err := migration.Run(ctx)
	if err != nil {
		sugar.Fatalw("migration aborted", "error", err)
	}

	// Individual item failures are reported above; the run itself succeeded.
	sugar.Infow("run finished",
		"runId", summary.RunID.String(),
		"succeeded", summary.Progress.SuccessfulItems,
		"failed", summary.Progress.FailedItems,
	)
}

// resolveTokens swaps secret references for token values when Secret Manager
// is configured; plain env tokens pass through untouched
func resolveTokens(ctx context.Context, cfg *config.Config) error {
	if cfg.GCPProjectID == "" || (cfg.BigCommerceTokenSecretID == "" && cfg.ShopifyTokenSecretID == "") {
		return nil
	}

	resolver, err := secrets.NewResolver(ctx, cfg.GCPProjectID)
	if err != nil {
		return err
	}
	defer resolver.Close()

	if cfg.BigCommerceTokenSecretID != "" {
		if cfg.BigCommerceToken, err = resolver.AccessToken(ctx, cfg.BigCommerceTokenSecretID); err != nil {
			return err
		}
	}
	if cfg.ShopifyTokenSecretID != "" {
		if cfg.ShopifyToken, err = resolver.AccessToken(ctx, cfg.ShopifyTokenSecretID); err != nil {
			return err
		}
	}
	return nil
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
