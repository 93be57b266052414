package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the catalog migrator
type Config struct {
	Environment string

	// Source (BigCommerce)
	BigCommerceStoreHash string
	BigCommerceToken     string
	BigCommerceBaseURL   string // optional override, mainly for tests

	// Destination (Shopify)
	ShopifyStore      string
	ShopifyToken      string
	ShopifyAPIVersion string
	ShopifyBaseURL    string // optional override, mainly for tests

	// GCP Secret Manager (optional token source)
	GCPProjectID             string
	BigCommerceTokenSecretID string
	ShopifyTokenSecretID     string

	// Migration Settings
	PageSize           int
	PacingDelay        time.Duration
	MetafieldBatchSize int
	HTTPTimeout        time.Duration

	// Rate Limiting (requests per second against each API)
	SourceRateLimit      float64
	DestinationRateLimit float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		BigCommerceStoreHash: getEnv("BIGCOMMERCE_STORE_HASH", ""),
		BigCommerceToken:     getEnv("BIGCOMMERCE_ACCESS_TOKEN", ""),
		BigCommerceBaseURL:   getEnv("BIGCOMMERCE_BASE_URL", ""),

		ShopifyStore:      getEnv("SHOPIFY_STORE", ""),
		ShopifyToken:      getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2024-01"),
		ShopifyBaseURL:    getEnv("SHOPIFY_BASE_URL", ""),

		GCPProjectID:             getEnv("GCP_PROJECT_ID", ""),
		BigCommerceTokenSecretID: getEnv("BIGCOMMERCE_TOKEN_SECRET", ""),
		ShopifyTokenSecretID:     getEnv("SHOPIFY_TOKEN_SECRET", ""),

		PageSize:           getEnvAsInt("MIGRATION_PAGE_SIZE", 50),
		PacingDelay:        getEnvAsDuration("MIGRATION_PACING_DELAY", 500*time.Millisecond),
		MetafieldBatchSize: getEnvAsInt("MIGRATION_METAFIELD_BATCH_SIZE", 10),
		HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		SourceRateLimit:      getEnvAsFloat("SOURCE_RATE_LIMIT", 5),
		DestinationRateLimit: getEnvAsFloat("DESTINATION_RATE_LIMIT", 2),
	}

	if config.BigCommerceStoreHash == "" && config.BigCommerceBaseURL == "" {
		return nil, fmt.Errorf("BIGCOMMERCE_STORE_HASH is required")
	}
	if config.ShopifyStore == "" && config.ShopifyBaseURL == "" {
		return nil, fmt.Errorf("SHOPIFY_STORE is required")
	}
	if config.BigCommerceToken == "" && config.BigCommerceTokenSecretID == "" {
		return nil, fmt.Errorf("BIGCOMMERCE_ACCESS_TOKEN or BIGCOMMERCE_TOKEN_SECRET is required")
	}
	if config.ShopifyToken == "" && config.ShopifyTokenSecretID == "" {
		return nil, fmt.Errorf("SHOPIFY_ACCESS_TOKEN or SHOPIFY_TOKEN_SECRET is required")
	}
	if config.PageSize <= 0 {
		return nil, fmt.Errorf("MIGRATION_PAGE_SIZE must be positive")
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
