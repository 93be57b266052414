package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BIGCOMMERCE_STORE_HASH", "abc123")
	t.Setenv("BIGCOMMERCE_ACCESS_TOKEN", "bc-token")
	t.Setenv("SHOPIFY_STORE", "demo-store")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat-token")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.PacingDelay)
	assert.Equal(t, 10, cfg.MetafieldBatchSize)
	assert.Equal(t, "2024-01", cfg.ShopifyAPIVersion)
	assert.Equal(t, 5.0, cfg.SourceRateLimit)
	assert.Equal(t, 2.0, cfg.DestinationRateLimit)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MIGRATION_PAGE_SIZE", "250")
	t.Setenv("MIGRATION_PACING_DELAY", "2s")
	t.Setenv("DESTINATION_RATE_LIMIT", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, 2*time.Second, cfg.PacingDelay)
	assert.Equal(t, 4.0, cfg.DestinationRateLimit)
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_ACCESS_TOKEN")
}

func TestLoadAllowsSecretManagerTokenSource(t *testing.T) {
	setRequired(t)
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")
	t.Setenv("SHOPIFY_TOKEN_SECRET", "shopify-admin-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "shopify-admin-token", cfg.ShopifyTokenSecretID)
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	setRequired(t)
	t.Setenv("MIGRATION_PAGE_SIZE", "-1")

	_, err := Load()
	require.Error(t, err)
}
