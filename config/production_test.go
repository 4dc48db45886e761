package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProductionConfig(t *testing.T) {
	t.Run("sqlite defaults", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("DB_NAME", "freightdesk.db")

		cfg, err := LoadProductionConfig()
		require.NoError(t, err)

		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, QuoteUpsertOverwrite, cfg.Pricing.QuoteUpsertMode)
		assert.Equal(t, "BRL", cfg.Pricing.Currency)
		assert.Equal(t, 20000, cfg.Pricing.MaxImportRows)
		assert.Equal(t, 10*time.Second, cfg.Pricing.QuoteLockTTL)
		assert.False(t, cfg.Cache.Enabled)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("QUOTE_UPSERT_MODE", "strict")
		t.Setenv("QUOTE_LOCK_TTL", "3s")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
		t.Setenv("LOG_OUTPUT", "both")

		cfg, err := LoadProductionConfig()
		require.NoError(t, err)

		assert.Equal(t, QuoteUpsertStrict, cfg.Pricing.QuoteUpsertMode)
		assert.Equal(t, 3*time.Second, cfg.Pricing.QuoteLockTTL)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
		assert.Equal(t, "both", cfg.Logging.Output)
	})

	t.Run("unparseable values fall back to defaults", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("SERVER_PORT", "eighty")
		t.Setenv("SERVER_ENABLE_COMPRESSION", "maybe")

		cfg, err := LoadProductionConfig()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.True(t, cfg.Server.EnableCompression)
	})

	t.Run("postgres requires a password", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_PASSWORD", "")

		_, err := LoadProductionConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_PASSWORD is required")
	})
}

func TestValidateProductionConfig(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	base, err := LoadProductionConfig()
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*ProductionConfig)
		want   string
	}{
		{"unknown driver", func(c *ProductionConfig) { c.Database.Driver = "mysql" }, "DB_DRIVER must be one of"},
		{"unknown upsert mode", func(c *ProductionConfig) { c.Pricing.QuoteUpsertMode = "merge" }, "QUOTE_UPSERT_MODE"},
		{"currency code", func(c *ProductionConfig) { c.Pricing.Currency = "REAL" }, "PRICING_CURRENCY"},
		{"import rows", func(c *ProductionConfig) { c.Pricing.MaxImportRows = 0 }, "PRICING_MAX_IMPORT_ROWS"},
		{"log output", func(c *ProductionConfig) { c.Logging.Output = "syslog" }, "LOG_OUTPUT"},
		{"file path", func(c *ProductionConfig) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, "LOG_FILE_PATH"},
		{"redis url", func(c *ProductionConfig) {
			c.Cache.Enabled = true
			c.Cache.RedisURL = ""
		}, "CACHE_REDIS_URL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			tc.mutate(&cfg)
			err := ValidateProductionConfig(&cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	require.NoError(t, ValidateProductionConfig(base))
}
