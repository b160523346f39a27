package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Checkout.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Checkout.TxTimeout)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
	assert.True(t, cfg.IsDevelopment())
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CHECKOUT_MAX_ATTEMPTS", "5")
	t.Setenv("CHECKOUT_TX_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("APP_ENV", "production")

	cfg := FromEnv()

	assert.Equal(t, 5, cfg.Checkout.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Checkout.TxTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
	assert.Contains(t, cfg.GetDatabaseDSN(), "host=db")
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=shop")
	assert.True(t, cfg.IsProduction())
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CHECKOUT_MAX_ATTEMPTS", "many")
	t.Setenv("CHECKOUT_TX_TIMEOUT", "soon")

	cfg := FromEnv()

	assert.Equal(t, 3, cfg.Checkout.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Checkout.TxTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "JWT_SECRET"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }, "REDIS_HOST"},
		{"zero attempts", func(c *Config) { c.Checkout.MaxAttempts = 0 }, "CHECKOUT_MAX_ATTEMPTS"},
		{"zero tx timeout", func(c *Config) { c.Checkout.TxTimeout = 0 }, "CHECKOUT_TX_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
