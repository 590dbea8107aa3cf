package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, time.Duration(0), cfg.DisputeWindow)
	assert.Equal(t, 3, cfg.AttentionThresholdDays)
	assert.NotEmpty(t, cfg.AllowedOrigins)

	s, err := cfg.Settlement()
	require.NoError(t, err)
	assert.Equal(t, "0.1", s.CommissionRate.String())
	assert.NotEqual(t, s.Escrow, s.Revenue)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("COMMISSION_RATE", "0.15")
	t.Setenv("DISPUTE_WINDOW", "72h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, cfg.DisputeWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)

	s, err := cfg.Settlement()
	require.NoError(t, err)
	assert.Equal(t, "0.15", s.CommissionRate.String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"production without secret": {"APP_ENV": "production", "CORS_ALLOWED_ORIGINS": "https://a.example"},
		"production without cors":   {"APP_ENV": "production", "JWT_SECRET": "0123456789abcdef0123456789abcdef"},
		"commission out of range":   {"COMMISSION_RATE": "1"},
		"bad commission":            {"COMMISSION_RATE": "ten"},
		"unknown driver":            {"STORAGE_DRIVER": "mongo"},
		"empty pool":                {"DB_MAX_OPEN_CONNS": "0"},
		"same accounts": {
			"ESCROW_ACCOUNT_ID":  "00000000-0000-0000-0000-000000000001",
			"REVENUE_ACCOUNT_ID": "00000000-0000-0000-0000-000000000001",
		},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv("STORAGE_DRIVER", "memory")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
