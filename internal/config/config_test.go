package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("CONFIRMATION_CODE_TTL", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("ENVIRONMENT", "")

	cfg := Load()
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 72*time.Hour, cfg.ConfirmationCodeTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PAGE_SIZE", "lots")
	t.Setenv("JWT_EXPIRY", "forever")

	cfg := Load()
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}
