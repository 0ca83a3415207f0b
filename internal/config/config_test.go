package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPListenAddr)
	assert.Equal(t, "indekost", cfg.MetricsNamespace)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.WahaTimeout)
	assert.Equal(t, "Asia/Jakarta", cfg.SchedulerTimezone)
	assert.Equal(t, "0 9 1 * *", cfg.BillingCronSpec)
	assert.Equal(t, "0 8 * * *", cfg.MeterCronSpec)
	assert.True(t, cfg.S3UsePathStyle)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("S3_USE_PATH_STYLE", "false")
	t.Setenv("BILLING_CRON", "0 10 2 * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.S3UsePathStyle)
	assert.Equal(t, "0 10 2 * *", cfg.BillingCronSpec)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.DatabaseURL = "postgres://localhost/kost"
	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}
