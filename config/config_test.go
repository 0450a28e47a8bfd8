package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "API_PREFIX", "APP_ENV", "NODE_ENV", "LOG_LEVEL", "RATE_LIMIT_WINDOW_MS",
		"RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_STRICT_ROUTES", "CORS_ORIGIN", "RATE_LIMIT_MAX",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Server.Port, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.Server.APIPrefix)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 900000, cfg.RateLimit.WindowMs)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, []string{"*"}, cfg.Security.CORSOrigins)
	assert.Empty(t, cfg.RateLimit.StrictRoutes)
}

func TestLoad_MetricsPath(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server.MetricsPath, cfg.Server.MetricsPath)

	t.Setenv("METRICS_PATH", "")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server.MetricsPath)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_STRICT_ROUTES", "POST /api/test-entities")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSOrigins)
	assert.Equal(t, []string{"POST /api/test-entities"}, cfg.RateLimit.StrictRoutes)
}

func TestLoad_InvalidIntegerFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
}

func TestValidate(t *testing.T) {
	t.Run("rejects empty port", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive window", func(t *testing.T) {
		cfg := Default()
		cfg.RateLimit.WindowMs = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive max requests", func(t *testing.T) {
		cfg := Default()
		cfg.RateLimit.MaxRequests = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects relative api prefix", func(t *testing.T) {
		cfg := Default()
		cfg.Server.APIPrefix = "api"
		assert.Error(t, cfg.Validate())
	})

	t.Run("accepts defaults", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
	})
}
