package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebridge/codebridge/pkg/observability"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CODEBRIDGE_JWT_SECRET", "test-secret")
	t.Setenv("CODEBRIDGE_POSTGRES_URL", "postgres://localhost:5432/codebridge?sslmode=disable")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "codebridge", cfg.Auth.TokenIssuer)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenDuration)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.StandardLimit)
	assert.Equal(t, 10, cfg.RateLimit.StrictLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	assert.True(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, 15*time.Minute, cfg.Storage.CacheTTL)

	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CODEBRIDGE_PORT", "3000")
	t.Setenv("CODEBRIDGE_TOKEN_DURATION", "1h")
	t.Setenv("CODEBRIDGE_RATE_LIMIT_STANDARD", "120")
	t.Setenv("CODEBRIDGE_RATE_LIMIT_STRICT", "20")
	t.Setenv("CODEBRIDGE_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("CODEBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("CODEBRIDGE_CACHE_ENABLED", "false")
	t.Setenv("CODEBRIDGE_REDIS_URL", "redis://localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, 120, cfg.RateLimit.StandardLimit)
	assert.Equal(t, 20, cfg.RateLimit.StrictLimit)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Storage.CacheEnabled)
	assert.Equal(t, "redis://localhost:6379", cfg.Storage.RedisURL)
}

func TestLoadConfigMissingSecret(t *testing.T) {
	t.Setenv("CODEBRIDGE_JWT_SECRET", "")
	t.Setenv("CODEBRIDGE_POSTGRES_URL", "postgres://localhost:5432/codebridge")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestLoadConfigMissingPostgresURL(t *testing.T) {
	t.Setenv("CODEBRIDGE_JWT_SECRET", "test-secret")
	t.Setenv("CODEBRIDGE_POSTGRES_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres URL")
}

func TestValidateRateLimits(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CODEBRIDGE_RATE_LIMIT_STANDARD", "10")
	t.Setenv("CODEBRIDGE_RATE_LIMIT_STRICT", "60")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict rate limit")
}

func TestValidatePortsMustDiffer(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CODEBRIDGE_PORT", "8080")
	t.Setenv("CODEBRIDGE_HEALTH_PORT", "8080")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]observability.LogLevel{
		"debug":   observability.DebugLevel,
		"info":    observability.InfoLevel,
		"warn":    observability.WarnLevel,
		"warning": observability.WarnLevel,
		"error":   observability.ErrorLevel,
		"bogus":   observability.InfoLevel,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, parseLogLevel(input), input)
	}
}
