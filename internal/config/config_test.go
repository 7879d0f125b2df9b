package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/autolot")
	t.Setenv("AUTH0_DOMAIN", "autolot.us.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.autolot.app")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.CalculatorRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.S3.Bucket)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CALCULATOR_RATE_LIMIT", "120")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.CalculatorRateLimit)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"missing auth0 domain", map[string]string{"AUTH0_DOMAIN": ""}},
		{"bad rate limit", map[string]string{"CALCULATOR_RATE_LIMIT": "lots"}},
		{"zero rate limit", map[string]string{"CALCULATOR_RATE_LIMIT": "0"}},
		{"bad ttl", map[string]string{"REDIS_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
