package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 15*time.Minute, cfg.SignedURLTTL)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JWT_ACCESS_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://cdn.example", cfg.Storage.PublicBaseURL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SIGNED_URL_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIGNED_URL_TTL")
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppEnv:       "dev",
			HTTPAddr:     ":8080",
			DatabaseURL:  "file::memory:",
			JWTSecret:    defaultJWTSecret,
			JWTAccessTTL: time.Hour,
			SignedURLTTL: time.Minute,
			Storage:      StorageConfig{Backend: StorageLocal, Dir: "./storage"},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid dev", func(*Config) {}, ""},
		{"prod with default secret", func(c *Config) { c.AppEnv = "production" }, "JWT_SECRET"},
		{"prod with real secret", func(c *Config) { c.AppEnv = "prod"; c.JWTSecret = "s3cr3t" }, ""},
		{"gridfs without mongo", func(c *Config) { c.Storage.Backend = StorageGridFS }, "MONGO_URI"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, "STORAGE_BACKEND"},
		{"zero ttl", func(c *Config) { c.JWTAccessTTL = 0 }, "JWT_ACCESS_TTL"},
		{"rabbit without exchange", func(c *Config) { c.RabbitMQURL = "amqp://localhost"; c.RabbitMQExchange = "" }, "RABBITMQ_EXCHANGE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := validateConfig(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
