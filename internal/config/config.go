package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultHTTPAddr         = ":8080"
	defaultDatabaseURL      = "file:freightmarket.db?_pragma=busy_timeout(5000)"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultJWTAccessTTL     = "24h"
	defaultSignedURLTTL     = "15m"
	defaultStorageBackend   = "local"
	defaultStorageDir       = "./storage"
	defaultRabbitMQExchange = "marketplace.events"
	defaultMongoDatabase    = "freightmarket"
)

const (
	StorageLocal  = "local"
	StorageGridFS = "gridfs"
)

type StorageConfig struct {
	Backend       string
	Dir           string
	PublicBaseURL string
	MongoURI      string
	MongoDatabase string
}

type Config struct {
	AppEnv             string
	HTTPAddr           string
	DatabaseURL        string
	DBDebug            bool
	JWTSecret          string
	JWTAccessTTL       time.Duration
	SignedURLTTL       time.Duration
	Storage            StorageConfig
	RabbitMQURL        string
	RabbitMQExchange   string
	CORSAllowedOrigins []string
}

// Load reads .env (if present), an optional CONFIG_FILE and the process
// environment, in increasing priority.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s storage=%s rabbitmq=%t", cfg.AppEnv, cfg.HTTPAddr, cfg.Storage.Backend, cfg.RabbitMQURL != "")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", defaultHTTPAddr)
	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	v.SetDefault("SIGNED_URL_TTL", defaultSignedURLTTL)
	v.SetDefault("STORAGE_BACKEND", defaultStorageBackend)
	v.SetDefault("STORAGE_DIR", defaultStorageDir)
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", defaultMongoDatabase)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", defaultRabbitMQExchange)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:           strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		HTTPAddr:         strings.TrimSpace(v.GetString("HTTP_ADDR")),
		DatabaseURL:      strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBDebug:          v.GetBool("DB_DEBUG"),
		JWTSecret:        strings.TrimSpace(v.GetString("JWT_SECRET")),
		RabbitMQURL:      strings.TrimSpace(v.GetString("RABBITMQ_URL")),
		RabbitMQExchange: strings.TrimSpace(v.GetString("RABBITMQ_EXCHANGE")),
		Storage: StorageConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
			Dir:           strings.TrimSpace(v.GetString("STORAGE_DIR")),
			PublicBaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("STORAGE_PUBLIC_BASE_URL")), "/"),
			MongoURI:      strings.TrimSpace(v.GetString("MONGO_URI")),
			MongoDatabase: strings.TrimSpace(v.GetString("MONGO_DATABASE")),
		},
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.JWTAccessTTL, err = parseDuration("JWT_ACCESS_TTL", v.GetString("JWT_ACCESS_TTL")); err != nil {
		return nil, err
	}
	if cfg.SignedURLTTL, err = parseDuration("SIGNED_URL_TTL", v.GetString("SIGNED_URL_TTL")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.SignedURLTTL <= 0 {
		return fmt.Errorf("SIGNED_URL_TTL must be > 0")
	}

	switch cfg.Storage.Backend {
	case StorageLocal:
		if cfg.Storage.Dir == "" {
			return fmt.Errorf("STORAGE_DIR must be set when STORAGE_BACKEND=local")
		}
	case StorageGridFS:
		if cfg.Storage.MongoURI == "" || cfg.Storage.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE must be set when STORAGE_BACKEND=gridfs")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: local, gridfs")
	}

	if cfg.RabbitMQURL != "" && cfg.RabbitMQExchange == "" {
		return fmt.Errorf("RABBITMQ_EXCHANGE must not be empty when RABBITMQ_URL is set")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.DBDebug {
			return fmt.Errorf("in prod/release DB_DEBUG must be false")
		}
	}

	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDuration(name, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
