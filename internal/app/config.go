package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the dashboard.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Seller backend API. Every business entity lives behind it; the
	// dashboard keeps no database of its own.
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://127.0.0.1:9000"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"20s"`

	// Service credential for the worker, which has no browser session.
	APIServiceToken string `envconfig:"API_SERVICE_TOKEN"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	// Object storage for product and slider images. The dashboard signs
	// short-lived PUT URLs; the secret never reaches the browser.
	StorageEndpoint  string        `envconfig:"STORAGE_ENDPOINT" default:"https://storage.clystore.example"`
	StorageBucket    string        `envconfig:"STORAGE_BUCKET" default:"cly-media"`
	StorageAccessKey string        `envconfig:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string        `envconfig:"STORAGE_SECRET_KEY"`
	StorageURLTTL    time.Duration `envconfig:"STORAGE_URL_TTL" default:"10m"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	ExportDir string `envconfig:"EXPORT_DIR" default:"./exports"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("seller API base URL must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
