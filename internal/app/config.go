package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the portal.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	RememberTTL   time.Duration `envconfig:"REMEMBER_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	BackendBaseURL  string        `envconfig:"BACKEND_BASE_URL" default:"http://127.0.0.1:8081/api"`
	BackendTimeout  time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	BackendRetryMax int           `envconfig:"BACKEND_RETRY_MAX" default:"2"`

	RateLimit      int `envconfig:"RATE_LIMIT" default:"300"`
	LoginRateLimit int `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.BackendBaseURL == "" {
		return nil, errors.New("backend base url must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the portal runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
