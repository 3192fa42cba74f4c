package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Dataset source kinds.
const (
	DatasetSourceCSV      = "csv"
	DatasetSourcePostgres = "postgres"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	DatasetSource string `envconfig:"DATASET_SOURCE" default:"csv"`
	DatasetPath   string `envconfig:"DATASET_PATH" default:"data/day.csv"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9090"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	JobsQueue         string `envconfig:"JOBS_QUEUE" default:"default"`

	AdminToken string `envconfig:"ADMIN_TOKEN"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements envconfig cannot express.
func (c *Config) Validate() error {
	c.DatasetSource = strings.ToLower(strings.TrimSpace(c.DatasetSource))
	switch c.DatasetSource {
	case DatasetSourceCSV:
		if strings.TrimSpace(c.DatasetPath) == "" {
			return errors.New("dataset path must be provided for csv source")
		}
	case DatasetSourcePostgres:
		if strings.TrimSpace(c.PGDSN) == "" {
			return errors.New("pg dsn must be provided for postgres source")
		}
	default:
		return fmt.Errorf("unknown dataset source %q", c.DatasetSource)
	}
	if c.WorkerConcurrency < 1 {
		return errors.New("worker concurrency must be at least 1")
	}
	c.JobsQueue = strings.TrimSpace(c.JobsQueue)
	if c.JobsQueue == "" {
		return errors.New("jobs queue must not be empty")
	}
	if c.CacheTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if c.IsProduction() && c.AdminToken != "" && len(c.AdminToken) < 16 {
		return errors.New("admin token must be at least 16 characters in production")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
