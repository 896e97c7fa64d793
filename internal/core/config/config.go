package config

import (
	"time"

	"github.com/vietddude/legisync/internal/enrich"
	"github.com/vietddude/legisync/internal/infra/objectstore"
	redisclient "github.com/vietddude/legisync/internal/infra/redis"
	"github.com/vietddude/legisync/internal/infra/source"
	"github.com/vietddude/legisync/internal/infra/storage/sqlstore"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	InputDir   string             `yaml:"input_dir"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   sqlstore.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Retry      RetryConfig        `yaml:"retry"`
	Metrics    MetricsConfig      `yaml:"metrics"`
	Source     source.Config      `yaml:"source"`
	S3         objectstore.Config `yaml:"s3"`
	Enrichment enrich.Config      `yaml:"enrichment"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RetryConfig controls the retry policy of retried stages.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// MetricsConfig holds Prometheus Pushgateway settings. An empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}
