package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/legisync/internal/enrich"
	"github.com/vietddude/legisync/internal/infra/storage/sqlstore"
)

// Load reads configuration from a YAML file, expanding ${VAR} references,
// applying defaults and validating the result.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.UnmarshalStrict([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.InputDir == "" {
		c.InputDir = "./data"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = sqlstore.DriverPgx
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = 2
	}

	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 30 * time.Minute
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialWait == 0 {
		c.Retry.InitialWait = 2 * time.Second
	}
	if c.Retry.MaxWait == 0 {
		c.Retry.MaxWait = time.Minute
	}

	if c.Metrics.Job == "" {
		c.Metrics.Job = "legisync"
	}
	if c.Source.Delimiter == "" {
		c.Source.Delimiter = ";"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}

	e := &c.Enrichment
	if e.Provider == "" {
		e.Provider = enrich.ProviderOpenAI
	}
	if e.Model == "" {
		e.Model = "gpt-4o-mini"
	}
	if e.PromptVersion == "" {
		e.PromptVersion = "v1"
	}
	if e.Workers == 0 {
		e.Workers = 4
	}
	if e.ReviewThreshold == 0 {
		e.ReviewThreshold = 0.7
	}
	if e.BatchLimit == 0 {
		e.BatchLimit = 200
	}
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var problems []error

	switch c.Database.Driver {
	case sqlstore.DriverPgx, sqlstore.DriverPostgres, sqlstore.DriverSQLite:
	default:
		problems = append(problems, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		problems = append(problems, errors.New("database.min_conns exceeds max_conns"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, errors.New("retry.max_attempts must be at least 1"))
	}
	if c.Retry.InitialWait < 0 || c.Retry.MaxWait < 0 {
		problems = append(problems, errors.New("retry waits must not be negative"))
	}

	if len([]rune(c.Source.Delimiter)) != 1 {
		problems = append(problems, fmt.Errorf("source.delimiter: want one character, got %q", c.Source.Delimiter))
	}

	switch c.Enrichment.Provider {
	case enrich.ProviderOpenAI, enrich.ProviderGemini:
	default:
		problems = append(problems, fmt.Errorf("enrichment.provider: unknown provider %q", c.Enrichment.Provider))
	}
	if t := c.Enrichment.ReviewThreshold; t < 0 || t > 1 {
		problems = append(problems, fmt.Errorf("enrichment.review_threshold: %v outside [0,1]", t))
	}
	if c.Enrichment.Workers < 0 || c.Enrichment.BatchLimit < 0 {
		problems = append(problems, errors.New("enrichment workers and batch_limit must not be negative"))
	}

	return errors.Join(problems...)
}
