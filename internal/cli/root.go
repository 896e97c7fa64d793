// Package cli wires configuration, storage and the pipeline into the
// legisync command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/legisync/internal/core/config"
	redisclient "github.com/vietddude/legisync/internal/infra/redis"
	"github.com/vietddude/legisync/internal/infra/storage"
	"github.com/vietddude/legisync/internal/infra/storage/memory"
	"github.com/vietddude/legisync/internal/infra/storage/sqlstore"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "legisync",
	Short: "Legislative open-data pipeline",
	Long: `legisync loads legislative open-data extracts (members, bills, roll calls,
votes, expenses) into a relational store and tags bills with civic topics.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads .env and the config file, then installs the logger.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return nil, err
	}
	setupLogger(cfg.Logging)
	return cfg, nil
}

func setupLogger(lc config.LoggingConfig) {
	level := slog.LevelInfo
	switch {
	case isDebug || lc.Level == "debug":
		level = slog.LevelDebug
	case lc.Level == "warn":
		level = slog.LevelWarn
	case lc.Level == "error":
		level = slog.LevelError
	}

	if lc.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// exitWith loads the config, runs fn and exits with its code. fn returns
// instead of exiting so its deferred cleanup runs first.
func exitWith(fn func(ctx context.Context, cfg *config.AppConfig) int) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	code := fn(ctx, cfg)
	cancel()
	os.Exit(code)
}

// openStore connects to the configured database. Without a database URL the
// run is a dry run against an in-memory store that is discarded on exit.
func openStore(ctx context.Context, cfg *config.AppConfig) (storage.Store, error) {
	if cfg.Database.URL == "" {
		slog.Warn("No database URL configured, using in-memory store")
		return memory.NewMemoryStorage(), nil
	}

	db, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := sqlstore.New(db)
	store.DB().StartMetricsCollector(ctx)
	return store, nil
}

// openRedis returns nil when no Redis URL is configured.
func openRedis(cfg *config.AppConfig) (*redisclient.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	return redisclient.NewClient(cfg.Redis)
}
