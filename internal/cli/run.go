package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/legisync/internal/classify"
	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/objectstore"
	"github.com/vietddude/legisync/internal/infra/source"
	"github.com/vietddude/legisync/internal/metrics"
	"github.com/vietddude/legisync/internal/pipeline"
	"github.com/vietddude/legisync/internal/reconcile"
)

var (
	syncFirst bool
	inputDir  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load the extracts and reconcile classifications",
	Long: `run executes the fixed stage sequence: members, bills, votes, expenses,
vote-bill links, party guidance and classification. It exits 1 when the input
directory is missing, the run lock is held or a critical stage fails.`,
	Args: cobra.NoArgs,
	Run:  runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&syncFirst, "sync", false, "download extracts from S3 before running")
	runCmd.Flags().StringVar(&inputDir, "input-dir", "", "override input_dir from the config file")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) {
	exitWith(func(ctx context.Context, cfg *config.AppConfig) int {
		if inputDir != "" {
			cfg.InputDir = inputDir
		}
		return execute(ctx, cfg)
	})
}

func execute(ctx context.Context, cfg *config.AppConfig) int {
	if syncFirst {
		syncer, err := objectstore.NewSyncer(ctx, cfg.S3, slog.Default())
		if err != nil {
			slog.Error("Failed to create S3 syncer", "error", errs.Loggable(err))
			return 1
		}
		if _, err := syncer.Sync(ctx, cfg.InputDir); err != nil {
			slog.Error("Failed to sync extracts", "error", errs.Loggable(err))
			return 1
		}
	}

	// The store is only opened for an existing input directory.
	if err := pipeline.CheckInputDir(cfg.InputDir); err != nil {
		slog.Error("Pre-flight check failed", "input_dir", cfg.InputDir, "error", errs.Loggable(err))
		return 1
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", errs.Loggable(err))
		return 1
	}
	defer func() {
		_ = store.Close()
	}()

	log := slog.Default().With("component", "pipeline")
	rec := reconcile.New(store, slog.Default())
	src := source.NewReader(cfg.InputDir, cfg.Source)

	o := &pipeline.Orchestrator{
		InputDir: cfg.InputDir,
		Stages:   pipeline.DefaultStages(src, rec, classify.Default()),
		Runner: pipeline.Runner{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: cfg.Retry.InitialWait,
			MaxWait:     cfg.Retry.MaxWait,
		},
		Log: log,
	}

	rc, err := openRedis(cfg)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		return 1
	}
	if rc != nil {
		defer func() {
			_ = rc.Close()
		}()
		o.Lock = rc
		o.Sink = rc
	}

	report := o.Run(ctx)

	if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		slog.Warn("Failed to push metrics", "error", err)
	}
	return report.ExitCode()
}
