package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/enrich"
	"github.com/vietddude/legisync/internal/enrich/gemini"
	"github.com/vietddude/legisync/internal/enrich/openai"
	"github.com/vietddude/legisync/internal/metrics"
)

var enrichLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate plain-language explanations for bills",
	Args:  cobra.NoArgs,
	Run:   runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "maximum bills to enrich (default from config)")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) {
	exitWith(func(ctx context.Context, cfg *config.AppConfig) int {
		if enrichLimit > 0 {
			cfg.Enrichment.BatchLimit = enrichLimit
		}
		return enrichBills(ctx, cfg)
	})
}

func enrichBills(ctx context.Context, cfg *config.AppConfig) int {
	gen, closeGen, err := newGenerator(ctx, cfg.Enrichment)
	if err != nil {
		slog.Error("Failed to create generator", "error", err)
		return 1
	}
	defer closeGen()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", errs.Loggable(err))
		return 1
	}
	defer func() {
		_ = store.Close()
	}()

	svc, err := enrich.NewService(store, gen, cfg.Enrichment, slog.Default())
	if err != nil {
		slog.Error("Invalid enrichment settings", "error", err)
		return 1
	}

	sum, err := svc.Run(ctx)
	if pushErr := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); pushErr != nil {
		slog.Warn("Failed to push metrics", "error", pushErr)
	}
	if err != nil {
		slog.Error("Enrichment failed", "error", errs.Loggable(err))
		return 1
	}
	fmt.Printf("attempted=%d stored=%d failed=%d\n", sum.Attempted, sum.Stored, sum.Failed)
	return 0
}

func newGenerator(ctx context.Context, cfg enrich.Config) (enrich.Generator, func(), error) {
	switch cfg.Provider {
	case enrich.ProviderGemini:
		g, err := gemini.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	case enrich.ProviderOpenAI:
		g, err := openai.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return g, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown enrichment provider %q", cfg.Provider)
	}
}
