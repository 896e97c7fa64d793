package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/legisync/internal/classify"
	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/reconcile"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Recompute rule-based bill categories",
	Long: `classify replaces every rule-derived category with a fresh classification of
the stored bills. Model-derived categories are left untouched.`,
	Args: cobra.NoArgs,
	Run:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	exitWith(classifyBills)
}

func classifyBills(ctx context.Context, cfg *config.AppConfig) int {
	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", errs.Loggable(err))
		return 1
	}
	defer func() {
		_ = store.Close()
	}()

	rec := reconcile.New(store, slog.Default())
	n, err := rec.ClassifyBills(ctx, classify.Default())
	if err != nil {
		slog.Error("Classification failed", "error", errs.Loggable(err))
		return 1
	}
	slog.Info("Classification complete", "tags", n)
	return 0
}
