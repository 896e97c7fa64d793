package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/objectstore"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download extract files from S3 into the input directory",
	Args:  cobra.NoArgs,
	Run:   runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	exitWith(syncExtracts)
}

func syncExtracts(ctx context.Context, cfg *config.AppConfig) int {
	syncer, err := objectstore.NewSyncer(ctx, cfg.S3, slog.Default())
	if err != nil {
		slog.Error("Failed to create S3 syncer", "error", errs.Loggable(err))
		return 1
	}
	files, err := syncer.Sync(ctx, cfg.InputDir)
	if err != nil {
		slog.Error("Sync failed", "error", errs.Loggable(err))
		return 1
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return 0
}
