package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/storage"
	"github.com/vietddude/legisync/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show table row counts and the last run report",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	exitWith(showStatus)
}

func showStatus(ctx context.Context, cfg *config.AppConfig) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", errs.Loggable(err))
		return 1
	}
	defer func() {
		_ = store.Close()
	}()

	counts, err := store.Counts(ctx)
	if err != nil {
		slog.Error("Failed to count rows", "error", errs.Loggable(err))
		return 1
	}
	printCounts(os.Stdout, counts)

	rc, err := openRedis(cfg)
	if err != nil {
		slog.Warn("Redis unavailable, skipping last report", "error", err)
		return 0
	}
	if rc == nil {
		return 0
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := rc.LastReport(ctx)
	if err != nil {
		slog.Warn("Failed to read last report", "error", err)
		return 0
	}
	if data == nil {
		fmt.Println("\nNo run recorded yet.")
		return 0
	}
	var report pipeline.Report
	if err := json.Unmarshal(data, &report); err != nil {
		slog.Warn("Stored report is unreadable", "error", err)
		return 0
	}
	fmt.Println()
	printReport(os.Stdout, report)
	return 0
}

func printCounts(out io.Writer, counts map[string]int64) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TABLE\tROWS")
	for _, table := range storage.Tables {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", table, counts[table])
	}
	_ = w.Flush()
}

func printReport(out io.Writer, r pipeline.Report) {
	outcome := "succeeded"
	if !r.Succeeded() {
		outcome = "failed"
	}
	_, _ = fmt.Fprintf(out, "Last run %s (%s) %s in %s\n",
		r.RunID, r.StartedAt.Format(time.RFC3339), outcome, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	if r.Error != "" {
		_, _ = fmt.Fprintf(out, "Error: %s\n", r.Error)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STAGE\tSTATUS\tROWS\tDURATION\tERROR")
	for _, s := range r.Stages {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.Name, s.Status, s.Rows, s.Duration.Round(time.Millisecond), s.Error)
	}
	_ = w.Flush()
}
