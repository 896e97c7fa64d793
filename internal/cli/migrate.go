package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/legisync/internal/core/config"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/storage/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	exitWith(migrateSchema)
}

func migrateSchema(ctx context.Context, cfg *config.AppConfig) int {
	if cfg.Database.URL == "" {
		slog.Error("No database URL configured, nothing to migrate")
		return 1
	}

	dbCfg := cfg.Database
	dbCfg.Migrate = false
	db, err := sqlstore.Open(ctx, dbCfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", errs.Loggable(err))
		return 1
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("Migration failed", "error", errs.Loggable(err))
		return 1
	}
	version, err := db.MigrationVersion(ctx)
	if err != nil {
		slog.Error("Failed to read migration version", "error", err)
		return 1
	}
	slog.Info("Database migrated", "driver", db.Driver(), "version", version)
	return 0
}
