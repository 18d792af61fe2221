package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/estimator/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending snapshot database migrations",
	RunE:  runMigrate,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Store.DatabaseURL == "" {
		return eris.New("--db-url or store.database_url required")
	}
	database, err := db.Open(cmd.Context(), cfg.Store.DatabaseURL)
	if err != nil {
		return eris.Wrap(err, "failed to open database")
	}
	defer database.Close()

	start := time.Now()
	if err := db.MigrateUp(cmd.Context(), database); err != nil {
		return err
	}
	logger.Info("migrations applied", zap.Duration("duration", time.Since(start)))
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Store.DatabaseURL == "" {
		return eris.New("--db-url or store.database_url required")
	}
	database, err := db.Open(cmd.Context(), cfg.Store.DatabaseURL)
	if err != nil {
		return eris.Wrap(err, "failed to open database")
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(cmd.Context(), database)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		state, appliedAt := "pending", "-"
		if s.Applied {
			state = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format(time.RFC3339)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, state, appliedAt)
	}
	return w.Flush()
}
