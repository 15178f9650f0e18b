package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/runstore"
	"github.com/mres-project/mres/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper reads and validates the history backend settings.
// An empty backend is treated as NoneBackend.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	connStr := viper.GetString("history-db-connect")
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}
	if err := runstore.InitStores(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historyMigrateSetup loads the backend without initializing stores, so
// migrations can run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = runstore.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focuses on run history management.
//
// Note: history subcommands use minimal initialization instead of the full
// sharedSetup. This avoids working directory checks for simple store operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of merge runs",
	Long: `Manage the history of merge runs.

When --history-backend is set, every merge run that writes the exposure file
is recorded with its configuration, timing and every building score.

Supported backends: SQLite (default file ~/.mres_history.db), MySQL, PostgreSQL,
or None (disabled)

Subcommands:
  status   - Show history statistics
  clear    - Remove all recorded runs
  export   - Export runs and scores to Parquet
  migrate  - Run schema migrations`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show the backend, connection health, run counts, the newest and oldest run
and the number of rows per table.

Examples:
  mres history status --history-backend sqlite`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := runstore.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("run history is disabled; set --history-backend"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		runstore.PrintHistoryStatus(status)
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and building scores",
	Long: `Delete every recorded run and building score.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  mres history export --output-file backup
  mres history clear`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		runstore.CloseStores()
		if err := runstore.ClearHistory(cfg.HistoryBackend, historyDBFile(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export every recorded run and building score to two Parquet files,
<output-file>.runs.parquet and <output-file>.building_scores.parquet.

Requires: --output-file parameter

Examples:
  mres history export --output-file mres-history
  duckdb -c "SELECT hazard, avg(score) FROM read_parquet('mres-history.building_scores.parquet') GROUP BY hazard"`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runstore.ExecuteHistoryExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the run history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  mres history migrate --history-backend sqlite

  # Rollback everything
  mres history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := runstore.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// historyDBFile is the SQLite file to clear: the configured one or the default.
func historyDBFile() string {
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return runstore.GetHistoryDBFilePath()
}
