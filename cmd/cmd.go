// Package cmd defines the command-line interface for mres.
package cmd

import (
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("hazards", "", "Comma-separated hazards: heat, seismic, wind, flood (default all)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none (empty disables)")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Flags shared by the commands that ingest indicator tables
	for _, c := range []*cobra.Command{mergeCmd, scoresCmd, validateCmd} {
		c.Flags().Bool("strict-ids", false, "Fail a hazard when an id appears more than once")
	}

	mergeCmd.Flags().Bool("dry-run", false, "Compute and report without writing the exposure file")
	mergeCmd.Flags().String("exposure-output", "", "Write the updated collection here instead of in place")
	mergeCmd.Flags().String("metrics-file", "", "Write Prometheus metrics of the run to this textfile")
	scoresCmd.Flags().IntP("limit", "l", contract.DefaultLimit, "Number of scores to display per hazard (0 = all)")
	scoresCmd.Flags().String("metrics-file", "", "Write Prometheus metrics of the run to this textfile")
	validateCmd.Flags().String("export-dir", "", "Write each valid table here in canonical column order")
	templateCmd.Flags().Bool("force", false, "Overwrite existing indicator tables")
	templateCmd.Flags().Bool("from-exposure", false, "Add one row per exposure feature id")
	templateCmd.Flags().Bool("dry-run", false, "Print the tables that would be written")
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")

	// Subcommand flags bind when their command runs, so equal names do not collide
	for _, c := range []*cobra.Command{mergeCmd, scoresCmd, validateCmd, templateCmd, historyMigrateCmd} {
		c.PreRunE = bindFlags(c.PreRunE)
	}
}

// bindFlags binds the local flags of the running command to Viper before next runs.
func bindFlags(next func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return next(cmd, args)
	}
}
