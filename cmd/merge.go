package cmd

import (
	"github.com/mres-project/mres/core"
	"github.com/mres-project/mres/internal/contract"
	"github.com/spf13/cobra"
)

// mergeCmd merges RRL scores into the exposure collection.
var mergeCmd = &cobra.Command{
	Use:   "merge [dir]",
	Short: "Compute RRLs and write them into the exposure GeoJSON.",
	Long: `Read <hazard>_indicators.csv for every selected hazard, compute one
Resilience Readiness Level per building and store it as <hazard>_rrl on the
matching feature of exposure.json (or exposure.geojson).

Hazards without an indicator table are skipped. A hazard whose table fails
validation is reported as failed; the other hazards are still merged and the
command exits non-zero.

Examples:
  # Merge every hazard found in the current directory
  mres merge

  # Only heat and flood, keep the source file untouched
  mres merge ./district --hazards heat,flood --exposure-output scored.geojson

  # Report what would change without writing anything
  mres merge --dry-run --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMerge(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot merge RRLs", err)
		}
	},
}

// scoresCmd prints per-building scores.
var scoresCmd = &cobra.Command{
	Use:   "scores [dir]",
	Short: "Print per-building RRLs without touching the exposure file.",
	Long: `Compute Resilience Readiness Levels from the indicator tables of a directory
and print them per building, highest RRL first. Lower scores are more
resilient.

Examples:
  # The 20 least resilient buildings of each hazard
  mres scores --limit 20

  # Export every seismic score for BI tools
  mres scores --hazards seismic --output parquet --output-file seismic.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScores(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot compute scores", err)
		}
	},
}

// validateCmd checks indicator tables.
var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check indicator tables and the exposure file.",
	Long: `Ingest every selected indicator table and report missing columns, values that
do not parse and values outside their allowed range. The exposure file is
parsed when present. Nothing is written unless --export-dir is given, in which
case every valid table is rewritten there with its columns in canonical order.

Exits non-zero when any hazard fails, which makes it suitable for CI.

Examples:
  mres validate ./district
  mres validate --strict-ids --output csv
  mres validate --export-dir ./normalized`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteValidate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Validation failed", err)
		}
	},
}
