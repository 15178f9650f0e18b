package cmd

import (
	"github.com/mres-project/mres/core"
	"github.com/mres-project/mres/internal/contract"
	"github.com/spf13/cobra"
)

// templateCmd writes empty indicator tables.
var templateCmd = &cobra.Command{
	Use:   "template [dir]",
	Short: "Write empty indicator tables for the selected hazards.",
	Long: `Create <hazard>_indicators.csv with the required header row for every selected
hazard. With --from-exposure each table gets one row per feature id of the
exposure file, ready to be filled in.

Examples:
  mres template --hazards wind
  mres template ./district --from-exposure --force`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTemplate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot write templates", err)
		}
	},
}

// fieldsCmd documents the indicator schema.
var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Show required indicator fields, ranges and formulas.",
	Long: `Print the columns each indicator table needs, the allowed range of every
indicator and the formula used to compute the RRL.

Examples:
  mres fields
  mres fields --hazards seismic --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFields(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot print fields", err)
		}
	},
}
