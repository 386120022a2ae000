package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dexgraph/internal/app"
)

var (
	backfillFrom   uint64
	backfillTo     uint64
	backfillDryRun bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Replay a historical block range",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("from") || !cmd.Flags().Changed("to") {
			return fmt.Errorf("--from and --to must be provided")
		}
		if backfillTo < backfillFrom {
			return fmt.Errorf("--to must not be below --from")
		}

		opts := app.BackfillOptions{
			FromBlock: backfillFrom,
			ToBlock:   backfillTo,
			DryRun:    backfillDryRun,
		}

		return getApp().Backfill(cmd.Context(), opts)
	},
}

func init() {
	backfillCmd.Flags().Uint64Var(&backfillFrom, "from", 0, "Start block (inclusive)")
	backfillCmd.Flags().Uint64Var(&backfillTo, "to", 0, "End block (inclusive)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Run without writing to storage")
}
