package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/shipment-report/internal/reportwriter"
)

var previewFlags batchFlags

// previewCmd runs the same batch as merge and prints the result instead of
// writing it. A merge with the same sources and flags writes exactly what
// preview shows.
var previewCmd = &cobra.Command{
	Use:   "preview [flags] <sources...>",
	Short: "Show the counts and statistics a merge would produce",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := runBatch(cmd.Context(), cfg, previewFlags, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := reportwriter.RenderExisting(out, b.existing); err != nil {
			return eris.Wrap(err, "print existing report")
		}
		if err := reportwriter.RenderStats(out, b.result, b.files); err != nil {
			return eris.Wrap(err, "print stats")
		}

		fmt.Fprintf(out, "\n%s\n", b.result.SummarySheet)
		if err := reportwriter.RenderSummary(out, b.result.Summary, b.result.Schema); err != nil {
			return eris.Wrap(err, "print summary")
		}
		if b.result.Stats.CarriedPeriods > 0 {
			fmt.Fprintln(out, "* carried over from the existing report")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewFlags.register(previewCmd)
}
