package cli

import (
	"github.com/spf13/cobra"

	"sales-stats/internal/app"
)

var (
	computeSource    string
	computeOutput    string
	computeColumn    string
	computeThreshold int64
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Load the sales table, compute statistics and write the artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ComputeOptions{
			SourcePath: computeSource,
			OutputPath: computeOutput,
			Column:     computeColumn,
		}
		if cmd.Flags().Changed("threshold") {
			threshold := computeThreshold
			opts.Threshold = &threshold
		}

		return getApp().Compute(cmd.Context(), opts)
	},
}

func init() {
	computeCmd.Flags().StringVar(&computeSource, "source", "", "Path to the sales CSV (defaults to config)")
	computeCmd.Flags().StringVar(&computeOutput, "output", "", "Path to write the JSON artifact (defaults to config)")
	computeCmd.Flags().StringVar(&computeColumn, "column", "", "Column fed to the filter/map/reduce challenge")
	computeCmd.Flags().Int64Var(&computeThreshold, "threshold", 0, "Strict lower bound for challenge values")
}
