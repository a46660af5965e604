package cli

import (
	"github.com/spf13/cobra"

	"sales-stats/internal/app"
)

var (
	chartSource string
	chartOutput string
	chartBins   int
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the price histogram of the sales table as PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Chart(app.ChartOptions{
			SourcePath: chartSource,
			Output:     chartOutput,
			Bins:       chartBins,
		})
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartSource, "source", "", "Path to the sales CSV (defaults to config)")
	chartCmd.Flags().StringVar(&chartOutput, "out", "", "Path to write the PNG chart")
	chartCmd.Flags().IntVar(&chartBins, "bins", 0, "Number of histogram bins (defaults to config)")
}
