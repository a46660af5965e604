package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sales-stats/internal/app"
)

var (
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recent pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		return getApp().History(cmd.Context(), app.HistoryOptions{
			Limit: historyLimit,
		})
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to display")
}
