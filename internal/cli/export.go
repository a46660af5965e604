package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sales-stats/internal/app"
)

var (
	exportFrom      string
	exportTo        string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history as CSV and/or a revenue chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseTimestamp("from", exportFrom)
		if err != nil {
			return err
		}
		to, err := parseTimestamp("to", exportTo)
		if err != nil {
			return err
		}

		return getApp().Export(cmd.Context(), app.ExportOptions{
			From:      from,
			To:        to,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		})
	},
}

// parseTimestamp accepts RFC3339 or a bare UTC date. Empty means unset.
func parseTimestamp(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s value %q: want RFC3339 or YYYY-MM-DD", flag, value)
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start of the run window (RFC3339 or YYYY-MM-DD, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End of the run window (RFC3339 or YYYY-MM-DD, exclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write the revenue/average price chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write the run history CSV")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum runs to export (defaults to config)")
}
