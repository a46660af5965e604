package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"sales-stats/internal/report"
)

// History prints the most recent pipeline runs.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show run history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	runs, err := store.ListRecentRuns(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.Out, "no runs found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Computed (UTC)\tSource\tRows\tQty\tRevenue\tAvg Price\tSum Sq\tCount\tMean")

	for _, run := range runs {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d\t%d\t%s\t%s\t%d\t%d\t%d\n",
			run.ComputedAt.UTC().Format(time.RFC3339),
			run.SourcePath,
			run.Rows,
			run.TotalQuantity,
			formatDecimal(run.TotalRevenue, report.MoneyPlaces),
			formatDecimal(run.AveragePrice, report.MoneyPlaces),
			run.SumOfSquares,
			run.Count,
			run.IntegerMean,
		)
	}

	return writer.Flush()
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
