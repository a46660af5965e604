package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"sales-stats/internal/report"
)

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID            int64
	ComputedAt    time.Time
	SourcePath    string
	Rows          int
	TotalQuantity int64
	TotalRevenue  decimal.Decimal
	AveragePrice  decimal.Decimal
	SumOfSquares  int64
	Count         int64
	IntegerMean   int64
	CreatedAt     time.Time
}

// RecordFromRun flattens a run for persistence.
func RecordFromRun(run report.Run) RunRecord {
	return RunRecord{
		ComputedAt:    run.ComputedAt,
		SourcePath:    run.Source,
		Rows:          run.Rows,
		TotalQuantity: run.Result.TotalQuantity,
		TotalRevenue:  run.Result.TotalRevenue,
		AveragePrice:  run.Result.AveragePrice,
		SumOfSquares:  run.Result.Challenge.SumOfSquares,
		Count:         run.Result.Challenge.Count,
		IntegerMean:   run.Result.Challenge.IntegerMean,
	}
}

// Result rebuilds the StatsResult stored in the record.
func (r RunRecord) Result() report.StatsResult {
	return report.StatsResult{
		TotalQuantity: r.TotalQuantity,
		TotalRevenue:  r.TotalRevenue,
		AveragePrice:  r.AveragePrice,
		Challenge: report.Challenge{
			SumOfSquares: r.SumOfSquares,
			Count:        r.Count,
			IntegerMean:  r.IntegerMean,
		},
	}
}
