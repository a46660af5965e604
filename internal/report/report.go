// Package report defines StatsResult, the single record produced by a
// pipeline run, and its persisted JSON form.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sales-stats/internal/challenge"
	"sales-stats/internal/stats"
)

// MoneyPlaces is the number of fractional digits kept for persisted amounts.
const MoneyPlaces = 2

// Challenge mirrors challenge.Result under its persisted field names.
type Challenge struct {
	SumOfSquares int64 `json:"soma_quadrados"`
	Count        int64 `json:"contagem"`
	IntegerMean  int64 `json:"media_inteira"`
}

// StatsResult combines aggregate statistics and the functional challenge.
type StatsResult struct {
	TotalQuantity int64           `json:"qtd_total"`
	TotalRevenue  decimal.Decimal `json:"receita_total"`
	AveragePrice  decimal.Decimal `json:"preco_medio"`
	Challenge     Challenge       `json:"desafio_fp"`
}

// New assembles a result, rounding money fields to MoneyPlaces.
func New(agg stats.Aggregates, fp challenge.Result) StatsResult {
	return StatsResult{
		TotalQuantity: agg.TotalQuantity,
		TotalRevenue:  agg.TotalRevenue.Round(MoneyPlaces),
		AveragePrice:  agg.AveragePrice.Round(MoneyPlaces),
		Challenge: Challenge{
			SumOfSquares: fp.SumOfSquares,
			Count:        fp.Count,
			IntegerMean:  fp.IntegerMean,
		},
	}
}

type wireResult struct {
	TotalQuantity int64       `json:"qtd_total"`
	TotalRevenue  json.Number `json:"receita_total"`
	AveragePrice  json.Number `json:"preco_medio"`
	Challenge     Challenge   `json:"desafio_fp"`
}

// MarshalJSON writes money fields as bare numbers with two decimals.
func (r StatsResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireResult{
		TotalQuantity: r.TotalQuantity,
		TotalRevenue:  json.Number(r.TotalRevenue.StringFixed(MoneyPlaces)),
		AveragePrice:  json.Number(r.AveragePrice.StringFixed(MoneyPlaces)),
		Challenge:     r.Challenge,
	})
}

// UnmarshalJSON accepts money fields as numbers or strings. Every persisted
// field is required.
func (r *StatsResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		TotalQuantity *int64           `json:"qtd_total"`
		TotalRevenue  *decimal.Decimal `json:"receita_total"`
		AveragePrice  *decimal.Decimal `json:"preco_medio"`
		Challenge     *Challenge       `json:"desafio_fp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.TotalQuantity == nil {
		return fmt.Errorf("missing qtd_total")
	}
	if raw.TotalRevenue == nil {
		return fmt.Errorf("missing receita_total")
	}
	if raw.AveragePrice == nil {
		return fmt.Errorf("missing preco_medio")
	}
	if raw.Challenge == nil {
		return fmt.Errorf("missing desafio_fp")
	}

	*r = StatsResult{
		TotalQuantity: *raw.TotalQuantity,
		TotalRevenue:  *raw.TotalRevenue,
		AveragePrice:  *raw.AveragePrice,
		Challenge:     *raw.Challenge,
	}
	return nil
}

// Run is a StatsResult together with the provenance of the run that produced it.
type Run struct {
	Source     string
	Rows       int
	ComputedAt time.Time
	Result     StatsResult
}
