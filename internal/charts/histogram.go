// Package charts renders PNG views of sales data.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"sales-stats/internal/dataset"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("charts: no data to plot")

// Bin is one histogram bucket covering [Lower, Upper); the last bin also
// includes Upper.
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// PriceBins groups the dataset's prices into equal-width bins.
func PriceBins(ds *dataset.Dataset, bins int) ([]Bin, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrNoData
	}
	if bins <= 0 {
		bins = 1
	}

	prices := make([]float64, ds.Len())
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range prices {
		p := ds.At(i).Price.InexactFloat64()
		prices[i] = p
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}

	if hi == lo {
		return []Bin{{Lower: lo, Upper: hi, Count: len(prices)}}, nil
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + width*float64(i)
		out[i].Upper = lo + width*float64(i+1)
	}
	out[bins-1].Upper = hi

	for _, p := range prices {
		idx := int((p - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out, nil
}

// WritePriceHistogram renders the price distribution of ds as a PNG bar chart.
func WritePriceHistogram(w io.Writer, ds *dataset.Dataset, bins int) error {
	buckets, err := PriceBins(ds, bins)
	if err != nil {
		return err
	}

	bars := make([]chart.Value, len(buckets))
	maxCount := 1
	for i, b := range buckets {
		bars[i] = chart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%.2f-%.2f", b.Lower, b.Upper),
		}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	const width = 1280
	barWidth := (width - 200) / (2 * len(bars))
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 2 {
		barWidth = 2
	}

	graph := chart.BarChart{
		Title:    "Price distribution",
		Width:    width,
		Height:   720,
		BarWidth: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 60},
		},
		YAxis: chart.YAxis{
			Name:  "Rows",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, w)
}
