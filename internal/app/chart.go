package app

import (
	"errors"
	"fmt"
	"os"

	"sales-stats/internal/charts"
)

// Chart writes the price histogram of the source table to a PNG file.
func (a *App) Chart(opts ChartOptions) error {
	if opts.Output == "" {
		return errors.New("--out must be provided")
	}

	source := opts.SourcePath
	if source == "" {
		source = a.Config.Pipeline.SourcePath
	}
	bins := opts.Bins
	if bins <= 0 {
		bins = a.Config.HTTP.HistogramBins
	}

	ds, err := a.newLoader().Load(source)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	if err := ensureDir(opts.Output); err != nil {
		return err
	}
	file, err := os.Create(opts.Output)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := charts.WritePriceHistogram(file, ds, bins); err != nil {
		return err
	}

	a.Logger.Info().Str("path", opts.Output).Int("rows", ds.Len()).Msg("price histogram written")
	return nil
}
