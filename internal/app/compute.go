package app

import (
	"context"
	"encoding/json"
	"fmt"
)

// Compute runs the pipeline once and prints the resulting record.
func (a *App) Compute(ctx context.Context, opts ComputeOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; run history disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	res, err := a.newRunner(opts.OutputPath, store).Run(ctx, a.pipelineOptions(opts))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(a.Out, string(data))
	return err
}
