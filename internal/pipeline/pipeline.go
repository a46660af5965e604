// Package pipeline sequences loading, aggregation and the functional
// challenge into a single all-or-nothing run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sales-stats/internal/challenge"
	"sales-stats/internal/dataset"
	"sales-stats/internal/metrics"
	"sales-stats/internal/report"
	"sales-stats/internal/stats"
)

// Sink receives the result of a successful run.
type Sink interface {
	Publish(ctx context.Context, run report.Run) error
}

// Stager is a Sink that can prepare its output without making it visible.
// The runner stages such sinks, publishes every other sink, and commits the
// staged output only when all of them succeeded. On any failure staged output
// is discarded and what readers see is left untouched.
type Stager interface {
	Stage(ctx context.Context, run report.Run) (commit func() error, discard func(), err error)
}

// Options parameterise a run.
type Options struct {
	SourcePath         string
	ChallengeColumn    string
	ChallengeThreshold int64
}

// Runner executes pipeline runs. It keeps no state between runs.
type Runner struct {
	loader  *dataset.Loader
	sinks   []Sink
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// New constructs a Runner. Nil sinks are ignored. Plain sinks are published in
// the given order; Stager sinks are committed after all of them.
func New(loader *dataset.Loader, sinks []Sink, m *metrics.Metrics, logger zerolog.Logger) *Runner {
	active := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}

	return &Runner{
		loader:  loader,
		sinks:   active,
		metrics: m,
		logger:  logger.With().Str("component", "pipeline").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Compute derives the StatsResult for ds. It does not modify ds.
func Compute(ds *dataset.Dataset, challengeColumn string, threshold int64) (report.StatsResult, error) {
	agg, err := stats.Aggregate(ds)
	if err != nil {
		return report.StatsResult{}, fmt.Errorf("aggregate: %w", err)
	}

	values, err := ds.IntColumn(challengeColumn)
	if err != nil {
		return report.StatsResult{}, fmt.Errorf("challenge column: %w", err)
	}

	fp, err := challenge.Analyze(values, threshold)
	if err != nil {
		return report.StatsResult{}, &dataset.FormatError{Path: ds.Source(), Column: challengeColumn, Err: err}
	}

	return report.New(agg, fp), nil
}

// Evaluate loads the source and computes the run without publishing it.
func (r *Runner) Evaluate(opts Options) (report.Run, error) {
	ds, err := r.loader.Load(opts.SourcePath)
	if err != nil {
		return report.Run{}, fmt.Errorf("load dataset: %w", err)
	}

	column, err := r.loader.ResolveColumn(opts.ChallengeColumn)
	if err != nil {
		return report.Run{}, fmt.Errorf("challenge column: %w", err)
	}

	res, err := Compute(ds, column, opts.ChallengeThreshold)
	if err != nil {
		return report.Run{}, err
	}

	return report.Run{
		Source:     ds.Source(),
		Rows:       ds.Len(),
		ComputedAt: r.now(),
		Result:     res,
	}, nil
}

// Run evaluates the source and hands the result to every sink. Any failure
// aborts the run; sinks are only touched once the result is complete.
func (r *Runner) Run(ctx context.Context, opts Options) (report.StatsResult, error) {
	start := time.Now()

	run, err := r.Evaluate(opts)
	if err == nil {
		err = r.publish(ctx, run)
	}
	r.metrics.RecordRun(err, time.Since(start), run.Rows)

	if err != nil {
		r.logger.Error().Err(err).Str("source", opts.SourcePath).Msg("pipeline run failed")
		return report.StatsResult{}, err
	}

	r.logger.Info().
		Str("source", run.Source).
		Int("rows", run.Rows).
		Int64("qtd_total", run.Result.TotalQuantity).
		Str("receita_total", run.Result.TotalRevenue.StringFixed(report.MoneyPlaces)).
		Str("preco_medio", run.Result.AveragePrice.StringFixed(report.MoneyPlaces)).
		Int64("contagem", run.Result.Challenge.Count).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run complete")

	return run.Result, nil
}

func (r *Runner) publish(ctx context.Context, run report.Run) (err error) {
	var commits []func() error
	var discards []func()
	defer func() {
		if err != nil {
			for _, discard := range discards {
				discard()
			}
		}
	}()

	for _, sink := range r.sinks {
		if stager, ok := sink.(Stager); ok {
			commit, discard, err := stager.Stage(ctx, run)
			if err != nil {
				return fmt.Errorf("stage %T: %w", sink, err)
			}
			commits = append(commits, commit)
			discards = append(discards, discard)
			continue
		}
		if err := sink.Publish(ctx, run); err != nil {
			return fmt.Errorf("publish %T: %w", sink, err)
		}
	}

	for _, commit := range commits {
		if err := commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	return nil
}
