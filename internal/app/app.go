package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"sales-stats/internal/artifact"
	"sales-stats/internal/config"
	"sales-stats/internal/dataset"
	"sales-stats/internal/metrics"
	"sales-stats/internal/pipeline"
	"sales-stats/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Out     io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config:  cfg,
		Logger:  logger.With().Str("component", "app").Logger(),
		Metrics: metrics.New(),
		Out:     os.Stdout,
	}
}

func (a *App) newLoader() *dataset.Loader {
	return dataset.NewLoader(dataset.Options{
		PriceAliases:    a.Config.Pipeline.PriceAliases,
		QuantityAliases: a.Config.Pipeline.QuantityAliases,
		Comma:           a.Config.CommaRune(),
	}, a.Logger)
}

func (a *App) newArtifactStore(path string) *artifact.Store {
	if path == "" {
		path = a.Config.Pipeline.OutputPath
	}
	return artifact.NewStore(path, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if a.Config.Database.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newRunner wires the pipeline with the run history store, when configured,
// and the artifact sink. The artifact is staged, so a failed history insert
// leaves the previous artifact in place.
func (a *App) newRunner(outputPath string, store *storage.Store) *pipeline.Runner {
	sinks := make([]pipeline.Sink, 0, 2)
	if store != nil {
		sinks = append(sinks, store)
	}
	sinks = append(sinks, a.newArtifactStore(outputPath))
	return pipeline.New(a.newLoader(), sinks, a.Metrics, a.Logger)
}

// ComputeOptions override pipeline settings for a single run.
type ComputeOptions struct {
	SourcePath string
	OutputPath string
	Column     string
	Threshold  *int64
}

func (a *App) pipelineOptions(opts ComputeOptions) pipeline.Options {
	p := pipeline.Options{
		SourcePath:         a.Config.Pipeline.SourcePath,
		ChallengeColumn:    a.Config.Pipeline.ChallengeColumn,
		ChallengeThreshold: a.Config.Pipeline.ChallengeThreshold,
	}
	if opts.SourcePath != "" {
		p.SourcePath = opts.SourcePath
	}
	if opts.Column != "" {
		p.ChallengeColumn = opts.Column
	}
	if opts.Threshold != nil {
		p.ChallengeThreshold = *opts.Threshold
	}
	return p
}

// ServeOptions configure the serve command.
type ServeOptions struct {
	Addr      string
	Recompute bool
}

// ExportOptions hold parameters for exporting run history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// HistoryOptions configure the history command.
type HistoryOptions struct {
	Limit int
}

// ChartOptions configure the chart command.
type ChartOptions struct {
	SourcePath string
	Output     string
	Bins       int
}
