package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-stats/internal/httpapi"
	"sales-stats/internal/scheduler"
	"sales-stats/internal/version"
)

// Serve runs the HTTP API until interrupted, optionally recomputing the
// statistics on the watch schedule.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := opts.Addr
	if addr == "" {
		addr = a.Config.HTTP.Addr
	}

	api := httpapi.NewServer(
		a.newArtifactStore(""),
		a.newLoader(),
		httpapi.Options{SourcePath: a.Config.Pipeline.SourcePath, HistogramBins: a.Config.HTTP.HistogramBins},
		a.Metrics,
		a.Logger,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: a.Config.HTTP.ReadHeaderTimeout,
		WriteTimeout:      a.Config.HTTP.WriteTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.Logger.Info().Str("addr", addr).Str("version", version.Version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
		defer cancelShutdown()
		a.Logger.Info().Msg("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if opts.Recompute {
		group.Go(func() error {
			return a.watchLoop(gctx)
		})
	}

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Watch recomputes the statistics on every scheduled slot until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := a.watchLoop(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("watch stopped")
	return nil
}

func (a *App) watchLoop(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched, err := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		AlignToStart: a.Config.Watch.AlignToBucket,
		StartupDelay: a.Config.Watch.StartupDelay,
		Immediate:    true,
	}, a.Logger)
	if err != nil {
		return err
	}

	runner := a.newRunner("", store)
	opts := a.pipelineOptions(ComputeOptions{})

	return sched.Run(ctx, func(ctx context.Context, slot time.Time) error {
		_, err := runner.Run(ctx, opts)
		return err
	})
}
