package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/snowline-etl-service/internal/adapter/http"
	"github.com/couchcryptid/snowline-etl-service/internal/pipeline"
	"github.com/couchcryptid/snowline-etl-service/internal/query"
	"github.com/couchcryptid/snowline-etl-service/internal/scheduler"
	"github.com/spf13/cobra"
)

func serveCmd(env *environment) *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and run the refresh schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, env)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx, withScheduler)
		},
	}
	cmd.Flags().BoolVar(&withScheduler, "scheduler", true, "run the refresh pipelines on their cron schedules")
	return cmd
}

func (a *app) serve(ctx context.Context, withScheduler bool) error {
	logger := a.logger

	var sched *scheduler.Scheduler
	if withScheduler {
		var err error
		sched, err = scheduler.New([]scheduler.Job{
			{Spec: a.cfg.ScheduleForecast, Orchestrator: a.orchestrators[pipeline.NameForecast]},
			{Spec: a.cfg.ScheduleConditions, Orchestrator: a.orchestrators[pipeline.NameConditions]},
			{Spec: a.cfg.ScheduleSnotel, Orchestrator: a.orchestrators[pipeline.NameSnotel]},
		}, logger)
		if err != nil {
			return err
		}
		sched.Start()
	}

	api := httpadapter.API{
		Forecasts:  query.NewForecastService(a.store, a.cache, nil),
		Conditions: query.NewConditionsService(a.store, a.cache),
		Snowpack:   query.NewSnowpackService(a.store, a.cache, nil),
		DriveTimes: query.NewDriveTimeService(a.store, a.cache, a.geocoder, logger),
		Token:      a.cfg.APIToken,
	}
	if sched != nil {
		api.Refresher = sched
	}
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.store, api, logger)

	// Start HTTP server.
	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
		logger.Error("http server error", "error", serveErr)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return serveErr
}
