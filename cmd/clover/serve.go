package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/internal/repositories/runsnapshot"
	"github.com/Ramsey-B/clover/internal/runner"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/runs"
)

const version = "1.0.0"

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.cfg.DatabaseHost == "" {
				return errors.New("serve requires DB_HOST for run snapshots")
			}

			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.close(context.WithoutCancel(ctx)) }()

			p, err := a.newPipeline(s)
			if err != nil {
				return err
			}

			store := runsnapshot.NewRepository(s.db, a.logger)

			checker := health.NewChecker(version)
			checker.AddCheck("database", s.db.PingContext)
			checker.SetLastRun(func(ctx context.Context) (*models.RunSummary, error) {
				latest, err := store.List(ctx, 1)
				if err != nil || len(latest) == 0 {
					return nil, err
				}
				return &latest[0], nil
			})
			var clusters runs.ClusterReader
			if s.graph != nil {
				checker.AddOptionalCheck("graph", s.graph.VerifyConnectivity)
				clusters = graph.NewExporter(s.graph, a.logger, a.cfg.GraphDBBatchSize)
			}
			if s.redis != nil {
				checker.AddCheck("redis", s.redis.Ping)
			}

			e := echo.New()
			e.HideBanner = true
			e.HTTPErrorHandler = middleware.Error(a.logger)
			e.Use(otelecho.Middleware(a.cfg.AppName))
			e.Use(middleware.Context())
			e.Use(middleware.Logger(a.logger))
			checker.RegisterRoutes(e)
			metrics.RegisterRoutes(e)

			r := runner.New(p, runner.FromPaths(a.cfg.Tables()), a.cfg.RunOptions(), a.logger)
			runs.NewHandler(r, store, clusters, a.logger).Register(e.Group("/api/v1/runs"))

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", a.cfg.Port),
				Handler:      e,
				ReadTimeout:  time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				a.logger.Infof("Listening on %s", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()
			checker.SetReady(true)

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
