package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/velodash/velodash/cmd/velodash/cli"
	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/analytics/export"
	analytichttp "github.com/velodash/velodash/internal/analytics/http"
	"github.com/velodash/velodash/internal/analytics/ui"
	"github.com/velodash/velodash/internal/app"
	"github.com/velodash/velodash/internal/observability"
	"github.com/velodash/velodash/internal/platform/cache"
	"github.com/velodash/velodash/internal/platform/db"
	"github.com/velodash/velodash/internal/rentals"
	"github.com/velodash/velodash/internal/view"
	"github.com/velodash/velodash/jobs"
	"github.com/velodash/velodash/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCommand(ctx, cfg, logger, os.Args[2:]))
	}

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.Error("open dataset source", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSource()

	store := rentals.NewStore(source, logger)
	snap, err := store.Snapshot(ctx)
	if err != nil {
		logger.Error("initial dataset load", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	metrics.ObserveSnapshot(snap.Table.Len(), snap.LoadedAt)
	if err := analytics.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("register cache metrics", slog.Any("error", err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, serving without result cache", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}
	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	analyticsService := analytics.NewService(store, analyticsCache)

	go followInvalidations(ctx, analyticsCache, store, metrics, logger)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	var (
		pdfService    analytichttp.PDFService
		reportHandler *report.Handler
	)
	if cfg.GotenbergURL != "" {
		reportClient := report.NewClient(cfg.GotenbergURL)
		pdfService = &export.PDFExporter{Renderer: reportClient}
		reportHandler = report.NewHandler(reportClient, logger)
	}

	analyticsHandler := analytichttp.NewHandler(logger, analyticsService, templates, ui.SVGRenderer{}, pdfService, cfg.AdminToken)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, cfg.JobsQueue, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: analyticsHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		Ready:            store.Loaded,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("dataset", snap.Source))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// openSource selects the configured dataset source. The returned func
// releases any connection it holds.
func openSource(ctx context.Context, cfg *app.Config) (rentals.Source, func(), error) {
	if cfg.DatasetSource == app.DatasetSourcePostgres {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, func() {}, err
		}
		return rentals.NewPostgresSource(pool), pool.Close, nil
	}
	return rentals.NewCSVSource(cfg.DatasetPath), func() {}, nil
}

// followInvalidations reloads the local snapshot whenever any process bumps
// the cache version, so every replica serves the same dataset.
func followInvalidations(ctx context.Context, c *analytics.Cache, store *rentals.Store, metrics *observability.Metrics, logger *slog.Logger) {
	for version := range c.Subscribe(ctx) {
		snap, err := store.Reload(ctx)
		if err != nil {
			logger.Warn("reload after cache bump", slog.Int64("version", version), slog.Any("error", err))
			continue
		}
		metrics.ObserveSnapshot(snap.Table.Len(), snap.LoadedAt)
		logger.Info("snapshot refreshed after cache bump", slog.Int64("version", version), slog.String("snapshot", snap.ID.String()))
	}
}

func runJobsCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr, cfg.JobsQueue)
	if err != nil {
		logger.Error("jobs cli", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()
	if err := cli.Run(ctx, jobsCLI, args, os.Stdout); err != nil {
		logger.Error("jobs cli", slog.Any("error", err))
		return 1
	}
	return 0
}
