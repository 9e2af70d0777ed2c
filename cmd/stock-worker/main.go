// stock-worker periodically sweeps the catalog: it alerts admins about
// products running low and tops up products enrolled in auto refill.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oelhadidy/agrovet-backend/internal/catalog"
	"github.com/oelhadidy/agrovet-backend/internal/notifications"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/metrics"
	"github.com/oelhadidy/agrovet-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "stock-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stock-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Repo:     catalog.NewRepository(dbClient.DB()),
		Notifier: notificationsSvc,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.StockWorker.Interval.String(),
	})
	logg.Info(ctx, "starting stock worker")

	ticker := time.NewTicker(cfg.StockWorker.Interval)
	defer ticker.Stop()

	runSweep(ctx, logg, catalogSvc, jobMetrics, cfg.StockWorker.LowStockThreshold)
	for {
		select {
		case <-ctx.Done():
			logg.Info(ctx, "stock worker stopping")
			return
		case <-ticker.C:
			runSweep(ctx, logg, catalogSvc, jobMetrics, cfg.StockWorker.LowStockThreshold)
		}
	}
}

func runSweep(ctx context.Context, logg *logger.Logger, svc catalog.Service, jobMetrics *metrics.JobMetrics, threshold int) {
	runJob(ctx, logg, jobMetrics, "low_stock_scan", func(ctx context.Context) (catalog.ScanReport, error) {
		return svc.LowStockScan(ctx, threshold)
	})
	runJob(ctx, logg, jobMetrics, "auto_refill_scan", func(ctx context.Context) (catalog.ScanReport, error) {
		return svc.AutoRefillScan(ctx)
	})
}

func runJob(ctx context.Context, logg *logger.Logger, jobMetrics *metrics.JobMetrics, name string, fn func(context.Context) (catalog.ScanReport, error)) {
	start := time.Now()
	report, err := fn(ctx)
	jobMetrics.ObserveDuration(name, time.Since(start))

	jobCtx := logg.WithFields(ctx, map[string]any{
		"job":      name,
		"scanned":  report.Scanned,
		"notified": report.Notified,
		"refilled": report.Refilled,
	})
	if err != nil {
		jobMetrics.IncFailure(name)
		logg.Error(jobCtx, "stock sweep finished with errors", err)
		return
	}
	jobMetrics.IncSuccess(name)
	jobMetrics.AddAffected(name, report.Notified+report.Refilled)
	logg.Info(jobCtx, "stock sweep complete")
}
