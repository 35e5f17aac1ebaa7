package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/segyhp/loan-manager/internal/cache"
	"github.com/segyhp/loan-manager/internal/config"
	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
	"github.com/segyhp/loan-manager/internal/service"
	"github.com/segyhp/loan-manager/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting loan scheduler...", "timezone", cfg.Location().String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to initialize database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Status changes must drop the owners' cached dashboards.
	var dashboardCache *cache.DashboardCache
	if cfg.RedisEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		dashboardCache = cache.NewDashboardCache(redisClient, cfg.Redis.CacheTTL)
	}

	m := metrics.New(prometheus.NewRegistry())
	if cfg.Scheduler.MetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.Scheduler.MetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics listener failed", "addr", metricsServer.Addr, "error", err)
			}
		}()
		defer metricsServer.Close()
	}

	sweeper := service.NewStatusSweeper(
		repository.NewLoanRepository(db),
		repository.NewPaymentRepository(db),
		schedule.New(cfg.Business.CurrencyPrecision),
		dashboardCache,
		m,
		service.SystemClock(cfg.Location()),
		cfg.Business.DelinquencyThreshold,
	)

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if err := setupCronJobs(ctx, c, cfg, sweeper); err != nil {
		logger.Error("Error scheduling jobs", "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("Scheduler started successfully")

	<-ctx.Done()

	logger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	logger.Info("Scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, sweeper *service.StatusSweeper) error {
	// Re-derive every open loan and flag delinquency
	if _, err := c.AddFunc(cfg.Scheduler.SweepCron, func() {
		if _, err := sweeper.Sweep(ctx); err != nil {
			slog.Error("Status sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	// Log the installments coming due
	if _, err := c.AddFunc(cfg.Scheduler.ReminderCron, func() {
		if _, err := sweeper.Reminders(ctx, cfg.Scheduler.ReminderDays); err != nil {
			slog.Error("Payment reminders failed", "error", err)
		}
	}); err != nil {
		return err
	}

	slog.Info("Cron jobs scheduled",
		"sweep", cfg.Scheduler.SweepCron,
		"reminders", cfg.Scheduler.ReminderCron,
	)
	return nil
}
