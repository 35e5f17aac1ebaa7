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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/loan-manager/internal/cache"
	"github.com/segyhp/loan-manager/internal/config"
	"github.com/segyhp/loan-manager/internal/handler"
	"github.com/segyhp/loan-manager/internal/metrics"
	"github.com/segyhp/loan-manager/internal/repository"
	"github.com/segyhp/loan-manager/internal/schedule"
	"github.com/segyhp/loan-manager/internal/service"
	"github.com/segyhp/loan-manager/pkg/logging"
	"github.com/segyhp/loan-manager/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// Initialize database
	db, err := repository.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("Failed to initialize database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Redis
	var (
		dashboardCache *cache.DashboardCache
		cachePinger    handler.Pinger
	)
	if cfg.RedisEnabled() {
		redisClient := initRedis(cfg)
		defer redisClient.Close()

		dashboardCache = cache.NewDashboardCache(redisClient, cfg.Redis.CacheTTL)
		cachePinger = dashboardCache
	} else {
		logger.Info("Redis not configured, dashboard cache disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := schedule.New(cfg.Business.CurrencyPrecision)
	clock := service.SystemClock(cfg.Location())

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize services
	clientService := service.NewClientService(clientRepo, clock)
	loanService := service.NewLoanService(loanRepo, paymentRepo, clientRepo, engine, dashboardCache, m, clock)
	paymentService := service.NewPaymentService(paymentRepo, engine, dashboardCache, m)
	dashboardService := service.NewDashboardService(loanRepo, paymentRepo, clientRepo, engine, dashboardCache, m, clock, cfg.Business.UpcomingWindowDays)
	reportService := service.NewReportService(loanRepo, paymentRepo, clientRepo, engine)

	validate := handler.NewValidator()
	router := handler.NewRouter(handler.Handlers{
		Health:    handler.NewHealthHandler(db, cachePinger, cfg.Health.Timeout),
		Clients:   handler.NewClientHandler(clientService, loanService, validate),
		Loans:     handler.NewLoanHandler(loanService, reportService, validate),
		Payments:  handler.NewPaymentHandler(paymentService, validate),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Reports:   handler.NewReportHandler(reportService),
		Metrics:   m,
	})

	// Start server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      response.CORSMiddleware(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", "addr", server.Addr, "env", cfg.Server.Env, "database", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return
	}

	logger.Info("Server exited")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
