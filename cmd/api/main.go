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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http"
	mw "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/scheduler"
	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/postgres"
	rediscache "github.com/lorrc/service-desk-analytics/internal/adapters/secondary/redis"
	"github.com/lorrc/service-desk-analytics/internal/auth"
	"github.com/lorrc/service-desk-analytics/internal/config"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/logging"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logConfig := logging.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.Format = cfg.Logging.Format
	if cfg.App.Name != "" {
		logConfig.ServiceName = cfg.App.Name
	}
	if cfg.App.Environment != "" {
		logConfig.Environment = cfg.App.Environment
	}
	logger := logging.NewLogger(logConfig)
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	location, err := cfg.Stats.Location()
	if err != nil {
		logger.Error("invalid stats timezone", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Metrics & Report Cache
	registry := metrics.NewRegistry()

	var reportCache ports.ReportCache
	var cacheHealth httpAdapter.HealthChecker
	if cfg.Redis.Enabled {
		cache, err := rediscache.New(ctx, rediscache.Options{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		}, registry.Cache())
		if err != nil {
			// Reports are served straight from the store without the cache.
			logger.Warn("report cache unavailable, continuing without it", "error", err)
		} else {
			defer cache.Close()
			reportCache = cache
			cacheHealth = cache
			logger.Info("report cache connected", "address", cfg.Redis.Address)
		}
	}

	// 5. Dependency Injection (Wiring the Hexagon)
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	txManager := postgres.NewTransactionManager(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	timelineRepo := postgres.NewTimelineRepository(pool)
	statsRepo := postgres.NewStatsRepository(pool, txManager)
	authzRepo := postgres.NewAuthorizationRepository(pool)

	// Services (Core)
	authzService := services.NewAuthorizationService(authzRepo)
	statsService := services.NewStatsService(services.StatsDeps{
		Tickets:  ticketRepo,
		Timeline: timelineRepo,
		Stats:    statsRepo,
		Authz:    authzService,
		Cache:    reportCache,
		Metrics:  registry.Stats(),
		Logger:   logger,
	}, services.StatsOptions{
		PageSize:         cfg.Stats.PageSize,
		BatchSize:        cfg.Stats.BatchSize,
		Concurrency:      cfg.Stats.Concurrency,
		SweepRate:        cfg.Stats.SweepRate,
		MaxBuckets:       cfg.Stats.MaxBuckets,
		RecomputeTimeout: cfg.Stats.RecomputeTimeout,
		Epoch:            cfg.Stats.Epoch,
		Location:         location,
	})

	// Handlers (Primary Adapters)
	statsHandler := httpAdapter.NewStatsHandler(statsService, errorHandler, logger, location)
	meHandler := httpAdapter.NewMeHandler(authzService, errorHandler, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cacheHealth, cfg.App.Version)

	// 6. Scheduler
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	schedulerDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(
			scheduler.WithLogger(logger),
			scheduler.WithLocation(location),
			scheduler.WithJobTimeout(cfg.Scheduler.JobTimeout),
		)
		for _, job := range scheduler.StatsJobs(statsService, cfg.Scheduler.DailyRollupSpec, cfg.Scheduler.SweepSpec) {
			if err := sched.Add(job); err != nil {
				logger.Error("failed to schedule job", "job", job.Name, "error", err)
				os.Exit(1)
			}
		}
		go func() {
			defer close(schedulerDone)
			_ = sched.Run(jobCtx)
		}()
	} else {
		close(schedulerDone)
	}

	// 7. Initialize Rate Limiters
	var generalRateLimiter *mw.RateLimiter
	var recomputeRateLimiter *mw.RateLimitByKey
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		recomputeRateLimiter = mw.NewRateLimitByKey(cfg.RateLimit.RecomputeRPS, cfg.RateLimit.RecomputeBurst)
	}

	// 8. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	if cfg.Metrics.Enabled {
		r.Use(mw.Metrics(registry))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check and metrics endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, registry.Handler())
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Route("/me", meHandler.RegisterRoutes)
			r.Route("/stats", func(r chi.Router) {
				if recomputeRateLimiter != nil {
					r.Use(recomputeRateLimiter.WritesMiddleware)
				}
				statsHandler.RegisterRoutes(r)
			})
		})
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown: stop taking requests, then stop the scheduler and
	// wait for background recomputes.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	stopJobs()
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before the shutdown deadline")
	}

	if err := statsService.Shutdown(shutdownCtx); err != nil {
		logger.Error("background jobs did not finish", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
