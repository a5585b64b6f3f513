package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbilling "github.com/hostpanel/backend/internal/application/billing"
	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/infrastructure/auth"
	"github.com/hostpanel/backend/internal/infrastructure/cache"
	"github.com/hostpanel/backend/internal/infrastructure/config"
	"github.com/hostpanel/backend/internal/infrastructure/logger"
	"github.com/hostpanel/backend/internal/infrastructure/persistence"
	"github.com/hostpanel/backend/internal/infrastructure/scheduler"
	"github.com/hostpanel/backend/internal/infrastructure/telemetry"
	"github.com/hostpanel/backend/internal/interfaces/http/handler"
	"github.com/hostpanel/backend/internal/interfaces/http/middleware"
	"github.com/hostpanel/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting HostPanel Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the plan pricing cache. The cache degrades to direct
	// database reads when Redis is unreachable, so a failed ping is a
	// warning, not a fatal error.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, plan cache disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
		cancel()
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}
	}()

	// OpenTelemetry providers. When telemetry is disabled both resolve to
	// no-op implementations and every instrument call is free.
	ctx := context.Background()
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	billingMetrics, err := telemetry.NewBillingMetrics(meterProvider.Meter("hostpanel.billing"), log)
	if err != nil {
		log.Fatal("Failed to initialize billing metrics", zap.Error(err))
	}

	// Initialize repositories
	vmRepo := persistence.NewGormVirtualMachineRepository(db.DB)
	appRepo := persistence.NewGormManagedAppRepository(db.DB)
	addonRepo := persistence.NewGormAddOnSubscriptionRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	walletGateway := persistence.NewGormWalletGateway(db.DB)
	paymentLookup := persistence.NewGormPaymentLookup(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	txScope := persistence.NewGormBillingTransactionScope(db.DB)
	schemaGuard := persistence.NewGormSchemaGuard(db.DB)

	// Plan pricing cache in front of the catalog repository
	cachedPlans := cache.NewCachedPlanRepository(planRepo, redisClient, cfg.Billing.PlanCacheTTL, log)

	// Initialize application services
	rateResolver := appbilling.NewRateResolver(cachedPlans, cfg.Billing.FallbackHourlyRate, log)
	executor := appbilling.NewExecutor(txScope, walletGateway, paymentLookup, rateResolver, log, nil)
	sweepService := appbilling.NewSweepService(
		executor,
		[]billing.ResourceSource{vmRepo, appRepo, addonRepo},
		schemaGuard,
		billingMetrics,
		log,
		nil,
		appbilling.SweepServiceConfig{Workers: cfg.Billing.SweepWorkers},
	)
	lifecycleService := appbilling.NewLifecycleService(
		txScope,
		walletGateway,
		paymentLookup,
		rateResolver,
		map[billing.ResourceKind]billing.CheckpointStamper{
			billing.KindVirtualMachine:    vmRepo,
			billing.KindManagedApp:        appRepo,
			billing.KindAddOnSubscription: addonRepo,
		},
		log,
		nil,
	)

	// Start the periodic sweep scheduler
	sweepScheduler := scheduler.NewBillingSweepScheduler(sweepService, log, scheduler.BillingSweepSchedulerConfig{
		Enabled:      cfg.Billing.SchedulerEnabled,
		Interval:     cfg.Billing.SweepInterval,
		SweepTimeout: 30 * time.Minute,
	})
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sweep scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sweepScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping sweep scheduler", zap.Error(err))
		}
	}()
	if cfg.Billing.SchedulerEnabled {
		log.Info("Sweep scheduler started",
			zap.Duration("interval", cfg.Billing.SweepInterval),
			zap.Int("workers", cfg.Billing.SweepWorkers),
		)
	}

	// Service token auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so panics and request logs carry it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Health endpoints bypass the versioned API group and its auth
	systemHandler := handler.NewSystemHandler(db)
	systemHandler.RegisterRoutes(engine)

	// Billing API behind JWT auth with per-route scopes
	billingHandler := handler.NewBillingHandler(sweepService, lifecycleService, ledgerRepo).
		WithScopeGuards(handler.ScopeGuards{
			Admin: middleware.RequireScope(auth.ScopeBillingAdmin),
			Hooks: middleware.RequireScope(auth.ScopeBillingHooks),
			Read:  middleware.RequireScope(auth.ScopeBillingRead),
		})

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(middleware.JWTAuthMiddleware(jwtService)),
	)
	r.Register(billingHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
