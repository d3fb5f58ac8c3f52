package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/gcs/crm/internal/application/catalog"
	partnerapp "github.com/gcs/crm/internal/application/partner"
	printingapp "github.com/gcs/crm/internal/application/printing"
	reportapp "github.com/gcs/crm/internal/application/report"
	tradeapp "github.com/gcs/crm/internal/application/trade"
	domainprinting "github.com/gcs/crm/internal/domain/printing"
	"github.com/gcs/crm/internal/infrastructure/cache"
	"github.com/gcs/crm/internal/infrastructure/config"
	"github.com/gcs/crm/internal/infrastructure/event"
	"github.com/gcs/crm/internal/infrastructure/logger"
	"github.com/gcs/crm/internal/infrastructure/persistence"
	"github.com/gcs/crm/internal/infrastructure/printing"
	"github.com/gcs/crm/internal/infrastructure/storage"
	"github.com/gcs/crm/internal/infrastructure/telemetry"
	"github.com/gcs/crm/internal/interfaces/http/handler"
	"github.com/gcs/crm/internal/interfaces/http/middleware"
	"github.com/gcs/crm/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/gcs/crm/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs --v3.1

const version = "1.0.0"

//	@title			GCS CRM API
//	@version		1.0
//	@description	Clients, contacts, products and proforma invoices for GCS.

//	@contact.name	GCS Engineering

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("Failed to read .env: " + err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Log export over OTLP is teed with the console core
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log, err := logger.NewWithCores(logCfg,
		telemetry.NewZapOTELCore(logProvider, logger.ParseLevel(cfg.Telemetry.LogsLevel)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting GCS CRM",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profilerCfg := telemetry.ProfilerConfig{}
	if cfg.Telemetry.ProfilingEnabled {
		profilerCfg = telemetry.DefaultProfilerConfig(cfg.Telemetry.PyroscopeAddress, cfg.Telemetry.ServiceName)
	}
	profiler, err := telemetry.NewProfiler(profilerCfg, log)
	if err == nil && profiler.IsEnabled() && tracerProvider.IsEnabled() {
		err = tracerProvider.EnableSpanProfiles()
	}
	if err != nil {
		log.Fatal("Failed to initialize profiling", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to access sql.DB", zap.Error(err))
		}
		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("gcs-crm/db"), sqlDB, cfg.Telemetry.DBSlowQueryThresh)
		if err != nil {
			log.Fatal("Failed to create database metrics", zap.Error(err))
		}
		if err := dbMetrics.Register(db.DB); err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
		defer func() { _ = dbMetrics.Stop() }()
	}
	log.Info("Database connected successfully")

	// Repositories
	clientRepo := persistence.NewGormClientRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	invoiceRepo := persistence.NewGormProformaInvoiceRepository(db.DB)

	// Cache and idempotency stores
	stores, err := cache.NewStoresFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to create cache stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	// Document archive
	archive, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	if s3, ok := archive.(*storage.S3Storage); ok {
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare document bucket", zap.Error(err))
		}
	}

	// PDF rendering
	renderer, err := printing.NewRenderer(cfg.Printing, log)
	if err != nil {
		log.Warn("PDF renderer unavailable, invoice PDFs fall back to HTML", zap.Error(err))
		renderer = printing.DisabledRenderer{}
	}
	defer func() { _ = renderer.Close() }()
	templates, err := printing.NewTemplateEngine(printing.WithCompanyName(cfg.Printing.CompanyName))
	if err != nil {
		log.Fatal("Failed to load invoice template", zap.Error(err))
	}
	page, err := domainprinting.NewPageSetup(cfg.Printing.PaperSize, cfg.Printing.Landscape)
	if err != nil {
		log.Warn("Invalid paper settings, using A4 portrait", zap.Error(err))
		page = domainprinting.DefaultPageSetup()
	}

	// Application services
	clientService := partnerapp.NewClientService(clientRepo, contactRepo, invoiceRepo, log)
	contactService := partnerapp.NewContactService(contactRepo, clientRepo, log)
	productService := catalogapp.NewProductService(productRepo, log)
	invoiceService := tradeapp.NewProformaInvoiceService(invoiceRepo, clientRepo, productRepo, tradeapp.InvoiceSettings{
		NumberPrefix:   cfg.Invoice.NumberPrefix,
		DefaultTaxRate: decimal.NewFromFloat(cfg.Invoice.DefaultTaxRate),
		ValidityDays:   cfg.Invoice.ValidityDays,
	}, log)
	dashboardService := reportapp.NewDashboardService(clientRepo, productRepo, invoiceRepo,
		stores.Cache, cfg.Redis.DashboardTTL, log)

	invoiceMetrics, err := telemetry.NewInvoiceMetrics(telemetry.InvoiceMetricsConfig{
		Meter:  meterProvider.Meter("gcs-crm/invoices"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create invoice metrics", zap.Error(err))
	}
	defer invoiceMetrics.Stop()
	invoiceService.SetConflictRecorder(invoiceMetrics)

	documentService := printingapp.NewDocumentService(invoiceRepo, clientRepo, contactRepo, templates, renderer, log,
		printingapp.WithArchive(archive),
		printingapp.WithPageSetup(page),
		printingapp.WithRenderRecorder(invoiceMetrics),
	)

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	dashboardInvalidation := cache.NewInvalidationHandler(stores.Cache,
		[]string{reportapp.DashboardCacheKey}, reportapp.DashboardInvalidatingEvents, log)
	archiveCleanup := printingapp.NewArchiveCleanupHandler(archive, log)
	eventBus.Subscribe(dashboardInvalidation)
	eventBus.Subscribe(archiveCleanup)
	eventBus.Subscribe(invoiceMetrics)
	log.Info("Event handlers registered",
		zap.Strings("dashboard_invalidation_events", dashboardInvalidation.EventTypes()),
		zap.Strings("archive_cleanup_events", archiveCleanup.EventTypes()),
		zap.Strings("invoice_metrics_events", invoiceMetrics.EventTypes()),
	)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	clientService.SetEventPublisher(eventBus)
	productService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)

	if meterProvider.IsEnabled() {
		invoiceMetrics.StartPeriodicCollection(ctx, dashboardService, cfg.Telemetry.MetricsInterval)
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	tracingCfg.Enabled = cfg.Telemetry.Enabled

	// Request id first so logs and spans carry it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(tracingCfg))
	engine.Use(middleware.RequestIDSpanAttribute())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(telemetry.ProfilingMiddleware())
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("gcs-crm/http")))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimit),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", handler.NewHealthHandler(db, version, log).Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.Idempotency(stores.Idempotency, cfg.Redis.IdempotencyTTL, log))
	router.RegisterCRM(r, router.Handlers{
		Dashboard:        handler.NewDashboardHandler(dashboardService),
		Clients:          handler.NewClientHandler(clientService),
		Contacts:         handler.NewContactHandler(contactService),
		Products:         handler.NewProductHandler(productService),
		ProformaInvoices: handler.NewProformaInvoiceHandler(invoiceService, documentService),
	}).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush telemetry after the last request has been served
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
