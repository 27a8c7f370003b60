package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appinvoice "github.com/facturas/backend/internal/application/invoice"
	"github.com/facturas/backend/internal/infrastructure/cache"
	"github.com/facturas/backend/internal/infrastructure/catalog"
	"github.com/facturas/backend/internal/infrastructure/config"
	"github.com/facturas/backend/internal/infrastructure/directory"
	"github.com/facturas/backend/internal/infrastructure/logger"
	"github.com/facturas/backend/internal/infrastructure/notify"
	"github.com/facturas/backend/internal/infrastructure/persistence"
	"github.com/facturas/backend/internal/infrastructure/storage"
	"github.com/facturas/backend/internal/infrastructure/telemetry"
	"github.com/facturas/backend/internal/interfaces/http/handler"
	"github.com/facturas/backend/internal/interfaces/http/middleware"
	"github.com/facturas/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
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
		_ = log.Sync()
	}()

	log.Info("Starting Facturas Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize tracing
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Optional directory snapshot cache
	var snapshotCache directory.SnapshotCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisSnapshotCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.Warn("Redis unavailable, running without directory cache", zap.Error(err))
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Error("Error closing redis client", zap.Error(err))
				}
			}()
			snapshotCache = redisCache
			log.Info("Directory snapshot cache enabled", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// Directory lookups for invoice assembly
	directoryClient := directory.NewClient(directory.Config{
		UserServiceURL:    cfg.Directory.UserServiceURL,
		ProductServiceURL: cfg.Directory.ProductServiceURL,
		Timeout:           cfg.Directory.Timeout,
		CacheTTL:          cfg.Directory.CacheTTL,
	}, snapshotCache, log)

	// Primary store
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)

	// Optional archive store
	var archiveStore appinvoice.ArchiveStore
	if cfg.Archive.Enabled {
		s3Store, err := storage.NewS3ArchiveStore(&cfg.Archive, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize archive store", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Warn("Archive bucket check failed, archival may degrade", zap.Error(err))
		}
		cancel()
		archiveStore = s3Store
		log.Info("Invoice archival enabled", zap.String("bucket", cfg.Archive.Bucket))
	}

	// Optional partition catalog, only meaningful alongside the archive
	var partitionCatalog appinvoice.PartitionCatalog
	if cfg.Catalog.Enabled {
		partitionCatalog = catalog.NewGormPartitionCatalog(db.DB, log)
	}

	// Optional downstream notification
	var notifier appinvoice.TaskNotifier
	if cfg.Notifier.Enabled {
		notifier = notify.NewWebhookNotifier(cfg.Notifier.URL, cfg.Notifier.Timeout, log)
	}

	// Application services
	coordinator := appinvoice.NewCoordinator(invoiceRepo, archiveStore, partitionCatalog, notifier, log)
	policy, err := appinvoice.ParseResolutionPolicy(cfg.Invoice.ResolutionPolicy)
	if err != nil {
		log.Fatal("Invalid resolution policy", zap.Error(err))
	}
	invoiceService := appinvoice.NewInvoiceService(invoiceRepo, directoryClient, coordinator, policy, log)
	log.Info("Invoice service initialized", zap.String("resolution_policy", string(policy)))

	// HTTP interface
	r := router.New(router.Config{
		Logger: log,
		CORS: middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
			MaxAge:       12 * time.Hour,
		},
		MaxBodyBytes:   cfg.HTTP.MaxBodySize,
		TracingEnabled: tp.IsEnabled(),
		ServiceName:    cfg.Telemetry.ServiceName,
	}, handler.NewSystemHandler(db))
	r.Register(handler.NewInvoiceHandler(invoiceService))
	r.Setup()

	engine := r.Engine()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
