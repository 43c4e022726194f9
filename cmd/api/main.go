package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/cache"
	"github.com/GTDGit/catalog_import/internal/config"
	"github.com/GTDGit/catalog_import/internal/database"
	"github.com/GTDGit/catalog_import/internal/handler"
	"github.com/GTDGit/catalog_import/internal/middleware"
	"github.com/GTDGit/catalog_import/internal/repository"
	"github.com/GTDGit/catalog_import/internal/service"
	"github.com/GTDGit/catalog_import/internal/sse"
	"github.com/GTDGit/catalog_import/internal/worker"
	"github.com/GTDGit/catalog_import/pkg/evershop"
	"github.com/GTDGit/catalog_import/pkg/printify"
)

// main is the entrypoint of the catalog import service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog import")
	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("imports will fail until configuration is complete")
	}

	// 3. Context cancelled on SIGINT/SIGTERM; runs and workers live under it
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Connect to the store database and apply the bookkeeping schema
	db, err := database.Connect(ctx, &cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	if err := database.Migrate(db, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations completed")

	// 5. Locks: Redis when configured so several importers can share a store
	healthChecks := map[string]handler.HealthCheck{"database": db.PingContext}
	var locker cache.Locker = cache.NewLocalLocker()
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient, "catalog_import:", cfg.Import.LockTTL)
		healthChecks["redis"] = redisClient.Ping
		log.Info().Msg("redis connected, using distributed locks")
	} else {
		log.Info().Msg("REDIS_HOST not set, using in-process locks")
	}

	// 6. Remote clients
	debug := cfg.Env != "production"
	printifyClient := printify.NewClient(printify.Config{
		BaseURL:   cfg.Printify.BaseURL,
		APIKey:    cfg.Printify.APIKey,
		ShopID:    cfg.Printify.ShopID,
		RateLimit: cfg.Printify.RateLimit,
		Debug:     debug,
	})
	storeClient := evershop.NewClient(evershop.Config{
		BaseURL:     cfg.Store.BaseURL,
		GraphQLPath: cfg.Store.GraphQLPath,
		APIToken:    cfg.Store.APIToken,
		RateLimit:   cfg.Store.RateLimit,
		Timeout:     cfg.Store.Timeout,
		Debug:       debug,
	})

	// 7. Repositories
	runRepo := repository.NewImportRunRepository(db)
	bindingRepo := repository.NewVariantGroupBindingRepository(db)
	submittedRepo := repository.NewSubmittedVariantRepository(db)
	orderRepo := repository.NewStoreOrderRepository(db)
	imageRepo := repository.NewProductImageRepository(db)

	// 8. Services
	catalog := service.NewPrintifyCatalog(printifyClient)
	store := service.NewEverShopStore(storeClient)
	hub := sse.NewHub()
	retry := service.RetryPolicy{Attempts: cfg.Import.RetryAttempts, Base: cfg.Import.RetryBase}

	importSvc := service.NewImportService(ctx, service.ImportServiceDeps{
		Catalog:     catalog,
		Reconciler:  service.NewReconciler(store, locker, retry, cfg.Attribute),
		Binder:      service.NewVariantGroupBinder(store, bindingRepo, submittedRepo, locker),
		Products:    store,
		Memberships: store,
		Runs:        runRepo,
		Submitted:   submittedRepo,
		RunLocker:   locker,
		RunLockKey:  cfg.Printify.ShopID,
		Retry:       retry,
		Concurrency: cfg.Import.Concurrency,
		Validate:    cfg.Validate,
		Notifier:    sse.NewHubNotifier(hub),
	})
	groupSvc := service.NewGroupService(store)
	productSvc := service.NewProductAdminService(store, submittedRepo)
	catalogSvc := service.NewCatalogService(catalog, store)
	orderSvc := service.NewOrderService(orderRepo, printifyClient)
	imageSvc := service.NewImageService(imageRepo)

	// 9. Handlers
	handlers := &Handlers{
		Health:         handler.NewHealthHandler(healthChecks),
		Import:         handler.NewImportHandler(importSvc),
		AttributeGroup: handler.NewAttributeGroupHandler(groupSvc),
		Product:        handler.NewProductHandler(productSvc),
		Catalog:        handler.NewCatalogHandler(catalogSvc),
		Webhook:        handler.NewWebhookHandler(orderSvc, imageSvc),
		SSE:            handler.NewSSEHandler(hub),
	}

	// 10. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, middleware.NewClientRateLimiter(ctx, cfg.APIRateLimit, 20))

	// 11. Start workers
	go worker.NewImportWorker(importSvc, cfg.Import.Interval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// 14. Shutdown HTTP server with timeout; in-flight products finish on their own
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health         *handler.HealthHandler
	Import         *handler.ImportHandler
	AttributeGroup *handler.AttributeGroupHandler
	Product        *handler.ProductHandler
	Catalog        *handler.CatalogHandler
	Webhook        *handler.WebhookHandler
	SSE            *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, limiter *middleware.ClientRateLimiter) {
	// Store event webhooks
	router.POST("/webhook/order-placed", handlers.Webhook.HandleOrderPlaced)
	router.POST("/webhook/product-image-added", handlers.Webhook.HandleProductImageAdded)

	router.GET("/v1/health", handlers.Health.GetHealth)

	v1 := router.Group("/v1")
	v1.Use(limiter.Handle())
	{
		// Import runs
		v1.POST("/imports", handlers.Import.StartImport)
		v1.GET("/imports", handlers.Import.ListImports)
		v1.GET("/imports/events", handlers.SSE.Stream)
		v1.GET("/imports/:id", handlers.Import.GetImport)

		// Attribute groups
		v1.GET("/attribute-groups", handlers.AttributeGroup.ListGroups)
		v1.POST("/attribute-groups", handlers.AttributeGroup.CreateGroup)
		v1.PATCH("/attribute-groups/:uuid", handlers.AttributeGroup.RenameGroup)
		v1.DELETE("/attribute-groups/:uuid", handlers.AttributeGroup.DeleteGroup)

		// Store products and catalog
		v1.POST("/products/bulk-delete", handlers.Product.BulkDelete)
		v1.GET("/categories", handlers.Catalog.ListCategories)
		v1.GET("/catalog/products", handlers.Catalog.PreviewProducts)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
