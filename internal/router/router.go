package router

import (
	"context"
	"time"

	"tookio/internal/config"
	"tookio/internal/handler"
	"tookio/internal/infra"
	"tookio/internal/middleware"
	"tookio/internal/repository"
	"tookio/internal/service"
	"tookio/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the engine layer shared by the HTTP handlers and the worker pool.
type Services struct {
	Catalog   service.CatalogService
	Movements service.MovementService
	Sales     service.SaleService
	Purchases service.PurchaseService
	Reconcile service.ReconcileService
}

// Wire builds repositories and services.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func Wire(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	tx := repository.NewTransactor(db)
	items := repository.NewItemRepository(db)
	ledger := repository.NewLedgerRepository(db)
	history := repository.NewPriceHistoryRepository(db)
	sales := repository.NewSaleRepository(db)
	purchases := repository.NewPurchaseRepository(db)

	// Post-commit reconcile jobs; a nil Redis client turns enqueueing into a no-op
	dispatcher := worker.NewDispatcher(rdb)

	var locker service.KeyLocker
	if rdb != nil {
		locker = infra.NewRedisKeyLocker(rdb, time.Duration(cfg.IdempotencyLockTTLSeconds)*time.Second)
	}

	return &Services{
		Catalog:   service.NewCatalogService(tx, items, ledger, history),
		Movements: service.NewMovementService(tx, items, ledger, dispatcher),
		Sales:     service.NewSaleService(tx, sales, items, ledger, locker, dispatcher),
		Purchases: service.NewPurchaseService(tx, purchases, items, ledger, locker, dispatcher),
		Reconcile: service.NewReconcileService(items, ledger),
	}
}

// New returns a configured Gin engine. ctx bounds background goroutines
// owned by the middleware.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	limiter.StartPurge(ctx)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins(), cfg.IsProduction()))
	r.Use(middleware.ErrorHandler())
	r.Use(limiter.Middleware())

	itemsH := handler.NewItemsHandler(svcs.Catalog)
	movementsH := handler.NewMovementsHandler(svcs.Movements)
	salesH := handler.NewSalesHandler(svcs.Sales)
	purchasesH := handler.NewPurchasesHandler(svcs.Purchases)
	inventoryH := handler.NewInventoryHandler(svcs.Catalog, svcs.Reconcile)

	// Public
	r.GET("/health", handler.Health(db, rdb))

	anyRole := middleware.RequireRole(middleware.RoleStaff, middleware.RoleManager, middleware.RoleOwner)
	managers := middleware.RequireRole(middleware.RoleManager, middleware.RoleOwner)
	owner := middleware.RequireRole(middleware.RoleOwner)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		items := v1.Group("/items")
		{
			items.GET("", anyRole, itemsH.List)
			items.GET("/:id", anyRole, itemsH.Get)
			items.GET("/:id/price-history", anyRole, itemsH.PriceHistory)
			items.GET("/:id/movements", anyRole, movementsH.List)
			items.POST("/:id/movements", managers, movementsH.Record)

			// Catalog writes are owner only
			items.POST("", owner, itemsH.Create)
			items.PUT("/:id", owner, itemsH.Update)
			items.DELETE("/:id", owner, itemsH.Archive)
			items.PATCH("/:id/reactivate", owner, itemsH.Reactivate)
		}

		sales := v1.Group("/sales", anyRole)
		{
			sales.POST("", salesH.Record)
			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
		}
		v1.POST("/sales/:id/void", managers, salesH.Void)

		purchases := v1.Group("/purchases")
		{
			purchases.POST("", managers, purchasesH.Record)
			purchases.GET("", anyRole, purchasesH.List)
			purchases.GET("/:id", anyRole, purchasesH.Get)
		}

		inv := v1.Group("/inventory", anyRole)
		{
			inv.GET("/alerts", inventoryH.Alerts)
			inv.GET("/reconcile", managers, inventoryH.Reconcile)
		}
	}

	// Swagger UI outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
