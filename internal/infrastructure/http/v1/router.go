// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	tenantid "stockledger/internal/core/tenant"
	"stockledger/internal/domain/alert"
	"stockledger/internal/domain/customer"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/purchase"
	"stockledger/internal/domain/reports"
	"stockledger/internal/domain/sales"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
	"stockledger/pkg/numerator"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger
}

// auditorAdapter narrows AuditService to the coordinator's Auditor interface.
type auditorAdapter struct {
	svc *postgres.AuditService
}

func (a auditorAdapter) LogChange(ctx context.Context, tenantID tenantid.ID, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return a.svc.LogChange(ctx, tenantID, entityType, entityID, postgres.AuditAction(action), changes)
}

// NewRouter creates and configures the Gin router, wiring the full stack
// from pool to handlers.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	txManager := postgres.NewTxManager(cfg.Pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		return nil, err
	}

	// Repositories
	itemRepo := postgres.NewInventoryRepo(txManager)
	entryRepo := postgres.NewLedgerRepo(txManager)
	customerRepo := postgres.NewCustomerRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	purchaseRepo := postgres.NewPurchaseRepo(txManager)
	notificationRepo := postgres.NewNotificationRepo(txManager)
	reportRepo := postgres.NewReportRepo(txManager)

	// Numbers are allocated on the document's own transaction.
	num := numerator.New(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	// Domain services
	emitter := alert.NewEmitter(notificationRepo)
	customerService := customer.NewService(customerRepo)
	coordinator := ledger.NewCoordinator(
		txManager,
		itemRepo,
		entryRepo,
		emitter,
		customerService,
		auditorAdapter{svc: auditService},
	)
	inventoryService := inventory.NewService(itemRepo, coordinator, txManager)
	salesService := sales.NewService(saleRepo, coordinator, customerService, num, txManager)
	purchaseService := purchase.NewService(purchaseRepo, coordinator, num, txManager)
	reportsService := reports.NewService(reportRepo, entryRepo, txManager)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no tenant required
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	inventoryHandler := handlers.NewInventoryHandler(base, inventoryService, reportsService)
	salesHandler := handlers.NewSalesHandler(base, salesService)
	purchaseHandler := handlers.NewPurchaseHandler(base, purchaseService)
	customerHandler := handlers.NewCustomerHandler(base, customerService)
	notificationHandler := handlers.NewNotificationHandler(base, notificationRepo)
	reportsHandler := handlers.NewReportsHandler(base, reportsService)
	adminHandler := handlers.NewAdminHandler(base, auditService, num)

	api := router.Group("/api/v1")
	api.Use(middleware.Tenant())
	{
		items := api.Group("/items")
		{
			items.GET("", inventoryHandler.List)
			items.POST("", inventoryHandler.Create)
			items.GET("/:id", inventoryHandler.Get)
			items.GET("/:id/movements", inventoryHandler.Movements)
			items.POST("/:id/internal-use", inventoryHandler.RecordInternalUse)
			items.POST("/:id/adjustments", inventoryHandler.RecordAdjustment)
			items.PUT("/:id/override", inventoryHandler.SetOverride)
			items.DELETE("/:id/override", inventoryHandler.ClearOverride)
		}

		api.DELETE("/ledger/:id", inventoryHandler.DeleteEntry)

		salesGroup := api.Group("/sales")
		{
			salesGroup.GET("", salesHandler.List)
			salesGroup.POST("", salesHandler.Create)
			salesGroup.GET("/:id", salesHandler.Get)
			salesGroup.DELETE("/:id", salesHandler.Delete)
			salesGroup.POST("/:id/payments", salesHandler.RecordPayment)
			salesGroup.POST("/:id/returns", salesHandler.ProcessReturn)
		}

		orders := api.Group("/purchase-orders")
		{
			orders.GET("", purchaseHandler.List)
			orders.POST("", purchaseHandler.Create)
			orders.GET("/:id", purchaseHandler.Get)
			orders.PUT("/:id/status", purchaseHandler.SetStatus)
		}

		customers := api.Group("/customers")
		{
			customers.GET("", customerHandler.List)
			customers.POST("", customerHandler.Create)
			customers.GET("/:id", customerHandler.Get)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListUnread)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		reportsGroup := api.Group("/reports")
		{
			reportsGroup.GET("/stock-summary", reportsHandler.StockSummary)
			reportsGroup.GET("/adjustments", reportsHandler.AdjustmentTotals)
			reportsGroup.GET("/sales", reportsHandler.SalesTotals)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/audit/:entityType/:id", adminHandler.EntityHistory)
			admin.PUT("/sequences/:key", adminHandler.SetSequence)
		}
	}

	return router, nil
}
