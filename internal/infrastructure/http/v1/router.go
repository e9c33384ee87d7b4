// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/domain/catalogs/product"
	"backoffice/internal/domain/documents/purchase"
	"backoffice/internal/domain/documents/sale"
	"backoffice/internal/domain/registers/cashflow"
	"backoffice/internal/domain/registers/stock"
	"backoffice/internal/infrastructure/http/v1/handlers"
	"backoffice/internal/infrastructure/http/v1/middleware"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// RouterConfig holds the wired services the router mounts.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	Products       *product.Service
	Counterparties *counterparty.Service
	Stock          *stock.Service
	Cashflow       *cashflow.Service

	Sales      *sale.Service
	QuickSales *sale.Service
	Purchases  *purchase.Service
}

// documentRouteHandler is the shared surface of document handlers.
type documentRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	ListRecent(c *gin.Context)
	ListPending(c *gin.Context)
	ListByCounterparty(c *gin.Context)
	ListWithItems(c *gin.Context)
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		catalogs := api.Group("/catalogs")
		{
			productHandler := handlers.NewProductHandler(base, cfg.Products)
			products := catalogs.Group("/products")
			{
				products.GET("", productHandler.List)
				products.POST("", productHandler.Create)
				products.GET("/:id", productHandler.Get)
				products.PUT("/:id", productHandler.Update)
				products.DELETE("/:id", productHandler.Delete)
				products.POST("/:id/restore", productHandler.Restore)
				products.GET("/:id/cost-history", productHandler.CostHistory)
			}

			registerCounterpartyRoutes(catalogs.Group("/clients"),
				handlers.NewCounterpartyHandler(base, cfg.Counterparties, counterparty.KindClient))
			registerCounterpartyRoutes(catalogs.Group("/providers"),
				handlers.NewCounterpartyHandler(base, cfg.Counterparties, counterparty.KindProvider))
		}

		documents := api.Group("/documents")
		{
			registerDocumentRoutes(documents.Group("/sales"),
				handlers.NewSaleHandler(base, cfg.Sales))
			registerDocumentRoutes(documents.Group("/quick-sales"),
				handlers.NewSaleHandler(base, cfg.QuickSales))
			registerDocumentRoutes(documents.Group("/purchases"),
				handlers.NewPurchaseHandler(base, cfg.Purchases))
		}

		registers := api.Group("/registers")
		{
			stockHandler := handlers.NewStockHandler(base, cfg.Stock)
			stockGroup := registers.Group("/stock")
			{
				stockGroup.GET("", stockHandler.List)
				stockGroup.GET("/low", stockHandler.ListLow)
				stockGroup.GET("/:id", stockHandler.OnHand)
			}

			cashflowHandler := handlers.NewCashflowHandler(base, cfg.Cashflow)
			cashGroup := registers.Group("/cash-movements")
			{
				cashGroup.GET("", cashflowHandler.List)
				cashGroup.POST("", cashflowHandler.CreateManual)
				cashGroup.DELETE("/:id", cashflowHandler.DeleteManual)
			}
		}
	}

	return router
}

func registerCounterpartyRoutes(group *gin.RouterGroup, handler *handlers.CounterpartyHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/restore", handler.Restore)
}

func registerDocumentRoutes(group *gin.RouterGroup, handler documentRouteHandler) {
	group.GET("", handler.ListRecent)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.GET("/pending", handler.ListPending)
	group.GET("/with-items", handler.ListWithItems)
	group.GET("/by-counterparty/:id", handler.ListByCounterparty)
}
