// Package main is the entry point for the backoffice API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"backoffice/internal/domain"
	"backoffice/internal/domain/catalogs/counterparty"
	"backoffice/internal/domain/catalogs/product"
	"backoffice/internal/domain/documents/purchase"
	"backoffice/internal/domain/documents/sale"
	"backoffice/internal/domain/registers/cashflow"
	"backoffice/internal/domain/registers/costhistory"
	"backoffice/internal/domain/registers/stock"
	v1 "backoffice/internal/infrastructure/http/v1"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/catalog_repo"
	"backoffice/internal/infrastructure/storage/postgres/document_repo"
	"backoffice/internal/infrastructure/storage/postgres/register_repo"
	"backoffice/pkg/logger"
	"backoffice/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting backoffice server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// Numbering joins the caller's transaction when one is active.
	numbers := numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	counterpartyRepo := catalog_repo.NewCounterpartyRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	cashRepo := register_repo.NewCashMovementRepo(txManager)
	costHistoryRepo := register_repo.NewCostHistoryRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	quickSaleRepo := document_repo.NewQuickSaleRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)

	// --- Register services ---
	stockService := stock.NewService(stockRepo, log)
	cashService := cashflow.NewService(cashRepo, log)
	historyService := costhistory.NewService(costHistoryRepo, productRepo, log)

	// --- Catalog services ---
	productService := product.NewService(productRepo, historyService, stockService, txManager, log)
	counterpartyService := counterparty.NewService(counterpartyRepo, log)

	// --- Document services ---
	saleService := sale.NewService(sale.ConfigSale, saleRepo, numbers,
		stockService, cashService, historyService, counterpartyService, productService, txManager, log)
	quickSaleService := sale.NewService(sale.ConfigQuickSale, quickSaleRepo, numbers,
		stockService, cashService, historyService, counterpartyService, productService, txManager, log)
	purchaseService := purchase.NewService(purchaseRepo, numbers,
		stockService, cashService, historyService, counterpartyService, productService, txManager, log)

	// --- Audit trail ---
	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	registerAuditHooks(audit, productService, counterpartyService, saleService, quickSaleService, purchaseService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		Products:       productService,
		Counterparties: counterpartyService,
		Stock:          stockService,
		Cashflow:       cashService,
		Sales:          saleService,
		QuickSales:     quickSaleService,
		Purchases:      purchaseService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// registerAuditHooks records entity state after every mutation.
func registerAuditHooks(
	audit *postgres.AuditService,
	products *product.Service,
	counterparties *counterparty.Service,
	sales *sale.Service,
	quickSales *sale.Service,
	purchases *purchase.Service,
) {
	products.Hooks().On(domain.AfterCreate, func(ctx context.Context, p *product.Product) error {
		return audit.LogState(ctx, "product", p.ID, postgres.AuditActionCreate, p)
	})
	products.Hooks().On(domain.AfterUpdate, func(ctx context.Context, p *product.Product) error {
		return audit.LogState(ctx, "product", p.ID, postgres.AuditActionUpdate, p)
	})
	products.Hooks().On(domain.AfterDelete, func(ctx context.Context, p *product.Product) error {
		return audit.LogState(ctx, "product", p.ID, postgres.AuditActionDelete, p)
	})

	counterparties.Hooks().On(domain.AfterCreate, func(ctx context.Context, c *counterparty.Counterparty) error {
		return audit.LogState(ctx, "counterparty", c.ID, postgres.AuditActionCreate, c)
	})
	counterparties.Hooks().On(domain.AfterUpdate, func(ctx context.Context, c *counterparty.Counterparty) error {
		return audit.LogState(ctx, "counterparty", c.ID, postgres.AuditActionUpdate, c)
	})
	counterparties.Hooks().On(domain.AfterDelete, func(ctx context.Context, c *counterparty.Counterparty) error {
		return audit.LogState(ctx, "counterparty", c.ID, postgres.AuditActionDelete, c)
	})

	for _, svc := range []*sale.Service{sales, quickSales} {
		family := svc.Family().Name
		svc.Hooks().On(domain.AfterCreate, func(ctx context.Context, d *sale.Sale) error {
			return audit.LogState(ctx, family, d.ID, postgres.AuditActionCreate, d)
		})
		svc.Hooks().On(domain.AfterUpdate, func(ctx context.Context, d *sale.Sale) error {
			return audit.LogState(ctx, family, d.ID, postgres.AuditActionUpdate, d)
		})
		svc.Hooks().On(domain.AfterDelete, func(ctx context.Context, d *sale.Sale) error {
			return audit.LogState(ctx, family, d.ID, postgres.AuditActionDelete, d)
		})
	}

	purchases.Hooks().On(domain.AfterCreate, func(ctx context.Context, d *purchase.Purchase) error {
		return audit.LogState(ctx, "purchase", d.ID, postgres.AuditActionCreate, d)
	})
	purchases.Hooks().On(domain.AfterUpdate, func(ctx context.Context, d *purchase.Purchase) error {
		return audit.LogState(ctx, "purchase", d.ID, postgres.AuditActionUpdate, d)
	})
	purchases.Hooks().On(domain.AfterDelete, func(ctx context.Context, d *purchase.Purchase) error {
		return audit.LogState(ctx, "purchase", d.ID, postgres.AuditActionDelete, d)
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
