// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), cfg.Database.MigrationsTable, cfg.Security.BcryptCost, log)
	if err := migration.Up(); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("data seeding failed")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gormDB := db.GetDB()
	tx := database.NewGormTransactor(gormDB)
	tokens := auth.NewJWTManager(cfg.JWT, cfg.App.Name)
	users := user.NewService(gormDB, auth.NewPasswordManager(cfg.Security.BcryptCost), tokens, log)

	products := catalog.NewService(gormDB, catalog.NewProductCache(redisClient.Redis, cfg.Catalog.CacheTTL), log)
	carts := cart.NewGormStore(gormDB)
	orders := order.NewGormStore(gormDB)
	engine := checkout.NewEngine(tx, carts, orders, cfg.Checkout, log, metrics.NewCheckoutMetrics(registry))

	server, err := http.NewServer(cfg, log, http.Dependencies{
		Handlers: routes.Handlers{
			Auth:     handlers.NewAuthHandler(users, log),
			Cart:     handlers.NewCartHandler(cart.NewService(carts, products, tx), log),
			Order:    handlers.NewOrderHandler(order.NewService(orders), engine, log),
			Product:  handlers.NewProductHandler(products, log),
			Category: handlers.NewCategoryHandler(catalog.NewCategoryService(gormDB), log),
			Profile:  handlers.NewProfileHandler(users, log),
		},
		RequireAuth: middleware.AuthMiddleware(tokens, users, log),
		Redis:       redisClient.Redis,
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    redisClient,
		},
		Registry: registry,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build HTTP server")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("failed to shut down HTTP server gracefully")
	}
}
