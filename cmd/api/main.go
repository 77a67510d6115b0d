package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/upsellkit/upsellkit-backend/api/routes"
	"github.com/upsellkit/upsellkit-backend/internal/catalog"
	"github.com/upsellkit/upsellkit-backend/internal/upsell"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/db"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
	"github.com/upsellkit/upsellkit-backend/pkg/metrics"
	"github.com/upsellkit/upsellkit-backend/pkg/migrate"
	"github.com/upsellkit/upsellkit-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	enrichMetrics := metrics.NewEnrichmentMetrics(prometheus.DefaultRegisterer)

	catalogClient := catalog.NewClient(cfg.Shopify, logg)
	resolver := catalog.NewResolver(catalogClient, redisClient, cfg.Enrichment.CacheTTL, enrichMetrics, logg)

	upsellService := upsell.NewService(
		upsell.NewRepo(dbClient),
		resolver,
		catalogClient,
		cfg.Enrichment,
		enrichMetrics,
		logg,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"shop": cfg.Shopify.Shop,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, upsellService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
