package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/waretrack/waretrack-backend/api/routes"
	"github.com/waretrack/waretrack-backend/internal/audit"
	"github.com/waretrack/waretrack-backend/internal/auth"
	"github.com/waretrack/waretrack-backend/internal/catalog"
	"github.com/waretrack/waretrack-backend/internal/reports"
	"github.com/waretrack/waretrack-backend/internal/stock"
	"github.com/waretrack/waretrack-backend/internal/stocktake"
	"github.com/waretrack/waretrack-backend/internal/users"
	"github.com/waretrack/waretrack-backend/pkg/auth/session"
	"github.com/waretrack/waretrack-backend/pkg/config"
	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/metrics"
	"github.com/waretrack/waretrack-backend/pkg/migrate"
	"github.com/waretrack/waretrack-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		recorder, err = audit.NewRecorder(dbClient.DB(), logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create audit recorder", err)
			os.Exit(1)
		}
	}

	stockRepo := stock.NewRepository(dbClient.DB())
	engineParams := stock.EngineParams{
		Runner:    dbClient,
		Store:     stockRepo,
		Products:  catalogRepo,
		Locations: catalogRepo,
		Metrics:   stockMetrics,
		Logger:    logg,
		Retries:   cfg.Engine.WriteRetries,
	}
	if recorder != nil {
		engineParams.Audit = recorder
	}
	engine, err := stock.NewEngine(engineParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock engine", err)
		os.Exit(1)
	}

	stockQuery, err := stock.NewQueryService(stockRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock query service", err)
		os.Exit(1)
	}

	stocktakeRepo := stocktake.NewRepository(dbClient.DB())
	managerParams := stocktake.ManagerParams{
		Runner:    dbClient,
		Store:     stocktakeRepo,
		Balances:  stockRepo,
		Locations: catalogRepo,
		Engine:    engine,
		Metrics:   stockMetrics,
		Logger:    logg,
	}
	if recorder != nil {
		managerParams.Audit = recorder
	}
	stocktakeManager, err := stocktake.NewManager(managerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create stocktake manager", err)
		os.Exit(1)
	}

	reportsParams := reports.ServiceParams{
		Balances: stockRepo,
		Ledger:   stockRepo,
		Catalog:  catalogRepo,
		Sessions: stocktakeRepo,
		Users:    users.NewRepository(dbClient.DB()),
		Logger:   logg,
	}
	if recorder != nil {
		reportsParams.Activity = recorder
	}
	reportsService, err := reports.NewService(reportsParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Sessions:  sessionManager,
			Registry:  registry,
			Auth:      authService,
			Catalog:   catalogService,
			Engine:    engine,
			Query:     stockQuery,
			Stocktake: stocktakeManager,
			Reports:   reportsService,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
