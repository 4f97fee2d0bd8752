// Package main is the entry point for the erpcore API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erpcore/internal/app"
	"erpcore/internal/config"
	"erpcore/internal/core/idempotency"
	"erpcore/internal/domain/auth"
	v1 "erpcore/internal/infrastructure/http/v1"
	"erpcore/internal/infrastructure/storage/memory"
	"erpcore/internal/infrastructure/storage/postgres"
	"erpcore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting erpcore server", "env", cfg.App.Env, "storage", cfg.Storage.Driver)

	routerCfg := v1.RouterConfig{
		Logger:         log,
		DefaultTaxRate: cfg.Sales.DefaultTaxRate,
		Debug:          cfg.Log.Development,
	}

	var idem idempotency.Store
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		mem := app.NewMemory(cfg.Sales.DefaultCurrency)
		routerCfg.Services = mem.Services
		idem = memory.NewIdempotencyStore(cfg.Idempotency.TTL)
		log.Warn("in-memory storage: data is lost on restart")
	default:
		pg, err := app.NewPostgres(ctx, cfg)
		if err != nil {
			log.Fatalw("failed to initialize postgres storage", "error", err)
		}
		defer pg.Close()
		postgres.LogPoolStats(ctx, pg.Pool.Pool)

		routerCfg.Services = pg.Services
		routerCfg.Database = pg.Pool
		idem = pg.Idempotency
	}
	if cfg.Idempotency.Enabled {
		routerCfg.Idempotency = idem
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("auth.jwt_secret is not set, using the development secret")
		secret = auth.DevelopmentSecret
	}
	routerCfg.JWTValidator = auth.NewJWTService(auth.JWTConfig{
		Secret:         secret,
		Issuer:         cfg.Auth.Issuer,
		AccessTokenTTL: cfg.Auth.TokenTTL,
	})

	router := v1.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
