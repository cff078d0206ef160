package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/transfer-ledger/internal/api"
	"github.com/baharkarakas/transfer-ledger/internal/auth"
	"github.com/baharkarakas/transfer-ledger/internal/config"
	"github.com/baharkarakas/transfer-ledger/internal/db"
	"github.com/baharkarakas/transfer-ledger/internal/logger"
	"github.com/baharkarakas/transfer-ledger/internal/metrics"
	"github.com/baharkarakas/transfer-ledger/internal/repository/postgres"
	"github.com/baharkarakas/transfer-ledger/internal/services"
	"github.com/baharkarakas/transfer-ledger/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}
	metrics.Init()

	store := postgres.NewStore(pool, cfg.LockTimeout)
	if os.Getenv("APP_SEED") == "true" {
		if err := db.Seed(ctx, pool, store); err != nil {
			log.Error("seed", "err", err)
			os.Exit(1)
		}
	}
	wp := worker.NewPool(4)
	defer wp.Stop()

	transferSvc := services.NewTransferService(store, wp)
	balanceSvc := services.NewBalanceService(store)

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour)
	r := api.NewRouter(cfg, tm, transferSvc, balanceSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
