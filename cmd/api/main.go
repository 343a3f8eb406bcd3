package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authinfra "admin-backend/internal/infrastructure/auth"
	"admin-backend/internal/infrastructure/config"
	"admin-backend/internal/infrastructure/db"
	"admin-backend/internal/infrastructure/logger"
	httpapi "admin-backend/internal/interface/http"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.Fatalf("CRITICAL: load config failed: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("CRITICAL: init logger failed: %v", err)
	}
	defer zlog.Sync()

	settings, err := cfg.AuthSettings()
	if err != nil {
		zlog.Fatal("invalid auth configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, cfg.DB)
	cancel()
	if err != nil {
		zlog.Warn("database connection failed, falling back to in-memory store", zap.Error(err))
		pool = nil
	} else if pool == nil {
		zlog.Info("no db.dsn provided; running with in-memory store only")
	} else {
		defer pool.Close()
		zlog.Info("database connected")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blacklist := authinfra.NewBlacklist(settings.BlacklistRetention(), zlog)
	blacklist.StartSweeper(rootCtx, authinfra.SweepInterval)

	apiServer, err := httpapi.NewServer(cfg, pool, blacklist, zlog)
	if err != nil {
		zlog.Fatal("build server failed", zap.Error(err))
	}

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: apiServer.Handler()}
	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
