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

	"go.uber.org/zap"

	"payrecon/internal/app"
	"payrecon/internal/config"
	"payrecon/internal/handler"
	"payrecon/internal/logger"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	zl, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect the store, Redis and New Relic, and wire the service.
	container, err := app.NewContainer(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize", zap.Error(err))
	}
	defer container.Close()

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: app.NewRouter(app.RouterDeps{
			PaymentHandler: handler.NewPaymentHandler(container.Reconciliation, zl),
			RedisClient:    container.RedisClient,
			NewRelicApp:    container.NewRelicApp,
			Logger:         zl,
			Auth:           cfg.Auth,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine.
	go func() {
		zl.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	if container.NewRelicApp != nil {
		container.NewRelicApp.Shutdown(5 * time.Second)
	}

	zl.Info("server exited")
}
