package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ringsight/ringsight/internal/config"
	"github.com/ringsight/ringsight/internal/detection"
	"github.com/ringsight/ringsight/internal/server"
	"github.com/ringsight/ringsight/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Create logger
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Load configuration
	cfg, err := config.Load(os.Getenv("RINGSIGHT_CONFIG_DIR"))
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Wire the detection service behind its bounded pool
	svc := detection.NewService(cfg.Detection.Core(), zapLogger.Sugar())
	pool := detection.NewPool(svc, int64(cfg.Pool.MaxConcurrent), zapLogger.Sugar())

	srv := server.NewServer(zapLogger, pool)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	zapLogger.Info("ringsight listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Int("max_concurrent_analyses", cfg.Pool.MaxConcurrent))

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}
