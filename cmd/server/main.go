package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"oddoneout/internal/app"
	"oddoneout/internal/config"
	"oddoneout/internal/storage"
	"oddoneout/internal/storage/sqlite"
	httpTransport "oddoneout/internal/transport/http"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting odd-one-out game server",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	repo, cleanup, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err))
	}
	defer cleanup()

	hub := app.NewHub(logger)
	defer hub.Close()

	service := app.NewService(repo, hub, app.NewCatalog(), logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := app.NewSweeper(service, cfg.Game.SweepInterval, cfg.Game.EndedRetention, logger)
	go sweeper.Run(sweepCtx)

	server := httpTransport.NewServer(cfg, service, hub, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweep()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openRepository picks SQLite when a path is configured and falls back
// to the in-memory store otherwise.
func openRepository(cfg *config.Config, logger *zap.Logger) (storage.Repository, func(), error) {
	if cfg.Storage.DBPath == "" {
		logger.Info("using in-memory storage, games will not survive restarts")
		return storage.NewMemoryStore(), func() {}, nil
	}

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using sqlite storage", zap.String("path", cfg.Storage.DBPath))
	return store, func() { store.Close() }, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Logging.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
