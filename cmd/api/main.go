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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tradiesite/tradiesite/internal/analyze"
	"github.com/tradiesite/tradiesite/internal/api"
	"github.com/tradiesite/tradiesite/internal/config"
	"github.com/tradiesite/tradiesite/internal/crawl"
	"github.com/tradiesite/tradiesite/internal/deploy"
	"github.com/tradiesite/tradiesite/internal/llm"
	"github.com/tradiesite/tradiesite/internal/pipeline"
	"github.com/tradiesite/tradiesite/internal/registry"
	"github.com/tradiesite/tradiesite/internal/screenshot"
	"github.com/tradiesite/tradiesite/internal/synth"
)

func main() {
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting tradiesite API",
		zap.String("environment", string(cfg.Env)),
		zap.String("model", cfg.Claude.Model),
	)

	// Model client
	client, err := llm.NewClient(cfg.Claude, logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	// Site registry: Redis when configured, in-process memory otherwise
	var store registry.Store
	if cfg.Registry.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := registry.NewRedisStore(ctx, cfg.Registry)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("Connected to Redis", zap.String("addr", cfg.Registry.RedisAddr))
	} else {
		store = registry.NewMemoryStore(cfg.Registry.TTL)
		logger.Info("Using in-memory site registry",
			zap.Duration("ttl", cfg.Registry.TTL),
		)
	}

	// Screenshot renderer. The browser launches lazily on first capture,
	// so a missing Playwright install degrades refinement rather than
	// blocking startup.
	renderer := screenshot.NewRenderer(logger)
	defer renderer.Close()

	crawler := crawl.New(cfg.Crawler, logger)

	// Create router
	router := api.NewRouter(api.RouterConfig{
		Config:      cfg,
		Crawler:     crawler,
		Analyzer:    analyze.New(client, logger),
		Synthesizer: synth.New(client, logger),
		Pipeline:    pipeline.New(client, renderer, cfg.Claude, logger),
		Store:       store,
		Deployer:    deploy.New(cfg.Deploy, logger),
		Logger:      logger,
	})

	// Create HTTP server. Generation streams over SSE for minutes, so the
	// write timeout is configured well above the usual few seconds.
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API server listening", zap.String("addr", cfg.Server.Addr()))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed, forcing close", zap.Error(err))
			server.Close()
		}

		logger.Info("Server stopped gracefully")
	}
}

// initLogger creates a configured zap logger
func initLogger(cfg *config.Config) *zap.Logger {
	var zapLevel zapcore.Level
	switch cfg.GetLogLevel() {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := zapCfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return logger
}
