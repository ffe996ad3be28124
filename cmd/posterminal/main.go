package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eterno/pos-terminal/internal/api"
	"github.com/eterno/pos-terminal/internal/backend"
	"github.com/eterno/pos-terminal/internal/config"
	"github.com/eterno/pos-terminal/internal/display"
	"github.com/eterno/pos-terminal/internal/printer"
)

func main() {
	fmt.Println("ETERNO POS Terminal")
	fmt.Println("===================")

	// A missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	// Create log buffer and the process logger
	logBuf := api.NewLogBuffer(500)
	logger, err := api.NewLogger(logBuf, os.Getenv("POSTERM_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid POSTERM_LOG_LEVEL: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("no config file found, using defaults", zap.Error(err))
		cfg = config.Default()
		cfg.ConfigPath = "config.yaml"
		if err := cfg.ApplyEnv(); err != nil {
			logger.Fatal("invalid environment", zap.Error(err))
		}
		if err := cfg.Validate(); err != nil {
			logger.Fatal("invalid configuration", zap.Error(err))
		}
	case err != nil:
		logger.Fatal("could not load config", zap.Error(err))
	}

	logger.Info("terminal starting",
		zap.String("config", cfg.ConfigPath),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("port", cfg.Server.Port),
		zap.Int("printers", len(cfg.Printers)))

	client := backend.NewClient(cfg.Backend, logger)
	monitor := backend.NewMonitor(client, cfg.Backend.HealthInterval, logger)
	monitor.Start()
	printers := printer.NewManager(cfg.Receipt, logger)
	printers.LoadPrinters(cfg.Printers)
	hub := display.NewHub(cfg.Display.PingInterval, logger)

	server := api.NewServer(cfg, client, printers, hub, logBuf, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\nStarting server on http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	monitor.Stop()
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}
