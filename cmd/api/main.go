package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaskrrish/qkd-otp/internal/config"
	"github.com/jaskrrish/qkd-otp/internal/handlers"
	"github.com/jaskrrish/qkd-otp/internal/logging"
	qkdcore "github.com/jaskrrish/qkd-otp/internal/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Check for config file override via environment
	if envConfig := os.Getenv("QKDOTP_CONFIG"); envConfig != "" {
		*configPath = envConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewLogger("info", "text").Error("Failed to load configuration", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)

	// Keys come from the OS CSPRNG in production
	service := qkdcore.NewService(quantum.NewCryptoSource(), cfg.Protocol.OversampleFactor)
	service.SetMaxMessageBytes(cfg.Protocol.MaxMessageBytes)

	router := handlers.NewRouter(handlers.NewOTPHandler(service, logger), handlers.RouterConfig{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, logger)

	// Create server with timeouts
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"addr", server.Addr,
			"oversample_factor", cfg.Protocol.OversampleFactor,
			"metrics", cfg.Metrics.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		logger.Error("Server failed", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
