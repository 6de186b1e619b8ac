package modes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediahub/internal/mediahub/core/transfer"
	"mediahub/internal/mediahub/gateway"
	"mediahub/internal/mediahub/server"
	"mediahub/pkg/config"
	"mediahub/pkg/logger"
	"mediahub/pkg/platform"
)

const shutdownTimeout = 10 * time.Second

// ConfigureLogging replaces the global logger with one built from cfg.
func ConfigureLogging(cfg config.LoggingConfig) error {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	out, err := logger.OpenOutput(cfg.Output)
	if err != nil {
		return err
	}
	logger.Configure(logger.Config{Level: level, Output: out, Format: cfg.Format})
	return nil
}

func RunServer(cfg *config.Config) error {
	log := logger.WithField("mode", "server")

	log.Info("starting mediahub server",
		"address", cfg.GetServerAddress(),
		"storage", cfg.Storage.Backend,
		"catalog", cfg.Catalog.Backend,
		"reservation", cfg.Reservation.Backend)

	ctx := context.Background()

	c, err := newContainer(ctx, cfg.Storage, platform.NewPlatform())
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("failed to close storage", "error", err)
		}
	}()

	cat, closeCatalog, err := newCatalog(ctx, cfg.Catalog, c)
	if err != nil {
		return fmt.Errorf("failed to open %s catalog: %w", cfg.Catalog.Backend, err)
	}
	defer func() {
		if err := closeCatalog(); err != nil {
			log.Warn("failed to close catalog", "error", err)
		}
	}()

	reserver, closeReserver, err := newReserver(ctx, cfg.Reservation)
	if err != nil {
		return fmt.Errorf("failed to set up %s reservations: %w", cfg.Reservation.Backend, err)
	}
	defer func() {
		if err := closeReserver(); err != nil {
			log.Warn("failed to close reservations", "error", err)
		}
	}()

	transfers := transfer.NewInstrumented(transfer.NewTransfers(cat, c, reserver, cfg.Transfer.MaxChunkSize))

	grpcServer, err := server.StartGRPCServer(cat, transfers, cfg)
	if err != nil {
		return fmt.Errorf("failed to start gRPC server: %w", err)
	}

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		httpServer = &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           gateway.NewServer(cat, transfers).Handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("HTTP gateway listening", "address", cfg.HTTP.Address)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP gateway stopped", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	log.Info("server started successfully", "address", cfg.GetServerAddress())

	<-sigChan
	log.Info("received shutdown signal, stopping server...")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP gateway shutdown incomplete", "error", err)
		}
		cancel()
	}

	grpcServer.GracefulStop()
	log.Info("server stopped gracefully")

	return nil
}
