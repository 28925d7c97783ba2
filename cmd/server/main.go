package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collabthon/backend/config"
	"github.com/collabthon/backend/internal/app"
	"github.com/collabthon/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.App.Env)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatalw("Failed to initialize application", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorw("HTTP server failed", "error", err)
		}
	case sig := <-quit:
		log.Infow("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}
	application.Close()
	log.Infow("Server stopped")
}
