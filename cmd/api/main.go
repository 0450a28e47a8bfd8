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

	"github.com/GoSim-25-26J-441/entity-service/config"
	"github.com/GoSim-25-26J-441/entity-service/internal/bootstrap"
	cronjob "github.com/GoSim-25-26J-441/entity-service/internal/cron"
	"github.com/GoSim-25-26J-441/entity-service/internal/logging"
)

const serviceName = "entity-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.App.LogLevel),
		Format:  logging.ParseFormat(cfg.App.LogFormat),
		Service: serviceName,
	})

	bootstrap.SetGinMode(cfg.App.Environment)

	scheduler := cronjob.NewScheduler(cronjob.EveryMinute, logger)
	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      *cfg,
		Logger:      logger,
		Scheduler:   scheduler,
	})

	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start limiter janitor", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started",
			"port", cfg.Server.Port,
			"environment", cfg.App.Environment,
			"api_prefix", cfg.Server.APIPrefix,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutdown signal received, closing HTTP server", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown after timeout", "error", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
	}

	logger.Info("Server stopped")
}
