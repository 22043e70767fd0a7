// cmd/hydration-reminder/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/hydrapp/hydration-reminder/pkg/api"
	"github.com/hydrapp/hydration-reminder/pkg/config"
	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
	"github.com/hydrapp/hydration-reminder/pkg/notify"
)

func main() {
	_ = godotenv.Load(".env")

	configPath := "config.json"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	if err := config.LoadConfig(configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sender := notify.NewWebPushSender(config.AppConfig.Push)
	if !sender.Configured() {
		logger.Warn("VAPID keys are not configured; push delivery will fail until they are provided")
	}

	scheduler, err := notify.NewScheduler(sender, config.AppConfig.Scheduler, notify.SendOptions{
		TTLSeconds: config.AppConfig.Push.TTLSeconds,
		Urgency:    config.AppConfig.Push.Urgency,
	})
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Close()

	if err := scheduler.StartCleanup(config.AppConfig.Scheduler.CleanupSchedule); err != nil {
		logger.Error("failed to schedule subscription cleanup", "error", err)
		os.Exit(1)
	}
	if config.AppConfig.Scheduler.AutoStart {
		scheduler.Start()
	}

	controller := notify.NewController(scheduler, config.AppConfig.Scheduler.ProductionLocked)
	server := api.NewServer(&config.AppConfig, controller)

	httpServer := &http.Server{
		Addr:              config.AppConfig.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting hydration reminder server...", "addr", config.AppConfig.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
