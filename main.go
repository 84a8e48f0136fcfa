package main

import (
	"os"
	"time"

	"car-tracker/browser"
	"car-tracker/config"
	"car-tracker/scraper/marketplace"
	"car-tracker/server"
	"car-tracker/services"
	"car-tracker/storage"
	"car-tracker/tracker"
	"car-tracker/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Car Tracker starting ===")
	logger.Info("Config — addr: %s | headless: %v | concurrency: %d | region: %s",
		cfg.HTTPAddr, cfg.Headless, cfg.MaxConcurrency, cfg.RegionCode)

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}

	store, err := storage.NewPostgresStore(cfg.DSN(), retry)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure the database is running: docker compose up -d")
		os.Exit(1)
	}
	defer store.Close()

	launcher := browser.NewChromeLauncher(cfg.ChromeBin, cfg.NavTimeoutSec, logger)
	prompter := marketplace.NewStdinPrompter(logger)
	trk := tracker.New()

	ingest := services.NewIngestService(store, launcher, prompter, trk, cfg, logger)
	insight := services.NewInsightService(logger)

	srv := server.New(store, ingest, insight, logger)

	logger.Info("HTTP API listening on %s", cfg.HTTPAddr)
	if err := srv.Run(cfg.HTTPAddr); err != nil {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
}
