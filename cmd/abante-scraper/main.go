// Command abante-scraper walks the Abante news listing, persists unseen
// articles and uploads their thumbnails. Runs once or on a schedule per the
// scheduler config.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"abante-news-scraper/internal/app"
	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/fetcher"
	"abante-news-scraper/internal/media"
	"abante-news-scraper/internal/observability"
	"abante-news-scraper/internal/storage/postgres"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)
	defer func() { _ = logger.Sync() }()

	selectors, err := cfg.LoadSiteSelectors()
	if err != nil {
		logger.Error("Failed to load selectors", "error", err.Error())
		os.Exit(1)
	}

	repo, err := postgres.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", "error", err.Error())
		}
	}()

	fetchers := fetcher.NewFactory(cfg, logger)
	defer func() {
		if err := fetchers.Close(); err != nil {
			logger.Error("Failed to close fetchers", "error", err.Error())
		}
	}()

	uploader, err := media.NewUploader(cfg, fetchers.HTTPClient(), logger)
	if err != nil {
		logger.Error("Failed to build media uploader", "error", err.Error())
		os.Exit(1)
	}

	orchestrator := app.NewOrchestrator(cfg, logger, fetchers, selectors, repo, uploader)

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	scheduler := app.NewScheduler(cfg, logger)
	err = scheduler.Run(ctx, func(runCtx context.Context) error {
		_, runErr := orchestrator.RunListing(runCtx)
		return runErr
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Listing run failed", "error", err.Error())
		os.Exit(1)
	}
}
