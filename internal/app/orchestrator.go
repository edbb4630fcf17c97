// Package app wires the fetch, extract, persist and upload steps into the two
// pipelines: the listing run and the detail backfill.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"abante-news-scraper/internal/checksum"
	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/fetcher"
	"abante-news-scraper/internal/model"
	"abante-news-scraper/internal/normalize"
	"abante-news-scraper/internal/observability"
	"abante-news-scraper/internal/scraper"
	"abante-news-scraper/internal/storage"
)

type Orchestrator struct {
	cfg        *config.Config
	logger     *observability.Logger
	fetchers   *fetcher.Factory
	listing    *scraper.ListingScraper
	detail     *scraper.DetailScraper
	dateParser *scraper.DateParser
	normalizer *normalize.Normalizer
	checksums  *checksum.Generator
	repo       storage.Repository
	uploader   Uploader
}

// Uploader matches media.Uploader; declared here so tests can stub it.
type Uploader interface {
	UploadFromURL(ctx context.Context, sourceURL string) (string, error)
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	fetchers *fetcher.Factory,
	selectors *scraper.Selectors,
	repo storage.Repository,
	uploader Uploader,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		fetchers:   fetchers,
		listing:    scraper.NewListingScraper(selectors),
		detail:     scraper.NewDetailScraper(selectors),
		dateParser: scraper.NewDateParser(selectors.Detail.DateFormats),
		normalizer: normalize.NewNormalizer(cfg),
		checksums:  checksum.NewGenerator(),
		repo:       repo,
		uploader:   uploader,
	}
}

// ListingStats summarizes one listing run.
type ListingStats struct {
	TotalPages    int
	TotalCards    int
	NewArticles   int
	UpdatedImages int
	KnownCards    int
	StoppedReason string
}

// RunListing walks the category listing page by page, persisting unseen
// articles and uploading their thumbnails. Articles are processed one at a
// time.
func (o *Orchestrator) RunListing(ctx context.Context) (*ListingStats, error) {
	site, err := model.NewWebsite(o.cfg.Site.ListingURL)
	if err != nil {
		return nil, err
	}

	kind, err := fetcher.KindFromString(o.cfg.Site.ListingStrategy)
	if err != nil {
		return nil, err
	}
	f, err := o.fetchers.Get(kind)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Starting listing run",
		"listing_url", site.URL(),
		"strategy", o.cfg.Site.ListingStrategy,
		"max_pages", o.cfg.Pagination.MaxPages,
	)

	stats := &ListingStats{}
	currentURL := site.URL()
	consecutiveKnownPages := 0

	for pageNum := 1; pageNum <= o.cfg.Pagination.MaxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			stats.StoppedReason = "canceled"
			return stats, err
		}

		o.logger.Info("Processing page", "page", pageNum, "url", currentURL)

		resp, err := f.Fetch(ctx, currentURL)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("fetch error at page %d: %v", pageNum, err)
			return stats, err
		}

		cards, err := o.listing.ParseListing(string(resp.Body), currentURL)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("parse error at page %d: %v", pageNum, err)
			return stats, err
		}

		if len(cards) == 0 {
			stats.StoppedReason = fmt.Sprintf("no cards on page %d", pageNum)
			break
		}

		stats.TotalPages++
		stats.TotalCards += len(cards)

		knownOnPage := 0
		for _, card := range cards {
			outcome, err := o.processCard(ctx, card)
			if err != nil {
				o.logger.Error("Failed to process card",
					"page", pageNum,
					"title", card.Title,
					"url", card.URL,
					"error", err.Error(),
				)
				continue
			}
			switch outcome {
			case cardInserted:
				stats.NewArticles++
			case cardImageUpdated:
				stats.UpdatedImages++
			case cardKnown:
				stats.KnownCards++
				knownOnPage++
			}
		}

		o.logger.Info("Page done",
			"page", pageNum,
			"cards", len(cards),
			"known", knownOnPage,
		)

		if knownOnPage == len(cards) {
			consecutiveKnownPages++
			if consecutiveKnownPages >= o.cfg.Pagination.StopOnKnownChainPages {
				stats.StoppedReason = fmt.Sprintf(
					"reached %d consecutive known pages at page %d",
					o.cfg.Pagination.StopOnKnownChainPages, pageNum)
				break
			}
		} else {
			consecutiveKnownPages = 0
		}

		nextLink, err := o.listing.FindNextPageLink(string(resp.Body), currentURL)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("failed to extract next link at page %d: %v", pageNum, err)
			break
		}
		if nextLink == "" {
			stats.StoppedReason = fmt.Sprintf("no next link at page %d", pageNum)
			break
		}
		currentURL = nextLink
	}

	if stats.StoppedReason == "" {
		stats.StoppedReason = fmt.Sprintf("reached max pages (%d)", o.cfg.Pagination.MaxPages)
	}

	o.logger.Info("Listing run completed",
		"pages", stats.TotalPages,
		"cards", stats.TotalCards,
		"new", stats.NewArticles,
		"image_updates", stats.UpdatedImages,
		"known", stats.KnownCards,
		"reason", stats.StoppedReason,
	)

	return stats, nil
}

type cardOutcome int

const (
	cardKnown cardOutcome = iota
	cardInserted
	cardImageUpdated
)

// processCard persists one listing card. Existing articles only get their
// thumbnail uploaded when it is still missing; the original image is never
// re-uploaded.
func (o *Orchestrator) processCard(ctx context.Context, card *scraper.Card) (cardOutcome, error) {
	article := model.NewArticle(card.Title, "", "")
	if err := article.SetURL(card.URL); err != nil {
		return cardKnown, err
	}
	article.SourceImageURL = card.ThumbnailURL

	ref, err := o.repo.GetByURL(ctx, article.URL)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return o.insertCard(ctx, article, card.SequenceNum)
	case err != nil:
		return cardKnown, err
	}

	if ref.StoredImageURL != "" || card.ThumbnailURL == "" {
		return cardKnown, nil
	}

	storedURL, err := o.uploadImage(ctx, card.ThumbnailURL)
	if err != nil {
		// The row stays image-less; a later run will retry.
		o.logger.Warn("Image upload failed for existing article",
			"url", article.URL,
			"image_url", card.ThumbnailURL,
			"error", err.Error(),
		)
		return cardKnown, nil
	}
	if storedURL == "" {
		return cardKnown, nil
	}

	if err := o.repo.UpdateStoredImage(ctx, ref.ID, storedURL); err != nil {
		return cardKnown, err
	}
	return cardImageUpdated, nil
}

func (o *Orchestrator) insertCard(ctx context.Context, article *model.Article, sequenceNum int) (cardOutcome, error) {
	row := &storage.ArticleRow{
		ID:          article.ID,
		Title:       article.Title,
		Tags:        article.Tags,
		URL:         article.URL,
		SequenceNum: sequenceNum,
		Checksum:    o.checksums.ContentHash(article.URL, article.Title, "", time.Time{}),
	}

	if err := o.repo.InsertArticle(ctx, row); err != nil {
		return cardKnown, err
	}

	o.logger.Info("Inserted article", "id", article.ID.String(), "title", article.Title)

	if article.SourceImageURL == "" {
		return cardInserted, nil
	}

	storedURL, err := o.uploadImage(ctx, article.SourceImageURL)
	if err != nil {
		o.logger.Warn("Image upload failed for new article",
			"url", article.URL,
			"image_url", article.SourceImageURL,
			"error", err.Error(),
		)
		return cardInserted, nil
	}
	if storedURL == "" {
		return cardInserted, nil
	}

	if err := o.repo.UpdateStoredImage(ctx, article.ID, storedURL); err != nil {
		return cardInserted, err
	}
	return cardInserted, nil
}

// uploadImage returns "" without error when no uploader is configured.
func (o *Orchestrator) uploadImage(ctx context.Context, sourceURL string) (string, error) {
	if o.uploader == nil {
		return "", nil
	}
	return o.uploader.UploadFromURL(ctx, sourceURL)
}
