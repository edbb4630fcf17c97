package app

import (
	"context"
	"fmt"
	"time"

	"abante-news-scraper/internal/fetcher"
	"abante-news-scraper/internal/storage"
)

// BackfillStats summarizes one backfill pass.
type BackfillStats struct {
	Candidates  int
	Updated     int
	Failed      int
	DateMisses  int
	ImagesFilled int
}

// RunBackfill revisits stored articles that are missing author, content, tags
// or publish date, scrapes their detail pages and fills the gaps. Only
// successfully scraped fields are written.
func (o *Orchestrator) RunBackfill(ctx context.Context) (*BackfillStats, error) {
	kind, err := fetcher.KindFromString(o.cfg.Site.DetailStrategy)
	if err != nil {
		return nil, err
	}
	f, err := o.fetchers.Get(kind)
	if err != nil {
		return nil, err
	}

	refs, err := o.repo.ListMissingDetails(ctx, o.cfg.Storage.BackfillBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete articles: %w", err)
	}

	stats := &BackfillStats{Candidates: len(refs)}
	o.logger.Info("Starting backfill", "candidates", len(refs))

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := o.backfillOne(ctx, f, ref, stats); err != nil {
			stats.Failed++
			o.logger.Error("Backfill failed for article",
				"id", ref.ID.String(),
				"url", ref.URL,
				"error", err.Error(),
			)
		}
	}

	o.logger.Info("Backfill completed",
		"candidates", stats.Candidates,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"date_misses", stats.DateMisses,
	)

	return stats, nil
}

func (o *Orchestrator) backfillOne(ctx context.Context, f fetcher.Fetcher, ref *storage.ArticleRef, stats *BackfillStats) error {
	resp, err := f.Fetch(ctx, ref.URL)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	detail, err := o.detail.ParseDetail(string(resp.Body))
	if err != nil {
		return fmt.Errorf("detail parse failed: %w", err)
	}

	content := o.normalizer.CleanContent(detail.Content)
	summary := o.normalizer.Summarize(content)

	update := &storage.DetailUpdate{
		Author: &detail.Author,
		Tags:   detail.Tags,
	}
	if content != "" {
		update.Content = &content
	}
	if summary != "" {
		update.Summary = &summary
	}

	var published time.Time
	if detail.PublishedRaw != "" {
		published, err = o.dateParser.Parse(detail.PublishedRaw)
		if err != nil {
			stats.DateMisses++
			o.logger.Warn("Could not parse publish date",
				"url", ref.URL,
				"date_raw", detail.PublishedRaw,
				"error", err.Error(),
			)
		} else {
			update.PublishedAt = &published
		}
	}

	hash := o.checksums.ContentHash(ref.URL, ref.Title, content, published)
	update.Checksum = &hash

	if err := o.repo.UpdateDetails(ctx, ref.ID, update); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	stats.Updated++

	// Detail pages expose og:image; use it when the listing thumbnail never
	// made it into storage.
	if ref.StoredImageURL == "" && detail.OGImageURL != "" {
		storedURL, err := o.uploadImage(ctx, detail.OGImageURL)
		if err != nil {
			o.logger.Warn("Image upload failed during backfill",
				"url", ref.URL,
				"image_url", detail.OGImageURL,
				"error", err.Error(),
			)
			return nil
		}
		if storedURL != "" {
			if err := o.repo.UpdateStoredImage(ctx, ref.ID, storedURL); err != nil {
				return err
			}
			stats.ImagesFilled++
		}
	}

	return nil
}
