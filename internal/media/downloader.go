package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"abante-news-scraper/internal/observability"
)

// maxImageBytes caps thumbnail downloads; listing thumbnails are small and an
// unbounded read of a misbehaving server is not worth it.
const maxImageBytes = 20 << 20

// Downloader fetches image bytes through the shared HTTP client.
type Downloader struct {
	client    *http.Client
	userAgent string
	logger    *observability.Logger
}

func NewDownloader(client *http.Client, userAgent string, logger *observability.Logger) *Downloader {
	return &Downloader{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Download returns the image bytes and the reported content type.
func (d *Downloader) Download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image URL: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			d.logger.Warn("Failed to close image body", "error", closeErr.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return body, contentType, nil
}
