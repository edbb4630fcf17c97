// Package media moves article thumbnails from the source site into our own
// object store or image CDN.
package media

import (
	"context"
	"fmt"
	"net/http"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/observability"
)

// Uploader copies the image behind sourceURL into managed storage and
// returns the stored image's public URL.
type Uploader interface {
	UploadFromURL(ctx context.Context, sourceURL string) (string, error)
}

// NewUploader builds the uploader selected by media.provider. Provider
// "none" yields a nil uploader; callers treat that as "skip images".
func NewUploader(cfg *config.Config, httpClient *http.Client, logger *observability.Logger) (Uploader, error) {
	switch cfg.Media.Provider {
	case config.MediaProviderS3:
		return NewS3Uploader(&cfg.Media.S3, NewDownloader(httpClient, cfg.HTTP.UserAgent, logger), logger)
	case config.MediaProviderCloudinary:
		return NewCloudinaryUploader(&cfg.Media.Cloudinary, logger)
	case config.MediaProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown media provider: %q", cfg.Media.Provider)
	}
}
