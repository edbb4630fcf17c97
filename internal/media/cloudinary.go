package media

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/observability"
)

// CloudinaryUploader hands the source URL to Cloudinary, which fetches the
// image itself. No local download needed.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
	logger *observability.Logger
}

func NewCloudinaryUploader(cfg *config.CloudinaryConfig, logger *observability.Logger) (*CloudinaryUploader, error) {
	client, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	client.Config.URL.Secure = true

	folder := cfg.Folder
	if folder == "" {
		folder = "scraped_articles"
	}

	return &CloudinaryUploader{
		client: client,
		folder: folder,
		logger: logger,
	}, nil
}

func (u *CloudinaryUploader) UploadFromURL(ctx context.Context, sourceURL string) (string, error) {
	resp, err := u.client.Upload.Upload(ctx, sourceURL, uploader.UploadParams{
		Folder: u.folder,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to cloudinary: %w", err)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary returned no secure URL for %s", sourceURL)
	}

	u.logger.Debug("Uploaded image to cloudinary",
		"public_id", resp.PublicID,
		"stored_url", resp.SecureURL,
	)

	return resp.SecureURL, nil
}
