package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/observability"
)

// awsEndpoint is used when no custom endpoint is configured.
const awsEndpoint = "s3.amazonaws.com"

// S3Uploader stores thumbnails in an S3-compatible bucket (AWS or MinIO).
type S3Uploader struct {
	client     *miniogo.Client
	cfg        *config.S3Config
	downloader *Downloader
	logger     *observability.Logger
}

func NewS3Uploader(cfg *config.S3Config, downloader *Downloader, logger *observability.Logger) (*S3Uploader, error) {
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	if endpoint == "" {
		endpoint = awsEndpoint
		secure = true
	}
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &S3Uploader{
		client:     client,
		cfg:        cfg,
		downloader: downloader,
		logger:     logger,
	}, nil
}

// UploadFromURL downloads the image, stores it under
// <prefix>/<uuid><ext> and returns the object's public URL.
func (u *S3Uploader) UploadFromURL(ctx context.Context, sourceURL string) (string, error) {
	data, contentType, err := u.downloader.Download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	objectKey := u.objectKey(sourceURL)

	_, err = u.client.PutObject(
		ctx,
		u.cfg.Bucket,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		miniogo.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{"source-url": sourceURL},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	storedURL := u.publicURL(objectKey)

	u.logger.Debug("Uploaded image",
		"object_key", objectKey,
		"bytes", len(data),
		"stored_url", storedURL,
	)

	return storedURL, nil
}

func (u *S3Uploader) objectKey(sourceURL string) string {
	ext := path.Ext(sourceURL)
	if idx := strings.IndexAny(ext, "?&"); idx > -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}

	prefix := strings.Trim(u.cfg.KeyPrefix, "/")
	if prefix == "" {
		prefix = "scraped"
	}

	return fmt.Sprintf("%s/%s%s", prefix, uuid.New(), ext)
}

// publicURL builds an endpoint-style URL for MinIO deployments and a
// virtual-host style URL for AWS.
func (u *S3Uploader) publicURL(objectKey string) string {
	if u.cfg.Endpoint != "" {
		endpoint := strings.TrimRight(u.cfg.Endpoint, "/")
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			scheme := "http"
			if u.cfg.UseSSL {
				scheme = "https"
			}
			endpoint = scheme + "://" + endpoint
		}
		return fmt.Sprintf("%s/%s/%s", endpoint, u.cfg.Bucket, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.cfg.Bucket, objectKey)
}
