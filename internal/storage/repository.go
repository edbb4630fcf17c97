// Package storage defines the persistence boundary for scraped articles.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("article not found")

// ArticleRow is the persisted shape of an article.
type ArticleRow struct {
	ID             uuid.UUID
	Title          string
	Author         string
	Content        string
	Summary        string
	Tags           []string
	URL            string
	StoredImageURL string
	PublishedAt    *time.Time
	Checksum       string
	SequenceNum    int
}

// ArticleRef is the slice of a row needed to decide what work remains.
type ArticleRef struct {
	ID             uuid.UUID
	URL            string
	Title          string
	StoredImageURL string
}

// DetailUpdate carries the backfilled detail fields. Nil members are left
// untouched in the row.
type DetailUpdate struct {
	Author      *string
	Content     *string
	Summary     *string
	Tags        []string
	PublishedAt *time.Time
	Checksum    *string
}

// Repository is the article store.
type Repository interface {
	// InsertArticle inserts a new article row.
	InsertArticle(ctx context.Context, row *ArticleRow) error

	// GetByURL returns the ref for the article with this URL, or ErrNotFound.
	GetByURL(ctx context.Context, url string) (*ArticleRef, error)

	// UpdateStoredImage sets the uploaded image URL on an existing row.
	UpdateStoredImage(ctx context.Context, id uuid.UUID, imageURL string) error

	// ListMissingDetails returns up to limit articles missing any of
	// author, content, tags or publish date.
	ListMissingDetails(ctx context.Context, limit int) ([]*ArticleRef, error)

	// UpdateDetails applies the non-nil fields of update to the row.
	UpdateDetails(ctx context.Context, id uuid.UUID, update *DetailUpdate) error

	// CountArticles returns the number of stored articles.
	CountArticles(ctx context.Context) (int, error)

	Close() error
}
