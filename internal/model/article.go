package model

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Article is the unit of extraction. Empty strings are legal values for
// Title, Author and Content; a malformed URL is not.
type Article struct {
	ID      uuid.UUID
	Title   string
	Author  string
	Content string
	Summary string
	Tags    []string
	// URL is the canonical article URL on the source site.
	URL string
	// SourceImageURL is the thumbnail src as found in the markup.
	SourceImageURL string
	// StoredImageURL is where the thumbnail ended up after upload. Empty
	// until the media pipeline has run.
	StoredImageURL string
	PublishedAt    *time.Time
}

// NewArticle builds an article with a generated id and non-nil tags.
func NewArticle(title, author, content string) *Article {
	return &Article{
		ID:      uuid.New(),
		Title:   title,
		Author:  author,
		Content: content,
		Tags:    []string{},
	}
}

// SetURL validates and assigns the canonical article URL.
func (a *Article) SetURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid article URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("article URL %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("article URL %q has no host", raw)
	}
	a.URL = parsed.String()
	return nil
}

// ParseID parses a textual article id, rejecting anything that is not a UUID.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid article id %q: %w", raw, err)
	}
	return id, nil
}
