// Package model holds the value objects the scraper moves around: the target
// website and the extracted article.
package model

import (
	"fmt"
	"net/url"
)

// Website wraps a validated absolute http(s) URL.
type Website struct {
	url string
}

// NewWebsite validates raw and returns the wrapped URL. Only absolute http
// and https URLs with a host are accepted.
func NewWebsite(raw string) (Website, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Website{}, fmt.Errorf("invalid website URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Website{}, fmt.Errorf("website URL %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return Website{}, fmt.Errorf("website URL %q has no host", raw)
	}
	return Website{url: parsed.String()}, nil
}

// URL returns the normalized URL string.
func (w Website) URL() string {
	return w.url
}

// Host returns the host part of the URL.
func (w Website) Host() string {
	parsed, err := url.Parse(w.url)
	if err != nil {
		return ""
	}
	return parsed.Host
}
