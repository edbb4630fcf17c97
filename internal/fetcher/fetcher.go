// Package fetcher provides the two page-fetch strategies: a plain HTTP client
// and a headless browser that scrolls listings to the bottom.
package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/observability"
)

// Kind selects a fetch strategy.
type Kind int

const (
	KindHTTP Kind = iota + 1
	KindBrowser
)

// KindFromString maps a config strategy name to a Kind.
func KindFromString(name string) (Kind, error) {
	switch name {
	case config.StrategyHTTP:
		return KindHTTP, nil
	case config.StrategyBrowser:
		return KindBrowser, nil
	default:
		return 0, fmt.Errorf("unknown fetch strategy: %q", name)
	}
}

// Response is the result of fetching a single page.
type Response struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

// Fetcher retrieves the raw HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string) (*Response, error)
}

// Factory hands out fetchers keyed by Kind. The browser fetcher is built
// lazily so runs that never need Chrome never launch it.
type Factory struct {
	cfg     *config.Config
	logger  *observability.Logger
	http    *HTTPFetcher
	browser *BrowserFetcher
}

func NewFactory(cfg *config.Config, logger *observability.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
		http:   NewHTTPFetcher(cfg, logger),
	}
}

// Get returns the fetcher for the given kind.
func (f *Factory) Get(kind Kind) (Fetcher, error) {
	switch kind {
	case KindHTTP:
		return f.http, nil
	case KindBrowser:
		if f.browser == nil {
			f.browser = NewBrowserFetcher(f.cfg, f.logger)
		}
		return f.browser, nil
	default:
		return nil, fmt.Errorf("unknown fetcher kind: %d", kind)
	}
}

// HTTPClient exposes the shared HTTP client for auxiliary downloads such as
// thumbnail images.
func (f *Factory) HTTPClient() *http.Client {
	return f.http.Client()
}

// Close releases the headless browser if it was ever started.
func (f *Factory) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}
