package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"abante-news-scraper/internal/config"
	"abante-news-scraper/internal/observability"
)

// BrowserFetcher drives a headless browser: navigate, wait for the configured
// DOM node, scroll until the page height stops growing or the scroll timeout
// elapses, then return the rendered source. Used for listings that lazy-load
// cards.
type BrowserFetcher struct {
	cfg     *config.Config
	logger  *observability.Logger
	mu      sync.Mutex
	browser *rod.Browser
}

func NewBrowserFetcher(cfg *config.Config, logger *observability.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:    cfg,
		logger: logger,
	}
}

// connect launches the browser on first use.
func (f *BrowserFetcher) connect() (*rod.Browser, error) {
	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().Headless(f.cfg.Browser.Headless)
	if f.cfg.Browser.ChromePath != "" {
		l = l.Bin(f.cfg.Browser.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.browser = browser
	f.logger.Info("Headless browser started", "headless", f.cfg.Browser.Headless)
	return browser, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, urlStr string) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	browser, err := f.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			f.logger.Warn("Failed to close page", "error", closeErr.Error())
		}
	}()

	page = page.Context(ctx).Timeout(f.cfg.GetBrowserPageTimeout())

	if err := page.Navigate(urlStr); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", urlStr, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to wait for page load: %w", err)
	}

	if f.cfg.Browser.WaitSelector != "" {
		if _, err := page.Element(f.cfg.Browser.WaitSelector); err != nil {
			return nil, fmt.Errorf("wait selector %q never appeared: %w", f.cfg.Browser.WaitSelector, err)
		}
	}

	if err := f.scrollToBottom(ctx, page); err != nil {
		return nil, fmt.Errorf("scroll failed: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page source: %w", err)
	}

	f.logger.Debug("Browser fetch complete", "url", urlStr, "bytes", len(html))

	return &Response{
		StatusCode: http.StatusOK,
		Body:       []byte(html),
		URL:        urlStr,
		Headers:    http.Header{},
	}, nil
}

// scrollToBottom scrolls in steps until the document height holds steady for
// ScrollStableSamples consecutive samples or the scroll timeout elapses.
func (f *BrowserFetcher) scrollToBottom(ctx context.Context, page *rod.Page) error {
	deadline := time.Now().Add(f.cfg.GetScrollTimeout())
	lastHeight := -1
	stable := 0

	for time.Now().Before(deadline) {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return fmt.Errorf("scroll step failed: %w", err)
		}

		select {
		case <-time.After(f.cfg.GetScrollStepDelay()):
		case <-ctx.Done():
			return ctx.Err()
		}

		res, err := page.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			return fmt.Errorf("failed to read page height: %w", err)
		}
		height := res.Value.Int()

		if height == lastHeight {
			stable++
			if stable >= f.cfg.Browser.ScrollStableSamples {
				return nil
			}
		} else {
			stable = 0
			lastHeight = height
		}
	}

	// Timeout is not an error: take whatever has loaded so far.
	f.logger.Debug("Scroll timeout reached", "last_height", lastHeight)
	return nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}
