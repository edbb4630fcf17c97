package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"abante-news-scraper/internal/observability"
)

// RobotsCache caches robots.txt per host with a TTL. Fetch failures are
// treated as "allowed": a missing robots.txt must not stall the pipeline.
type RobotsCache struct {
	cache  map[string]*robotsEntry
	ttl    time.Duration
	mu     sync.RWMutex
	logger *observability.Logger
}

type robotsEntry struct {
	disallow  []string
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:  make(map[string]*robotsEntry),
		ttl:    ttl,
		logger: logger,
	}
}

// IsAllowed reports whether urlStr may be fetched according to the host's
// robots.txt.
func (rc *RobotsCache) IsAllowed(ctx context.Context, host, urlStr string, client *http.Client) (bool, error) {
	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		return !isDisallowed(cached.disallow, urlStr), nil
	}

	robotsURL := fmt.Sprintf("https://%s/robots.txt", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true, nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return true, nil
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			rc.logger.Warn("Failed to close robots.txt body", "error", closeErr.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return true, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, nil
	}

	disallow := parseDisallowRules(string(body))

	rc.mu.Lock()
	rc.cache[host] = &robotsEntry{
		disallow:  disallow,
		expiresAt: time.Now().Add(rc.ttl),
	}
	rc.mu.Unlock()

	return !isDisallowed(disallow, urlStr), nil
}

// parseDisallowRules extracts Disallow prefixes that apply to User-agent: *.
// Named-agent groups are ignored; we identify as a generic scraper.
func parseDisallowRules(content string) []string {
	var rules []string
	applies := false

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx > -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			applies = value == "*"
		case "disallow":
			if applies && value != "" {
				rules = append(rules, value)
			}
		}
	}

	return rules
}

func isDisallowed(rules []string, urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}
	for _, rule := range rules {
		if strings.HasPrefix(path, rule) {
			return true
		}
	}
	return false
}
