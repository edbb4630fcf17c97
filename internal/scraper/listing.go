package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListingScraper pulls article cards out of a category listing page.
type ListingScraper struct {
	selectors *Selectors
}

func NewListingScraper(selectors *Selectors) *ListingScraper {
	return &ListingScraper{selectors: selectors}
}

// ParseListing returns the cards found on the page. Cards without a title or
// URL are skipped; a missing thumbnail is not fatal.
func (s *ListingScraper) ParseListing(html, baseURL string) ([]*Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var cards []*Card
	sequenceNum := 0

	doc.Find(s.selectors.Listing.CardSelector).Each(func(_ int, sel *goquery.Selection) {
		card := &Card{SequenceNum: sequenceNum}

		card.Title = trySelectors(sel, s.selectors.Listing.TitleSelectors)
		if card.Title == "" {
			return
		}

		rawURL := tryLinkSelectors(sel, s.selectors.Listing.URLSelectors)
		if rawURL == "" {
			return
		}
		card.URL = resolveURL(baseURL, normalizeURL(rawURL))

		if img := trySelectors(sel, s.selectors.Listing.ImageSelectors); img != "" {
			card.ThumbnailURL = resolveURL(baseURL, img)
		}

		cards = append(cards, card)
		sequenceNum++
	})

	return cards, nil
}

// FindNextPageLink returns the next-page URL or "" when the listing ends.
func (s *ListingScraper) FindNextPageLink(html, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range s.selectors.Listing.NextPageLinks {
		href, exists := doc.Find(selector).First().Attr("href")
		if exists && href != "" {
			return resolveURL(baseURL, normalizeURL(href)), nil
		}
	}

	return "", nil
}

// trySelectors walks the chain and returns the first non-empty text, href or
// src it finds.
func trySelectors(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		found := s.Find(selector).First()
		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
		if attr, exists := found.Attr("href"); exists && attr != "" {
			return attr
		}
		if attr, exists := found.Attr("src"); exists && attr != "" {
			return attr
		}
	}
	return ""
}

// tryLinkSelectors walks the chain and returns the first non-empty href. Link
// chains never fall back to element text; a titled anchor must still yield its
// target, not its label.
func tryLinkSelectors(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if href, exists := s.Find(selector).First().Attr("href"); exists && href != "" {
			return href
		}
	}
	return ""
}

// normalizeURL trims whitespace and strips fragments.
func normalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// resolveURL makes relative links absolute against the page URL.
func resolveURL(baseURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
