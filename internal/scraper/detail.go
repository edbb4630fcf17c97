package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetailScraper pulls author, content, tags, publish date and the og:image
// out of an article detail page.
type DetailScraper struct {
	selectors *Selectors
}

func NewDetailScraper(selectors *Selectors) *DetailScraper {
	return &DetailScraper{selectors: selectors}
}

// ParseDetail extracts the detail fields. Absent fields stay zero; only a
// malformed document is an error.
func (s *DetailScraper) ParseDetail(html string) (*Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	detail := &Detail{
		Author: s.extractAuthor(doc),
		Tags:   s.extractTags(doc),
	}

	detail.Content = s.extractContent(doc)

	for _, selector := range s.selectors.Detail.DateSelectors {
		if raw := strings.TrimSpace(doc.Find(selector).First().Text()); raw != "" {
			detail.PublishedRaw = raw
			break
		}
	}

	if og, exists := doc.Find("meta[property='og:image']").Attr("content"); exists {
		detail.OGImageURL = strings.TrimSpace(og)
	}

	return detail, nil
}

func (s *DetailScraper) extractAuthor(doc *goquery.Document) string {
	for _, selector := range s.selectors.Detail.AuthorSelectors {
		if author := strings.TrimSpace(doc.Find(selector).First().Text()); author != "" {
			return author
		}
	}
	return s.selectors.Detail.AuthorFallback
}

// extractContent joins paragraph texts under the content container with
// newlines. Nested inline markup contributes its text.
func (s *DetailScraper) extractContent(doc *goquery.Document) string {
	var paragraphs []string
	doc.Find(s.selectors.Detail.ContentSelector).Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n")
}

func (s *DetailScraper) extractTags(doc *goquery.Document) []string {
	tags := []string{}
	for _, selector := range s.selectors.Detail.TagSelectors {
		doc.Find(selector).Each(func(_ int, tag *goquery.Selection) {
			if text := strings.TrimSpace(tag.Text()); text != "" {
				tags = append(tags, text)
			}
		})
		if len(tags) > 0 {
			break
		}
	}
	return tags
}
