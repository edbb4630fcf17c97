package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"abante-news-scraper/internal/scraper"
)

// LoadSelectors loads the site selectors from a YAML file.
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read selectors file: %w", err)
	}

	var selectors scraper.Selectors
	if err := yaml.Unmarshal(data, &selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// LoadSiteSelectors resolves the configured selectors file relative to the
// configs directory when the path is not absolute.
func (c *Config) LoadSiteSelectors() (*scraper.Selectors, error) {
	filePath := c.SelectorsFile
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join("configs", filePath)
	}
	return LoadSelectors(filePath)
}

func validateSelectors(s *scraper.Selectors) error {
	if s.Listing.CardSelector == "" {
		return fmt.Errorf("listing.card_selector is required")
	}
	if len(s.Listing.TitleSelectors) == 0 {
		return fmt.Errorf("listing.title_selectors is required")
	}
	if len(s.Listing.URLSelectors) == 0 {
		return fmt.Errorf("listing.url_selectors is required")
	}
	if len(s.Listing.ImageSelectors) == 0 {
		return fmt.Errorf("listing.image_selectors is required")
	}
	if len(s.Detail.AuthorSelectors) == 0 {
		return fmt.Errorf("detail.author_selectors is required")
	}
	if s.Detail.ContentSelector == "" {
		return fmt.Errorf("detail.content_selector is required")
	}
	if len(s.Detail.TagSelectors) == 0 {
		return fmt.Errorf("detail.tag_selectors is required")
	}
	if len(s.Detail.DateSelectors) == 0 {
		return fmt.Errorf("detail.date_selectors is required")
	}
	if len(s.Detail.DateFormats) == 0 {
		return fmt.Errorf("detail.date_formats is required")
	}
	return nil
}
