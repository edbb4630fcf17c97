// Package scraper extracts article data out of listing and detail pages using
// selector chains loaded from configuration.
package scraper

// Card is one article entry on a listing page.
type Card struct {
	Title        string
	URL          string
	ThumbnailURL string
	SequenceNum  int
}

// Detail is what a detail page yields beyond a card.
type Detail struct {
	Author       string
	Content      string
	Tags         []string
	PublishedRaw string
	OGImageURL   string
}

// Selectors describe one site's markup. Each field takes a chain tried in
// order so minor markup drift is a selectors-file edit, not a code change.
type Selectors struct {
	Listing ListingSelectors `yaml:"listing"`
	Detail  DetailSelectors  `yaml:"detail"`
}

type ListingSelectors struct {
	CardSelector   string   `yaml:"card_selector"`
	TitleSelectors []string `yaml:"title_selectors"`
	URLSelectors   []string `yaml:"url_selectors"`
	ImageSelectors []string `yaml:"image_selectors"`
	NextPageLinks  []string `yaml:"next_page_links"`
}

type DetailSelectors struct {
	AuthorSelectors []string `yaml:"author_selectors"`
	// AuthorFallback is used when no byline is present on the page.
	AuthorFallback  string   `yaml:"author_fallback"`
	ContentSelector string   `yaml:"content_selector"`
	TagSelectors    []string `yaml:"tag_selectors"`
	DateSelectors   []string `yaml:"date_selectors"`
	// DateFormats are Go reference-time layouts tried in order.
	DateFormats []string `yaml:"date_formats"`
}
