package scraper

import (
	"fmt"
	"strings"
	"time"
)

// DateParser turns the site's textual publish dates into UTC timestamps.
type DateParser struct {
	formats []string
}

// NewDateParser takes reference-time layouts tried in order, e.g.
// "January 2, 2006".
func NewDateParser(formats []string) *DateParser {
	return &DateParser{formats: formats}
}

// Parse returns the publish date at UTC midnight.
func (dp *DateParser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range dp.formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %q", dateStr)
}
