// Package checksum fingerprints article content so re-scrapes can tell
// changed articles from untouched ones.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"time"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ContentHash returns SHA256(url|title|content|date_iso) hex-encoded. The
// date contributes only its day so intra-day timestamp noise never flips the
// hash.
func (g *Generator) ContentHash(url, title, content string, date time.Time) string {
	dateISO := date.UTC().Format("2006-01-02")
	payload := fmt.Sprintf("%s|%s|%s|%s", url, title, content, dateISO)
	hash := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("%x", hash)
}

// Verify reports whether the stored hash still matches the content.
func (g *Generator) Verify(expectedHash, url, title, content string, date time.Time) bool {
	return g.ContentHash(url, title, content, date) == expectedHash
}
