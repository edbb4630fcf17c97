// Package normalize cleans extracted article text before it is persisted.
package normalize

import (
	"regexp"
	"strings"

	"abante-news-scraper/internal/config"
)

type Normalizer struct {
	cfg        *config.Config
	stripRes   []*regexp.Regexp
	newlinesRe *regexp.Regexp
	spacesRe   *regexp.Regexp
}

func NewNormalizer(cfg *config.Config) *Normalizer {
	n := &Normalizer{
		cfg:        cfg,
		newlinesRe: regexp.MustCompile(`\n+`),
		spacesRe:   regexp.MustCompile(`[ \t]+`),
	}
	for _, block := range cfg.Normalize.StripBlocks {
		n.stripRes = append(n.stripRes, regexp.MustCompile(`(?i)[ \t]*`+regexp.QuoteMeta(block)+`[ \t]*`))
	}
	return n
}

// CleanContent strips configured junk markers, replaces NBSP, collapses
// whitespace and trims the result.
func (n *Normalizer) CleanContent(text string) string {
	for _, re := range n.stripRes {
		text = re.ReplaceAllString(text, "")
	}

	if n.cfg.Normalize.TrimNBSP {
		text = strings.ReplaceAll(text, " ", " ")
	}

	if n.cfg.Normalize.CollapseSpaces {
		text = n.spacesRe.ReplaceAllString(text, " ")
	}

	// Empty lines left behind by stripped markers collapse away.
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	text = strings.Join(lines, "\n")

	return strings.TrimSpace(text)
}

// Summarize returns the first summary_sentences sentences of the cleaned
// content, or "" when there is nothing to summarize.
func (n *Normalizer) Summarize(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	sentences := strings.Split(content, ".")
	var kept []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		kept = append(kept, sentence)
		if len(kept) >= n.cfg.Normalize.SummarySentences {
			break
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ". ") + "."
}

// TruncatePreview cuts text at the configured rune budget on a word boundary.
func (n *Normalizer) TruncatePreview(text string) string {
	limit := n.cfg.Normalize.MaxPreviewChars
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	truncated := string(runes[:limit])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}
	return truncated + "…"
}
