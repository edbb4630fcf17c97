package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDisallowRules(t *testing.T) {
	content := `# site rules
User-agent: Googlebot
Disallow: /google-only/

User-agent: *
Disallow: /admin/
Disallow: /private/ # trailing comment
Disallow:

User-agent: BadBot
Disallow: /
`

	rules := parseDisallowRules(content)
	assert.Equal(t, []string{"/admin/", "/private/"}, rules)
}

func TestParseDisallowRulesEmpty(t *testing.T) {
	assert.Empty(t, parseDisallowRules(""))
	assert.Empty(t, parseDisallowRules("User-agent: *\nAllow: /\n"))
}

func TestIsDisallowed(t *testing.T) {
	rules := []string{"/admin/", "/private/"}

	tests := []struct {
		url        string
		disallowed bool
	}{
		{"https://example.com/admin/users", true},
		{"https://example.com/private/", true},
		{"https://example.com/news/2025/article", false},
		{"https://example.com/", false},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.disallowed, isDisallowed(rules, tt.url), tt.url)
	}
}
