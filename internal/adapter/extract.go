package adapter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// extractText runs readability over the page, strips any markup the
// extraction left behind and normalizes whitespace.
func extractText(pageURL, html string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := stripPolicy.Sanitize(article.TextContent)
	return normalizeWhitespace(text), nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
