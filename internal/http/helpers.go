package http

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitizeInput strips markup and control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	// StrictPolicy escapes what it keeps; unescape so "&" stays "&".
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
