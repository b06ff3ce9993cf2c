package sanitizer

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
}

// StripHTML removes every tag and returns plain text.
// Entities produced by the policy are decoded so "&" stays "&".
func StripHTML(s string) string {
	initPolicies()
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// DisplayName strips markup from a user chosen name, collapses runs of
// whitespace and truncates the result to maxRunes runes.
// A non-positive maxRunes disables truncation.
func DisplayName(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(StripHTML(s)), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:maxRunes]))
}
