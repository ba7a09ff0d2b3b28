// Package htmlsanitize detects markup in short user-supplied labels.
package htmlsanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute. Policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from s and returns the text with HTML
// entities decoded.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}

// HasMarkup reports whether s contains tags, comments, or entities that the
// strict policy would remove or rewrite.
func HasMarkup(s string) bool {
	return PlainText(s) != s
}
