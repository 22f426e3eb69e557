// Package htmlsanitize turns user-supplied free text into safe plain text.
//
// Task names and descriptions come from mobile clients that render them as
// plain text, but the same data is also shown in web views and in prompts sent
// to the text generator, so markup is stripped before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element (script and style contents included)
// and returns unescaped, trimmed plain text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<")
}
