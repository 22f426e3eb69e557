// Package normalize trims and canonicalizes user-supplied values before they
// are validated or stored.
package normalize

import (
	"strings"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a raw query parameter. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Color canonicalizes a hex color to "#rrggbb" (lowercase, leading #).
// Three-digit shorthand is expanded. Values that are not hex colors are
// returned trimmed but otherwise unchanged so validation can reject them.
func Color(s string) string {
	c := strings.ToLower(strings.TrimSpace(s))
	if c == "" {
		return ""
	}
	if !strings.HasPrefix(c, "#") {
		c = "#" + c
	}
	if len(c) == 4 && isHex(c[1:]) {
		c = "#" + string([]byte{c[1], c[1], c[2], c[2], c[3], c[3]})
	}
	return c
}

// Gender folds the free-form gender field to lowercase.
func Gender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
