// Package sanitize strips markup from user-supplied text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element, decodes entities and trims the result.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Optional is Text for nullable fields; blank input becomes nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := Text(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// Compact is Text with internal whitespace runs collapsed to one space.
func Compact(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}
