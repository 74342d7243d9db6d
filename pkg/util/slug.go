package util

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]+`)
	slugSeparators   = regexp.MustCompile(`[\s-]+`)
)

// Slugify lowercases s, drops anything that is not an ASCII letter, digit,
// space or hyphen, and joins the remaining words with single hyphens.
func Slugify(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
