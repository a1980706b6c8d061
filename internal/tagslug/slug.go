// Package tagslug converts free-text tag names into URL-safe slugs.
// Two display names that slug identically are the same tag; the slug,
// not the display name, is the dedup key for tag upserts.
package tagslug

import (
	"regexp"
	"strings"
)

var (
	invalidChars    = regexp.MustCompile(`[^a-z0-9\-_]+`)
	repeatedHyphens = regexp.MustCompile(`-+`)
)

// Make lowercases the name, replaces every run of characters outside
// [a-z0-9-_] with a hyphen, collapses repeated hyphens and trims
// leading/trailing ones.
func Make(name string) string {
	s := strings.ToLower(name)
	s = invalidChars.ReplaceAllString(s, "-")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
