package content

import (
	"regexp"
	"strconv"
	"strings"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveSlug lowercases the title, collapses every run of characters
// outside [a-z0-9] into one hyphen and trims hyphens from both ends.
func DeriveSlug(title string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// UniqueSlug returns base if it is free, otherwise base-1, base-2, ...
// until taken reports false.
func UniqueSlug(base string, taken func(string) bool) string {
	slug := base
	for n := 1; taken(slug); n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	return slug
}
