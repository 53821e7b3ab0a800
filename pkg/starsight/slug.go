package starsight

import (
	"regexp"

	"github.com/gosimple/slug"
)

var (
	// slugDropChars are removed before slugifying so that symbols vanish
	// instead of being spelled out ("&" would otherwise become "and").
	slugDropChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

	lookupSlugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Slugify derives the url slug of a display name: symbols are dropped,
// letters are transliterated to ASCII and lowercased, and runs of whitespace
// or hyphens collapse into a single hyphen.
//
//	Slugify("Climate & Policy") == "climate-policy"
func Slugify(s string) string {
	return slug.Make(slugDropChars.ReplaceAllString(s, ""))
}

// IsSlug reports whether s is a canonical slug (what Slugify produces).
func IsSlug(s string) bool {
	return slug.IsSlug(s)
}

// isLookupSlug reports whether s is acceptable as a slug in a lookup key.
func isLookupSlug(s string) bool {
	return lookupSlugPattern.MatchString(s)
}
