package starsight

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Lookup identifies a single record either by id or by slug.
type Lookup struct {
	ID   int64
	Slug string
	byID bool
}

// ByID returns a lookup by numeric id.
func ByID(id int64) Lookup { return Lookup{ID: id, byID: true} }

// BySlug returns a lookup by slug.
func BySlug(s string) Lookup { return Lookup{Slug: s} }

// IsID reports whether the lookup is by id.
func (l Lookup) IsID() bool { return l.byID }

func (l Lookup) String() string {
	if l.byID {
		return strconv.FormatInt(l.ID, 10)
	}
	return l.Slug
}

// ParseLookup interprets a detail path segment. A key made only of digits is
// an id; otherwise it must be a slug of letters, digits, hyphens and
// underscores.
func ParseLookup(key string) (Lookup, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Lookup{}, ErrInvalidLookup
	}
	if isDigits(key) {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return Lookup{}, fmt.Errorf("%w: %v", ErrInvalidLookup, err)
		}
		return ByID(id), nil
	}
	if !isLookupSlug(key) {
		return Lookup{}, ErrInvalidLookup
	}
	return BySlug(key), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Finder binds a record type to its id and slug queries. BySlug returns
// every record in the lookup scope carrying the slug. A nil BySlug makes the
// record addressable by id only.
type Finder[T any] struct {
	ByID     func(ctx context.Context, id int64) (T, error)
	BySlug   func(ctx context.Context, slug string) ([]T, error)
	NotFound error
}

// Resolve selects the record identified by l. A slug shared by several
// records yields an *AmbiguousSlugError instead of an arbitrary pick.
func Resolve[T any](ctx context.Context, f Finder[T], l Lookup) (T, error) {
	var zero T
	if l.byID {
		return f.ByID(ctx, l.ID)
	}
	if l.Slug == "" || f.BySlug == nil {
		return zero, ErrInvalidLookup
	}
	matches, err := f.BySlug(ctx, l.Slug)
	if err != nil {
		return zero, err
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("slug %q: %w", l.Slug, f.NotFound)
	case 1:
		return matches[0], nil
	default:
		return zero, &AmbiguousSlugError{Slug: l.Slug, Count: len(matches)}
	}
}
