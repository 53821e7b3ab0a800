package starsight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLookup(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    Lookup
		wantErr bool
	}{
		{name: "numeric id", key: "42", want: ByID(42)},
		{name: "leading zeros are still an id", key: "007", want: ByID(7)},
		{name: "slug", key: "climate-policy", want: BySlug("climate-policy")},
		{name: "slug with underscore and digits", key: "post_2024", want: BySlug("post_2024")},
		{name: "mixed digits and letters is a slug", key: "42a", want: BySlug("42a")},
		{name: "empty", key: "", wantErr: true},
		{name: "dot", key: "post.0", wantErr: true},
		{name: "space", key: "two words", wantErr: true},
		{name: "id overflow", key: "99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLookup(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLookup)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupString(t *testing.T) {
	assert.Equal(t, "12", ByID(12).String())
	assert.Equal(t, "header", BySlug("header").String())
	assert.True(t, ByID(0).IsID())
	assert.False(t, BySlug("0").IsID())
}

type record struct {
	id   int64
	slug string
}

func recordFinder(records ...record) Finder[record] {
	notFound := errors.New("record not found")
	return Finder[record]{
		ByID: func(ctx context.Context, id int64) (record, error) {
			for _, r := range records {
				if r.id == id {
					return r, nil
				}
			}
			return record{}, notFound
		},
		BySlug: func(ctx context.Context, slug string) ([]record, error) {
			var out []record
			for _, r := range records {
				if r.slug == slug {
					out = append(out, r)
				}
			}
			return out, nil
		},
		NotFound: ErrNavigationNotFound,
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	finder := recordFinder(
		record{id: 1, slug: "header"},
		record{id: 2, slug: "footer"},
		record{id: 3, slug: "footer"},
	)

	t.Run("by id", func(t *testing.T) {
		got, err := Resolve(ctx, finder, ByID(2))
		require.NoError(t, err)
		assert.Equal(t, "footer", got.slug)
	})

	t.Run("unique slug", func(t *testing.T) {
		got, err := Resolve(ctx, finder, BySlug("header"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.id)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := Resolve(ctx, finder, BySlug("sidebar"))
		assert.ErrorIs(t, err, ErrNavigationNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("shared slug", func(t *testing.T) {
		_, err := Resolve(ctx, finder, BySlug("footer"))
		var ambiguous *AmbiguousSlugError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, "footer", ambiguous.Slug)
		assert.Equal(t, 2, ambiguous.Count)
		assert.ErrorIs(t, err, ErrAmbiguousSlug)
	})

	t.Run("id only finder", func(t *testing.T) {
		idOnly := finder
		idOnly.BySlug = nil
		_, err := Resolve(ctx, idOnly, BySlug("header"))
		assert.ErrorIs(t, err, ErrInvalidLookup)
	})

	t.Run("by-slug errors propagate", func(t *testing.T) {
		boom := errors.New("connection reset")
		broken := finder
		broken.BySlug = func(ctx context.Context, slug string) ([]record, error) { return nil, boom }
		_, err := Resolve(ctx, broken, BySlug("header"))
		assert.ErrorIs(t, err, boom)
	})
}
