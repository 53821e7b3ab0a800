package starsight_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starsight/starsight-be/pkg/starsight"
)

func TestSerializer_RenderRichText(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	doc, err := s.svc.CreateDocument(ctx, starsight.CreateDocumentRequest{Title: "Data", FileName: "data.csv"}, strings.NewReader("a,b"))
	require.NoError(t, err)

	ser := starsight.NewSerializer(s.svc, "https://site.example", "/api/v2/")
	imageURL, err := s.svc.FileURL(ctx, s.image.File)
	require.NoError(t, err)
	docURL, err := s.svc.FileURL(ctx, doc.File)
	require.NoError(t, err)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "page link",
			src:  fmt.Sprintf(`<p><a linktype="page" id="%d">read</a></p>`, s.listing.ID),
			want: `<p><a href="/articles/">read</a></p>`,
		},
		{
			name: "missing page link",
			src:  `<p><a linktype="page" id="424242">gone</a></p>`,
			want: `<p><a>gone</a></p>`,
		},
		{
			name: "document link",
			src:  fmt.Sprintf(`<a linktype="document" id="%d">csv</a>`, doc.ID),
			want: `<a href="` + docURL + `">csv</a>`,
		},
		{
			name: "image embed",
			src:  fmt.Sprintf(`<embed embedtype="image" id="%d" format="left" alt="Floe"/>`, s.image.ID),
			want: `<img alt="Floe" src="` + imageURL + `" class="richtext-image left">`,
		},
		{
			name: "missing image embed",
			src:  `<embed embedtype="image" id="999" alt="x"/>`,
			want: `<img alt="x" class="richtext-image">`,
		},
		{
			name: "external links and formatting untouched",
			src:  `<p><b>Bold</b> <a href="https://x.org">x</a></p>`,
			want: `<p><b>Bold</b> <a href="https://x.org">x</a></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ser.RenderRichText(ctx, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializer_Stream(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	ser := starsight.NewSerializer(s.svc, "https://site.example", "/api/v2")
	imageURL, err := s.svc.FileURL(ctx, s.image.File)
	require.NoError(t, err)

	stream := starsight.StreamValue{
		{ID: "c", Value: starsight.ReferencesBlock{}},
		{ID: "a", Value: starsight.RichTextBlock{Source: "<p>first</p>"}},
		{ID: "b", Value: starsight.DetailedImageBlock{Title: "Floe", ImageID: s.image.ID, ImageAlt: "ice", Caption: "cap"}},
		{ID: "d", Value: starsight.DetailedImageBlock{ImageID: 999, ImageAlt: "gone"}},
	}
	out, err := ser.Stream(ctx, stream)
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type": "references_block", "value": {"references": []}, "id": "c"},
		{"type": "article_rich_text_block", "value": "<p>first</p>", "id": "a"},
		{"type": "detailed_image_block", "value": {"title": "Floe", "image": "`+imageURL+`", "alt": "ice", "caption": "cap"}, "id": "b"},
		{"type": "detailed_image_block", "value": {"title": "", "image": null, "alt": "gone", "caption": ""}, "id": "d"}
	]`, string(raw))
}

func TestSerializer_PageDetail(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	ser := starsight.NewSerializer(s.svc, "https://site.example/", "api/v2")

	listing, err := s.svc.GetPage(ctx, s.listing.ID)
	require.NoError(t, err)
	out, err := ser.PageDetail(ctx, listing)
	require.NoError(t, err)

	meta := out["meta"].(map[string]any)
	assert.Equal(t, "https://site.example/api/v2/pages/"+starsight.FormatID(listing.ID)+"/", meta["detail_url"])
	assert.Equal(t, "https://site.example/articles/", meta["html_url"])
	assert.Equal(t, 0, out["total_post_number"])
	assert.NotContains(t, out, "hero_image")

	t.Run("kind body missing", func(t *testing.T) {
		bare := &starsight.Page{ID: 77, Kind: starsight.KindArticleDetailPage, Path: listing.Path + "77/", ParentID: &listing.ID, Slug: "bare"}
		out, err := ser.PageDetail(ctx, bare)
		require.NoError(t, err)
		assert.Equal(t, []string{}, out["tags"])
		assert.Nil(t, out["topic"])
		assert.Nil(t, out["image"])
	})
}

// summaryCounter counts listing summaries computed through it.
type summaryCounter struct {
	starsight.Service
	calls int
}

func (c *summaryCounter) ListingSummary(ctx context.Context, listing *starsight.Page) (*starsight.ListingSummary, error) {
	c.calls++
	return c.Service.ListingSummary(ctx, listing)
}

func TestSerializer_ListingSummaryOncePerPage(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	s.publishedArticle(t, "Sea ice", base)

	counter := &summaryCounter{Service: s.svc}
	ser := starsight.NewSerializer(counter, "https://site.example", "/api/v2")
	listing, err := s.svc.GetPage(ctx, s.listing.ID)
	require.NoError(t, err)

	out, err := ser.PageDetail(ctx, listing)
	require.NoError(t, err)
	assert.Equal(t, 1, out["total_post_number"])
	assert.Len(t, out["front_page_article_posts"], 1)
	assert.Equal(t, 1, counter.calls)

	all, err := starsight.ParseFields("*")
	require.NoError(t, err)
	_, err = ser.PageItem(ctx, listing, all)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.calls)
}

func TestParseFields(t *testing.T) {
	_, err := starsight.ParseFields("title, topic ,")
	assert.NoError(t, err)
	_, err = starsight.ParseFields("*")
	assert.NoError(t, err)
	_, err = starsight.ParseFields("title,owner")
	assert.ErrorIs(t, err, starsight.ErrInvalidFilter)
}

func TestListing(t *testing.T) {
	raw, err := json.Marshal(starsight.Listing[int](0, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta": {"total_count": 0}, "items": []}`, string(raw))
}
