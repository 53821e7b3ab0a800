package seed

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starsight/starsight-be/pkg/starsight"
	"github.com/starsight/starsight-be/pkg/starsight/repo/memory"
	memorystorage "github.com/starsight/starsight-be/pkg/starsight/storage/memory"
)

const siteFixture = `
images:
  - key: glacier
    title: Glacier
    file: images/glacier.png
    tags: [ice]
documents:
  - key: report
    title: Annual report
    file: docs/report.pdf
topics:
  - key: climate
    name: Climate & Policy
authors:
  - key: jane
    username: jdoe
    first_name: Jane
    email: jane@example.com
    image: glacier
pages:
  - key: home
    kind: home.HomePage
    title: Home
    hero_image: glacier
    hero_image_alt: Sea ice
    publish: true
  - key: articles
    kind: articles.ArticleListingPage
    parent: home
    title: Articles
    show_in_menus: true
    publish: true
  - key: melt
    kind: articles.articledetailpage
    parent: articles
    title: The big melt
    preview_text: "<p>Ice is <b>leaving</b>.</p>"
    topic: climate
    image: glacier
    alt: A glacier
    tags: [arctic]
    authors: [jane]
    publish: true
    publish_at: 2024-03-01T09:00:00Z
    content:
      - type: article_rich_text_block
        value: '<p>The ice is <b>leaving</b>, <i>fast</i>.</p>'
      - type: detailed_image_block
        value:
          title: Front
          image: glacier
          alt: Glacier front
      - type: references_block
        value:
          references:
            - reference: IPCC 2023
              url: https://ipcc.ch
  - key: draft
    kind: articles.ArticleDetailPage
    parent: articles
    title: Draft
    preview_text: "<p>Soon</p>"
    topic: climate
    image: glacier
    alt: A glacier
    authors: [jane]
navigations:
  - key: header
    title: Header
    links:
      - title: Articles
        page: articles
      - title: IPCC
        url: https://ipcc.ch
        open_in_new_page: true
`

func testFiles(t *testing.T) fstest.MapFS {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return fstest.MapFS{
		"images/glacier.png": {Data: buf.Bytes()},
		"docs/report.pdf":    {Data: []byte("%PDF-1.7")},
	}
}

func newService(t *testing.T) starsight.Service {
	t.Helper()
	svc, err := starsight.New(
		starsight.WithRepository(memory.New()),
		starsight.WithBlobStore(memorystorage.New()),
	)
	require.NoError(t, err)
	return svc
}

func TestSeeder_Apply(t *testing.T) {
	fixture, err := Decode(strings.NewReader(siteFixture))
	require.NoError(t, err)

	ctx := context.Background()
	svc := newService(t)
	res, err := New(svc, testFiles(t), nil).Apply(ctx, fixture)
	require.NoError(t, err)

	assert.Len(t, res.Pages, 4)
	assert.Contains(t, res.Navigations, "header")

	img, err := svc.GetImage(ctx, res.Images["glacier"])
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)

	melt, err := svc.ResolvePage(ctx, starsight.BySlug("the-big-melt"))
	require.NoError(t, err)
	assert.Equal(t, res.Pages["melt"], melt.ID)
	require.NotNil(t, melt.Article)
	assert.Equal(t, []int64{res.Authors["jane"]}, melt.Article.AuthorIDs)
	require.Len(t, melt.Article.Content, 3)

	rich := melt.Article.Content[0].Value.(starsight.RichTextBlock)
	assert.Equal(t, "<p>The ice is <b>leaving</b>, <i>fast</i>.</p>", rich.Source)

	pic := melt.Article.Content[1].Value.(starsight.DetailedImageBlock)
	assert.Equal(t, res.Images["glacier"], pic.ImageID)

	_, err = svc.ResolvePage(ctx, starsight.ByID(res.Pages["draft"]))
	assert.ErrorIs(t, err, starsight.ErrNotFound)

	nav, err := svc.ResolveNavigation(ctx, starsight.BySlug("header"))
	require.NoError(t, err)
	require.Len(t, nav.Links, 2)
}

func TestSeeder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		wantErr string
	}{
		{
			name:    "missing file",
			fixture: "images:\n  - key: x\n    title: X\n    file: nope.png\n",
			wantErr: `image "x"`,
		},
		{
			name:    "unknown parent",
			fixture: "pages:\n  - key: a\n    kind: articles.ArticleListingPage\n    parent: home\n    title: A\n",
			wantErr: `unknown page "home"`,
		},
		{
			name:    "unknown kind",
			fixture: "pages:\n  - key: a\n    kind: blog.BlogPage\n    title: A\n",
			wantErr: `page "a"`,
		},
		{
			name:    "unknown navigation target",
			fixture: "navigations:\n  - key: n\n    title: N\n    links:\n      - title: L\n        page: gone\n",
			wantErr: `unknown page "gone"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture, err := Decode(strings.NewReader(tt.fixture))
			require.NoError(t, err)
			_, err = New(newService(t), testFiles(t), nil).Apply(context.Background(), fixture)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestContentBlock_UnknownType(t *testing.T) {
	fixture, err := Decode(strings.NewReader("pages:\n  - key: a\n    content:\n      - type: embed_block\n        value: x\n"))
	require.NoError(t, err)
	_, err = contentBlock(newResult(), fixture.Pages[0].Content[0])
	assert.ErrorIs(t, err, starsight.ErrUnknownBlockType)
}

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Pages)

	_, err = Decode(strings.NewReader("pagez: []\n"))
	assert.Error(t, err)
}

func TestExampleFixture(t *testing.T) {
	data, err := os.ReadFile("testdata/site.yaml")
	require.NoError(t, err)
	fixture, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = New(newService(t), os.DirFS("testdata"), nil).Apply(context.Background(), fixture)
	require.NoError(t, err)
}
