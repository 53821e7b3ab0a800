package starsight_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starsight/starsight-be/pkg/starsight"
	"github.com/starsight/starsight-be/pkg/starsight/repo/memory"
	memorystorage "github.com/starsight/starsight-be/pkg/starsight/storage/memory"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []starsight.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []starsight.Option{},
			expectError: true,
		},
		{
			name: "with repository should succeed",
			options: []starsight.Option{
				starsight.WithRepository(memory.New()),
			},
		},
		{
			name: "with repository and blob store should succeed",
			options: []starsight.Option{
				starsight.WithRepository(memory.New()),
				starsight.WithBlobStore(memorystorage.New()),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := starsight.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

// site holds a service with a home page, a listing page and the records
// articles reference.
type site struct {
	svc     starsight.Service
	repo    *memory.Repository
	image   *starsight.Image
	topic   *starsight.Topic
	author  *starsight.Author
	home    *starsight.Page
	listing *starsight.Page
}

func newSite(t *testing.T) *site {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	svc, err := starsight.New(
		starsight.WithRepository(repo),
		starsight.WithBlobStore(memorystorage.New()),
		starsight.WithClock(func() time.Time { return base }),
	)
	require.NoError(t, err)

	s := &site{svc: svc, repo: repo}
	s.image, err = svc.CreateImage(ctx, starsight.CreateImageRequest{Title: "Ice", FileName: "ice.png", Width: 10, Height: 20}, strings.NewReader("png"))
	require.NoError(t, err)
	s.topic, err = svc.SaveTopic(ctx, starsight.SaveTopicRequest{Name: "Oceans"})
	require.NoError(t, err)
	s.author, err = svc.SaveAuthor(ctx, starsight.SaveAuthorRequest{Username: "kim"})
	require.NoError(t, err)

	s.home, err = svc.CreatePage(ctx, starsight.CreatePageRequest{
		Kind:  starsight.KindHomePage,
		Title: "Home",
		Home:  &starsight.HomeFields{HeroImageID: &s.image.ID, HeroImageAlt: "ice"},
	})
	require.NoError(t, err)
	s.listing, err = svc.CreatePage(ctx, starsight.CreatePageRequest{
		Kind: starsight.KindArticleListingPage, ParentID: &s.home.ID, Title: "Articles",
	})
	require.NoError(t, err)
	for _, p := range []*starsight.Page{s.home, s.listing} {
		_, err := svc.PublishPage(ctx, starsight.PublishPageRequest{PageID: p.ID})
		require.NoError(t, err)
	}
	return s
}

func (s *site) articleRequest(title string) starsight.CreatePageRequest {
	return starsight.CreatePageRequest{
		Kind:     starsight.KindArticleDetailPage,
		ParentID: &s.listing.ID,
		Title:    title,
		Article: &starsight.ArticleFields{
			PreviewText: "<p>preview</p>",
			TopicID:     &s.topic.ID,
			ImageID:     &s.image.ID,
			Alt:         "alt",
			AuthorIDs:   []int64{s.author.ID},
		},
	}
}

func (s *site) publishedArticle(t *testing.T, title string, at time.Time) *starsight.Page {
	t.Helper()
	ctx := context.Background()
	p, err := s.svc.CreatePage(ctx, s.articleRequest(title))
	require.NoError(t, err)
	p, err = s.svc.PublishPage(ctx, starsight.PublishPageRequest{PageID: p.ID, At: at})
	require.NoError(t, err)
	return p
}

func TestCreatePage_TreeRules(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	t.Run("second home page", func(t *testing.T) {
		_, err := s.svc.CreatePage(ctx, starsight.CreatePageRequest{
			Kind:  starsight.KindHomePage,
			Title: "Home 2",
			Home:  &starsight.HomeFields{HeroImageID: &s.image.ID, HeroImageAlt: "ice"},
		})
		assert.ErrorIs(t, err, starsight.ErrMaxCountReached)
	})

	t.Run("second listing page", func(t *testing.T) {
		_, err := s.svc.CreatePage(ctx, starsight.CreatePageRequest{
			Kind: starsight.KindArticleListingPage, ParentID: &s.home.ID, Title: "More articles",
		})
		assert.ErrorIs(t, err, starsight.ErrMaxCountReached)
	})

	t.Run("article under home", func(t *testing.T) {
		req := s.articleRequest("Misplaced")
		req.ParentID = &s.home.ID
		_, err := s.svc.CreatePage(ctx, req)
		assert.ErrorIs(t, err, starsight.ErrPageTypeNotAllowed)
	})

	t.Run("article under article", func(t *testing.T) {
		parent, err := s.svc.CreatePage(ctx, s.articleRequest("Parent"))
		require.NoError(t, err)
		req := s.articleRequest("Child")
		req.ParentID = &parent.ID
		_, err = s.svc.CreatePage(ctx, req)
		assert.ErrorIs(t, err, starsight.ErrPageTypeNotAllowed)
	})

	t.Run("missing parent", func(t *testing.T) {
		req := s.articleRequest("Orphan")
		missing := int64(999)
		req.ParentID = &missing
		_, err := s.svc.CreatePage(ctx, req)
		assert.ErrorIs(t, err, starsight.ErrPageNotFound)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := s.svc.CreatePage(ctx, starsight.CreatePageRequest{Kind: "blog.BlogPage", Title: "Blog"})
		assert.ErrorIs(t, err, starsight.ErrUnknownPageType)
	})
}

func TestCreatePage_Slugs(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	p, err := s.svc.CreatePage(ctx, s.articleRequest("Rising Seas & Coasts"))
	require.NoError(t, err)
	assert.Equal(t, "rising-seas-coasts", p.Slug)
	assert.Equal(t, s.listing.Path+starsight.FormatID(p.ID)+"/", p.Path)
	assert.False(t, p.Live)
	assert.Equal(t, base, p.CreatedAt)

	_, err = s.svc.CreatePage(ctx, s.articleRequest("Rising seas, coasts"))
	assert.ErrorIs(t, err, starsight.ErrDuplicateSlug)

	req := s.articleRequest("Rising seas, coasts")
	req.Slug = "rising-seas-2"
	p, err = s.svc.CreatePage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "rising-seas-2", p.Slug)

	_, err = s.svc.CreatePage(ctx, s.articleRequest("???"))
	var verr *starsight.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreatePage_Validation(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	t.Run("body required", func(t *testing.T) {
		req := s.articleRequest("No body")
		req.Article = nil
		_, err := s.svc.CreatePage(ctx, req)
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "Article")
	})

	t.Run("references must exist", func(t *testing.T) {
		req := s.articleRequest("Dangling")
		missing := int64(4040)
		req.Article.TopicID = &missing
		req.Article.AuthorIDs = []int64{s.author.ID, missing}
		_, err := s.svc.CreatePage(ctx, req)
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "4040 does not exist", verr.Fields["Article.TopicID"])
		assert.Equal(t, "4040 does not exist", verr.Fields["Article.AuthorIDs"])
	})

	t.Run("content blocks", func(t *testing.T) {
		req := s.articleRequest("Bad content")
		req.Article.Content = starsight.StreamValue{starsight.NewBlock(starsight.RichTextBlock{Source: "<h1>x</h1>"})}
		_, err := s.svc.CreatePage(ctx, req)
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "Article.Content[0]")
	})

	t.Run("home hero image", func(t *testing.T) {
		repo := memory.New()
		svc, err := starsight.New(starsight.WithRepository(repo))
		require.NoError(t, err)
		_, err = svc.CreatePage(ctx, starsight.CreatePageRequest{
			Kind: starsight.KindHomePage, Title: "Home", Home: &starsight.HomeFields{HeroImageAlt: "sky"},
		})
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "is required", verr.Fields["Home.HeroImageID"])
	})
}

func TestPublishPage(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	p := s.publishedArticle(t, "Melt", base.Add(-48*time.Hour))
	assert.True(t, p.Live)
	assert.Equal(t, base.Add(-48*time.Hour), *p.FirstPublishedAt)

	p, err := s.svc.PublishPage(ctx, starsight.PublishPageRequest{PageID: p.ID, At: base})
	require.NoError(t, err)
	assert.Equal(t, base.Add(-48*time.Hour), *p.FirstPublishedAt, "first publication is kept")
	assert.Equal(t, base, *p.LastPublishedAt)

	_, err = s.svc.PublishPage(ctx, starsight.PublishPageRequest{PageID: 31337})
	assert.ErrorIs(t, err, starsight.ErrPageNotFound)

	_, err = s.svc.PublishPage(ctx, starsight.PublishPageRequest{})
	var verr *starsight.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestResolvePage_Visibility(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	live := s.publishedArticle(t, "Live", base)
	draft, err := s.svc.CreatePage(ctx, s.articleRequest("Draft"))
	require.NoError(t, err)

	got, err := s.svc.ResolvePage(ctx, starsight.BySlug("live"))
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = s.svc.ResolvePage(ctx, starsight.ByID(draft.ID))
	assert.ErrorIs(t, err, starsight.ErrPageNotFound)

	stored, err := s.svc.GetPage(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, stored.Live)

	t.Run("restriction hides descendants", func(t *testing.T) {
		listing, err := s.repo.GetPage(ctx, s.listing.ID)
		require.NoError(t, err)
		listing.Restricted = true
		require.NoError(t, s.repo.UpdatePage(ctx, listing))

		_, err = s.svc.ResolvePage(ctx, starsight.ByID(live.ID))
		assert.ErrorIs(t, err, starsight.ErrPageNotFound)
		_, err = s.svc.FindPageByPath(ctx, "/articles/live/")
		assert.ErrorIs(t, err, starsight.ErrPageNotFound)

		home, err := s.svc.ResolvePage(ctx, starsight.ByID(s.home.ID))
		require.NoError(t, err)
		assert.Equal(t, s.home.ID, home.ID)
	})
}

func TestListPages_RejectsUnknownOrder(t *testing.T) {
	s := newSite(t)

	_, _, err := s.svc.ListPages(context.Background(), starsight.PageFilter{OrderBy: "-slug"})
	assert.ErrorIs(t, err, starsight.ErrInvalidFilter)
	assert.True(t, starsight.ValidPageOrder("-first_published_at"))
	assert.False(t, starsight.ValidPageOrder("path"))
}

func TestPagePathAndFind(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	p := s.publishedArticle(t, "Deep Water", base)

	path, err := s.svc.PagePath(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "/articles/deep-water/", path)

	path, err = s.svc.PagePath(ctx, s.home)
	require.NoError(t, err)
	assert.Equal(t, "/", path)

	found, err := s.svc.FindPageByPath(ctx, "articles/deep-water")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	found, err = s.svc.FindPageByPath(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, s.home.ID, found.ID)

	_, err = s.svc.FindPageByPath(ctx, "/articles/shallow-water/")
	assert.ErrorIs(t, err, starsight.ErrPageNotFound)
}

func TestListingSummary(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	var pages []*starsight.Page
	for i := range 8 {
		pages = append(pages, s.publishedArticle(t, fmt.Sprintf("Story %d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	// Two stories published at the same instant keep creation order.
	tieA := s.publishedArticle(t, "Tie A", base.Add(time.Hour))
	tieB := s.publishedArticle(t, "Tie B", base.Add(time.Hour))
	_, err := s.svc.CreatePage(ctx, s.articleRequest("Unpublished"))
	require.NoError(t, err)

	sum, err := s.svc.ListingSummary(ctx, s.listing)
	require.NoError(t, err)
	assert.Equal(t, 10, sum.TotalPostNumber)
	require.Len(t, sum.FrontPagePosts, starsight.FrontPagePostLimit)

	var ids []int64
	for _, p := range sum.FrontPagePosts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{tieA.ID, tieB.ID, pages[7].ID, pages[6].ID, pages[5].ID, pages[4].ID}, ids)

	t.Run("empty listing", func(t *testing.T) {
		empty := newSite(t)
		sum, err := empty.svc.ListingSummary(ctx, empty.listing)
		require.NoError(t, err)
		assert.Equal(t, 0, sum.TotalPostNumber)
		assert.Empty(t, sum.FrontPagePosts)
	})
}

func TestSnippets(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()

	t.Run("topic slug derived from name", func(t *testing.T) {
		topic, err := s.svc.SaveTopic(ctx, starsight.SaveTopicRequest{Name: "Land & Air"})
		require.NoError(t, err)
		assert.Equal(t, "land-air", topic.Slug)

		_, err = s.svc.SaveTopic(ctx, starsight.SaveTopicRequest{Name: "Land, Air"})
		assert.ErrorIs(t, err, starsight.ErrDuplicateSlug)

		got, err := s.svc.ResolveTopic(ctx, starsight.BySlug("land-air"))
		require.NoError(t, err)
		assert.Equal(t, topic.ID, got.ID)
	})

	t.Run("author image must exist", func(t *testing.T) {
		missing := int64(777)
		_, err := s.svc.SaveAuthor(ctx, starsight.SaveAuthorRequest{Username: "lee", ImageID: &missing})
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "ImageID")

		_, err = s.svc.SaveAuthor(ctx, starsight.SaveAuthorRequest{Username: "lee", Website: "not a url"})
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("navigation links", func(t *testing.T) {
		nav, err := s.svc.SaveNavigation(ctx, starsight.SaveNavigationRequest{
			Title: "Main Menu",
			Links: []starsight.LinkRequest{
				{Title: "Home", PageID: &s.home.ID},
				{Title: "Docs", URL: "https://docs.example.org"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "main-menu", nav.Slug)
		require.Len(t, nav.Links, 2)
		assert.Equal(t, 1, nav.Links[1].SortOrder)

		got, err := s.svc.ResolveNavigation(ctx, starsight.BySlug("main-menu"))
		require.NoError(t, err)
		assert.Equal(t, nav.ID, got.ID)
	})

	t.Run("navigation link needs a target", func(t *testing.T) {
		_, err := s.svc.SaveNavigation(ctx, starsight.SaveNavigationRequest{
			Title: "Broken",
			Links: []starsight.LinkRequest{{Title: "Nowhere"}},
		})
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("navigation page must exist", func(t *testing.T) {
		missing := int64(8080)
		_, err := s.svc.SaveNavigation(ctx, starsight.SaveNavigationRequest{
			Title: "Stale",
			Links: []starsight.LinkRequest{{Title: "Gone", PageID: &missing}},
		})
		var verr *starsight.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "8080 does not exist", verr.Fields["Links[0].PageID"])
	})
}

func TestAssets(t *testing.T) {
	ctx := context.Background()

	t.Run("upload and download", func(t *testing.T) {
		s := newSite(t)
		doc, err := s.svc.CreateDocument(ctx, starsight.CreateDocumentRequest{Title: "Report", FileName: "dir/report 2024.pdf"}, strings.NewReader("pdf-bytes"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(doc.File, starsight.CollectionDocuments+"/"))
		assert.True(t, strings.HasSuffix(doc.File, "/report 2024.pdf"))

		rc, err := s.svc.DownloadAsset(ctx, doc.File)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "pdf-bytes", string(data))

		url, err := s.svc.FileURL(ctx, doc.File)
		require.NoError(t, err)
		assert.Equal(t, starsight.DefaultMediaPrefix+doc.File, url)
	})

	t.Run("missing object", func(t *testing.T) {
		s := newSite(t)
		_, err := s.svc.DownloadAsset(ctx, "documents/none.pdf")
		assert.ErrorIs(t, err, starsight.ErrObjectNotFound)
	})

	t.Run("no blob store", func(t *testing.T) {
		svc, err := starsight.New(starsight.WithRepository(memory.New()))
		require.NoError(t, err)
		_, err = svc.CreateImage(ctx, starsight.CreateImageRequest{Title: "x", FileName: "x.png"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, starsight.ErrStorageBackendNotFound)
		_, err = svc.DownloadAsset(ctx, "x")
		assert.ErrorIs(t, err, starsight.ErrStorageBackendNotFound)
	})

	t.Run("custom key generator", func(t *testing.T) {
		svc, err := starsight.New(
			starsight.WithRepository(memory.New()),
			starsight.WithBlobStore(memorystorage.New()),
			starsight.WithKeyGenerator(fixedKeys{}),
		)
		require.NoError(t, err)
		img, err := svc.CreateImage(ctx, starsight.CreateImageRequest{Title: "x", FileName: "x.png"}, strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, "fixed/original_images/x.png", img.File)
	})
}

type fixedKeys struct{}

func (fixedKeys) GenerateKey(collection string, _ uuid.UUID, fileName string) string {
	return "fixed/" + collection + "/" + fileName
}
