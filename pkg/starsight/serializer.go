package starsight

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// API type names of the non-page entities.
const (
	TypeNavigation     = "navigations.Navigation"
	TypeNavigationLink = "navigations.Links"
	TypeImage          = "wagtailimages.Image"
	TypeDocument       = "wagtaildocs.Document"
	TypeTopic          = "articles.ArticleTopic"
	TypeAuthor         = "articles.ArticleAuthor"
	TypeArticleAuthor  = "articles.ArticleAuthorsOrderable"
)

// Endpoint names under the API base path.
const (
	EndpointPages       = "pages"
	EndpointImages      = "images"
	EndpointDocuments   = "documents"
	EndpointNavigations = "navigations"
	EndpointTopics      = "topics"
	EndpointAuthors     = "authors"
)

// Serializer projects records into JSON-ready values. It caches page URL
// paths and listing summaries, so create one per request.
type Serializer struct {
	svc       Service
	baseURL   string
	apiBase   string
	paths     map[int64]string
	summaries map[int64]*ListingSummary
}

// NewSerializer creates a serializer. baseURL prefixes html_url and
// detail_url values; apiBase is the path the endpoints are mounted under.
func NewSerializer(svc Service, baseURL, apiBase string) *Serializer {
	return &Serializer{
		svc:       svc,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiBase:   "/" + strings.Trim(apiBase, "/"),
		paths:     make(map[int64]string),
		summaries: make(map[int64]*ListingSummary),
	}
}

// DetailURL returns the absolute API detail URL of a record.
func (s *Serializer) DetailURL(endpoint string, id int64) string {
	return fmt.Sprintf("%s%s/%s/%d/", s.baseURL, s.apiBase, endpoint, id)
}

// ListingURL returns the API listing path of an endpoint.
func (s *Serializer) ListingURL(endpoint string) string {
	return fmt.Sprintf("%s/%s/", s.apiBase, endpoint)
}

// HTMLURL returns the absolute site URL of a page path.
func (s *Serializer) HTMLURL(path string) string {
	return s.baseURL + path
}

func (s *Serializer) pagePath(ctx context.Context, p *Page) (string, error) {
	if path, ok := s.paths[p.ID]; ok {
		return path, nil
	}
	path, err := s.svc.PagePath(ctx, p)
	if err != nil {
		return "", err
	}
	s.paths[p.ID] = path
	return path, nil
}

// PageURL returns the site-relative URL path of the page with id.
func (s *Serializer) PageURL(ctx context.Context, id int64) (string, error) {
	if path, ok := s.paths[id]; ok {
		return path, nil
	}
	p, err := s.svc.GetPage(ctx, id)
	if err != nil {
		return "", err
	}
	return s.pagePath(ctx, p)
}

// ImageURL returns the file URL of an image, or nil when id is nil or the
// image no longer exists.
func (s *Serializer) ImageURL(ctx context.Context, id *int64) (any, error) {
	if id == nil {
		return nil, nil
	}
	img, err := s.svc.GetImage(ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.svc.FileURL(ctx, img.File)
}

// Stream renders a block stream as an ordered list of {type, value, id}.
func (s *Serializer) Stream(ctx context.Context, stream StreamValue) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(stream))
	for _, b := range stream {
		if b.Value == nil {
			continue
		}
		entry, err := lookupBlock(b.Value.BlockKind())
		if err != nil {
			return nil, err
		}
		v, err := entry.project(ctx, s, b.Value)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		out = append(out, map[string]any{
			"type":  string(b.Value.BlockKind()),
			"value": v,
			"id":    b.ID,
		})
	}
	return out, nil
}

// Pages

type fieldGetter func(ctx context.Context, s *Serializer, p *Page) (any, error)

type pageField struct {
	name  string
	meta  bool
	kinds []PageKind
	get   fieldGetter
}

func (f pageField) appliesTo(k PageKind) bool {
	return len(f.kinds) == 0 || slices.Contains(f.kinds, k)
}

// listingPageFields are emitted for every page in a listing.
var listingPageFields = []string{"type", "detail_url", "html_url", "slug", "first_published_at", "title"}

// pageFields lists every page field in output order. Fields restricted to
// kinds are skipped for pages of other kinds.
var pageFields = []pageField{
	{name: "type", meta: true, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return string(p.Kind), nil
	}},
	{name: "detail_url", meta: true, get: func(_ context.Context, s *Serializer, p *Page) (any, error) {
		return s.DetailURL(EndpointPages, p.ID), nil
	}},
	{name: "html_url", meta: true, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		path, err := s.pagePath(ctx, p)
		if err != nil {
			return nil, err
		}
		return s.HTMLURL(path), nil
	}},
	{name: "slug", meta: true, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.Slug, nil
	}},
	{name: "show_in_menus", meta: true, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.ShowInMenus, nil
	}},
	{name: "seo_title", meta: true, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.SeoTitle, nil
	}},
	{name: "search_description", meta: true, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.SearchDescription, nil
	}},
	{name: "first_published_at", meta: true, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.FirstPublishedAt, nil
	}},
	{name: "parent", meta: true, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.parentRef(ctx, p)
	}},
	{name: "title", get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.Title, nil
	}},

	{name: "hero_image", kinds: []PageKind{KindHomePage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.ImageURL(ctx, p.Home.HeroImageID)
	}},
	{name: "hero_image_alt", kinds: []PageKind{KindHomePage}, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.Home.HeroImageAlt, nil
	}},

	{name: "total_post_number", kinds: []PageKind{KindArticleListingPage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		sum, err := s.listingSummary(ctx, p)
		if err != nil {
			return nil, err
		}
		return sum.TotalPostNumber, nil
	}},
	{name: "front_page_article_posts", kinds: []PageKind{KindArticleListingPage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.frontPagePosts(ctx, p)
	}},

	{name: "preview_text", kinds: []PageKind{KindArticleDetailPage}, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.Article.PreviewText, nil
	}},
	{name: "topic", kinds: []PageKind{KindArticleDetailPage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.topicName(ctx, p.Article.TopicID)
	}},
	{name: "image", kinds: []PageKind{KindArticleDetailPage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.ImageURL(ctx, p.Article.ImageID)
	}},
	{name: "alt", kinds: []PageKind{KindArticleDetailPage}, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.Article.Alt, nil
	}},
	{name: "caption", kinds: []PageKind{KindArticleDetailPage}, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return p.Article.Caption, nil
	}},
	{name: "article_authors", kinds: []PageKind{KindArticleDetailPage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.articleAuthors(ctx, p)
	}},
	{name: "content", kinds: []PageKind{KindArticleDetailPage}, get: func(ctx context.Context, s *Serializer, p *Page) (any, error) {
		return s.Stream(ctx, p.Article.Content)
	}},
	{name: "tags", kinds: []PageKind{KindArticleDetailPage}, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		return nonNilStrings(p.Article.Tags), nil
	}},
	{name: "published_date", kinds: []PageKind{KindArticleDetailPage}, get: func(_ context.Context, _ *Serializer, p *Page) (any, error) {
		if p.Article.PublishedDate == nil {
			return nil, nil
		}
		return p.Article.PublishedDate.Format(time.DateOnly), nil
	}},
}

// FieldSet selects the optional page fields of a listing.
type FieldSet struct {
	all   bool
	names map[string]bool
}

// ParseFields parses a "fields" query value: "*" or a comma separated list
// of field names. Unknown names are rejected with ErrInvalidFilter.
func ParseFields(raw string) (FieldSet, error) {
	fs := FieldSet{names: make(map[string]bool)}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
		case name == "*":
			fs.all = true
		case knownPageField(name):
			fs.names[name] = true
		default:
			return FieldSet{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, name)
		}
	}
	return fs, nil
}

func knownPageField(name string) bool {
	return slices.ContainsFunc(pageFields, func(f pageField) bool { return f.name == name })
}

func (fs FieldSet) includes(name string) bool {
	return fs.all || fs.names[name] || slices.Contains(listingPageFields, name)
}

// PageItem serializes a page as a listing item with the selected fields.
func (s *Serializer) PageItem(ctx context.Context, p *Page, fields FieldSet) (map[string]any, error) {
	return s.page(ctx, p, fields.includes)
}

// PageDetail serializes every field of a page.
func (s *Serializer) PageDetail(ctx context.Context, p *Page) (map[string]any, error) {
	return s.page(ctx, p, func(string) bool { return true })
}

func (s *Serializer) page(ctx context.Context, p *Page, include func(string) bool) (map[string]any, error) {
	p = withBody(p)
	meta := map[string]any{}
	out := map[string]any{"id": p.ID, "meta": meta}
	for _, f := range pageFields {
		if !f.appliesTo(p.Kind) || !include(f.name) {
			continue
		}
		v, err := f.get(ctx, s, p)
		if err != nil {
			return nil, fmt.Errorf("page %d field %s: %w", p.ID, f.name, err)
		}
		if f.meta {
			meta[f.name] = v
		} else {
			out[f.name] = v
		}
	}
	return out, nil
}

// withBody returns p, or a copy carrying an empty body when the body its
// kind requires is missing.
func withBody(p *Page) *Page {
	switch {
	case p.Kind == KindHomePage && p.Home == nil:
		c := *p
		c.Home = &HomeBody{}
		return &c
	case p.Kind == KindArticleDetailPage && p.Article == nil:
		c := *p
		c.Article = &ArticleBody{}
		return &c
	}
	return p
}

func (s *Serializer) parentRef(ctx context.Context, p *Page) (any, error) {
	if p.ParentID == nil {
		return nil, nil
	}
	parent, err := s.svc.GetPage(ctx, *p.ParentID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	path, err := s.pagePath(ctx, parent)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id": parent.ID,
		"meta": map[string]any{
			"type":       string(parent.Kind),
			"detail_url": s.DetailURL(EndpointPages, parent.ID),
			"html_url":   s.HTMLURL(path),
		},
		"title": parent.Title,
	}, nil
}

func (s *Serializer) listingSummary(ctx context.Context, p *Page) (*ListingSummary, error) {
	if sum, ok := s.summaries[p.ID]; ok {
		return sum, nil
	}
	sum, err := s.svc.ListingSummary(ctx, p)
	if err != nil {
		return nil, err
	}
	s.summaries[p.ID] = sum
	return sum, nil
}

func (s *Serializer) frontPagePosts(ctx context.Context, p *Page) (any, error) {
	sum, err := s.listingSummary(ctx, p)
	if err != nil {
		return nil, err
	}
	posts := make([]map[string]any, 0, len(sum.FrontPagePosts))
	for _, post := range sum.FrontPagePosts {
		path, err := s.pagePath(ctx, post)
		if err != nil {
			return nil, err
		}
		item := map[string]any{
			"id": post.ID,
			"meta": map[string]any{
				"html_url":           path,
				"first_published_at": post.FirstPublishedAt,
			},
			"title": post.Title,
		}
		if a := post.Article; a != nil {
			image, err := s.ImageURL(ctx, a.ImageID)
			if err != nil {
				return nil, err
			}
			topic, err := s.topicName(ctx, a.TopicID)
			if err != nil {
				return nil, err
			}
			item["preview_text"] = a.PreviewText
			item["image"] = image
			item["alt"] = a.Alt
			item["topic"] = topic
		}
		posts = append(posts, item)
	}
	return posts, nil
}

func (s *Serializer) topicName(ctx context.Context, id *int64) (any, error) {
	if id == nil {
		return nil, nil
	}
	t, err := s.svc.GetTopic(ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t.Name, nil
}

func (s *Serializer) articleAuthors(ctx context.Context, p *Page) (any, error) {
	out := make([]map[string]any, 0, len(p.Article.AuthorIDs))
	for _, id := range p.Article.AuthorIDs {
		a, err := s.svc.GetAuthor(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":    a.ID,
			"meta":  map[string]any{"type": TypeArticleAuthor},
			"name":  a.FirstName + " " + a.LastName,
			"email": a.PublicEmail(),
		})
	}
	return out, nil
}

// Snippets and assets

// Meta is the meta object of snippet records.
type Meta struct {
	Type      string `json:"type"`
	DetailURL string `json:"detail_url,omitempty"`
}

// AssetMeta is the meta object of images and documents.
type AssetMeta struct {
	Type        string   `json:"type"`
	DetailURL   string   `json:"detail_url"`
	Tags        []string `json:"tags"`
	DownloadURL string   `json:"download_url"`
}

// NavigationJSON is the API form of a navigation.
type NavigationJSON struct {
	ID    int64      `json:"id"`
	Meta  Meta       `json:"meta"`
	Title string     `json:"title"`
	Slug  string     `json:"slug"`
	Links []LinkJSON `json:"links"`
}

// LinkJSON is the API form of a navigation link. Page is the linked page's
// URL path, or null.
type LinkJSON struct {
	ID            int64   `json:"id"`
	Meta          Meta    `json:"meta"`
	Title         string  `json:"title"`
	Page          *string `json:"page"`
	URL           string  `json:"url"`
	OpenInNewPage bool    `json:"open_in_new_page"`
}

// Navigation serializes a navigation with its links in sort order.
func (s *Serializer) Navigation(ctx context.Context, n *Navigation) (*NavigationJSON, error) {
	links := slices.Clone(n.Links)
	slices.SortStableFunc(links, func(a, b Link) int { return a.SortOrder - b.SortOrder })

	out := &NavigationJSON{
		ID:    n.ID,
		Meta:  Meta{Type: TypeNavigation, DetailURL: s.DetailURL(EndpointNavigations, n.ID)},
		Title: n.Title,
		Slug:  n.Slug,
		Links: make([]LinkJSON, 0, len(links)),
	}
	for _, l := range links {
		lj := LinkJSON{
			ID:            l.ID,
			Meta:          Meta{Type: TypeNavigationLink},
			Title:         l.Title,
			URL:           l.URL,
			OpenInNewPage: l.OpenInNewPage,
		}
		if l.PageID != nil {
			path, err := s.PageURL(ctx, *l.PageID)
			switch {
			case err == nil:
				lj.Page = &path
			case !errors.Is(err, ErrNotFound):
				return nil, err
			}
		}
		out.Links = append(out.Links, lj)
	}
	return out, nil
}

// TopicJSON is the API form of a topic.
type TopicJSON struct {
	ID   int64  `json:"id"`
	Meta Meta   `json:"meta"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Topic serializes a topic.
func (s *Serializer) Topic(t *Topic) *TopicJSON {
	return &TopicJSON{
		ID:   t.ID,
		Meta: Meta{Type: TypeTopic, DetailURL: s.DetailURL(EndpointTopics, t.ID)},
		Name: t.Name,
		Slug: t.Slug,
	}
}

// AuthorJSON is the API form of an author.
type AuthorJSON struct {
	ID      int64   `json:"id"`
	Meta    Meta    `json:"meta"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Image   any     `json:"image"`
	Website string  `json:"website"`
}

// Author serializes an author. Email is null unless the author opted in.
func (s *Serializer) Author(ctx context.Context, a *Author) (*AuthorJSON, error) {
	image, err := s.ImageURL(ctx, a.ImageID)
	if err != nil {
		return nil, err
	}
	return &AuthorJSON{
		ID:      a.ID,
		Meta:    Meta{Type: TypeAuthor, DetailURL: s.DetailURL(EndpointAuthors, a.ID)},
		Name:    a.DisplayName(),
		Email:   a.PublicEmail(),
		Image:   image,
		Website: a.Website,
	}, nil
}

// ImageJSON is the API form of an image. Width and Height are only set on detail.
type ImageJSON struct {
	ID     int64     `json:"id"`
	Meta   AssetMeta `json:"meta"`
	Title  string    `json:"title"`
	Width  *int      `json:"width,omitempty"`
	Height *int      `json:"height,omitempty"`
}

// Image serializes an image; detail adds its dimensions.
func (s *Serializer) Image(ctx context.Context, img *Image, detail bool) (*ImageJSON, error) {
	url, err := s.svc.FileURL(ctx, img.File)
	if err != nil {
		return nil, err
	}
	out := &ImageJSON{
		ID: img.ID,
		Meta: AssetMeta{
			Type:        TypeImage,
			DetailURL:   s.DetailURL(EndpointImages, img.ID),
			Tags:        nonNilStrings(img.Tags),
			DownloadURL: url,
		},
		Title: img.Title,
	}
	if detail {
		w, h := img.Width, img.Height
		out.Width, out.Height = &w, &h
	}
	return out, nil
}

// DocumentJSON is the API form of a document.
type DocumentJSON struct {
	ID    int64     `json:"id"`
	Meta  AssetMeta `json:"meta"`
	Title string    `json:"title"`
}

// Document serializes a document.
func (s *Serializer) Document(ctx context.Context, doc *Document) (*DocumentJSON, error) {
	url, err := s.svc.FileURL(ctx, doc.File)
	if err != nil {
		return nil, err
	}
	return &DocumentJSON{
		ID: doc.ID,
		Meta: AssetMeta{
			Type:        TypeDocument,
			DetailURL:   s.DetailURL(EndpointDocuments, doc.ID),
			Tags:        nonNilStrings(doc.Tags),
			DownloadURL: url,
		},
		Title: doc.Title,
	}, nil
}

// ListingJSON is the envelope of every listing response.
type ListingJSON struct {
	Meta  ListingMeta `json:"meta"`
	Items any         `json:"items"`
}

// ListingMeta carries the total number of matches before pagination.
type ListingMeta struct {
	TotalCount int `json:"total_count"`
}

// Listing wraps items in the listing envelope.
func Listing[T any](total int, items []T) ListingJSON {
	if items == nil {
		items = []T{}
	}
	return ListingJSON{Meta: ListingMeta{TotalCount: total}, Items: items}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// FormatID renders an id for URLs and logs.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
