package starsight

import (
	"strings"
	"time"
)

// PageKind discriminates the page types that make up the page tree.
type PageKind string

// Page kinds (typed). Values match the type names exposed by the API.
const (
	KindHomePage           PageKind = "home.HomePage"
	KindArticleListingPage PageKind = "articles.ArticleListingPage"
	KindArticleDetailPage  PageKind = "articles.ArticleDetailPage"
)

// IsValid reports whether k is a known page kind.
func (k PageKind) IsValid() bool {
	_, ok := pageRules[k]
	return ok
}

// ParsePageKind accepts a page type name, case-insensitively.
func ParsePageKind(s string) (PageKind, error) {
	for k := range pageRules {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", ErrUnknownPageType
}

// Page is a node of the page tree. Exactly one kind-specific body is set,
// matching Kind: Home for KindHomePage, Article for KindArticleDetailPage.
// Listing pages carry no stored fields.
type Page struct {
	ID       int64    `json:"id"`
	Kind     PageKind `json:"kind"`
	ParentID *int64   `json:"parent_id,omitempty"`
	// Path is the materialized chain of ancestor ids, e.g. "/1/4/9/".
	Path     string  `json:"path"`
	ChildIDs []int64 `json:"child_ids,omitempty"`
	Position int     `json:"position"`

	Title             string `json:"title"`
	Slug              string `json:"slug"`
	SeoTitle          string `json:"seo_title,omitempty"`
	SearchDescription string `json:"search_description,omitempty"`
	ShowInMenus       bool   `json:"show_in_menus"`

	Live             bool       `json:"live"`
	Restricted       bool       `json:"restricted"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`
	LastPublishedAt  *time.Time `json:"last_published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Home    *HomeBody    `json:"home,omitempty"`
	Article *ArticleBody `json:"article,omitempty"`
}

// HomeBody holds the fields of the site home page.
type HomeBody struct {
	HeroImageID  *int64 `json:"hero_image_id,omitempty"`
	HeroImageAlt string `json:"hero_image_alt"`
}

// ArticleBody holds the fields of an article detail page.
type ArticleBody struct {
	PreviewText string      `json:"preview_text"`
	TopicID     *int64      `json:"topic_id,omitempty"`
	ImageID     *int64      `json:"image_id,omitempty"`
	Alt         string      `json:"alt"`
	Caption     string      `json:"caption"`
	Content     StreamValue `json:"content"`
	Tags        []string    `json:"tags"`
	AuthorIDs   []int64     `json:"author_ids"`
	// PublishedDate overrides the first published date shown to readers.
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	c := *p
	if p.ParentID != nil {
		id := *p.ParentID
		c.ParentID = &id
	}
	c.ChildIDs = append([]int64(nil), p.ChildIDs...)
	if p.Home != nil {
		h := *p.Home
		c.Home = &h
	}
	if p.Article != nil {
		a := *p.Article
		a.Content = append(StreamValue(nil), p.Article.Content...)
		a.Tags = append([]string(nil), p.Article.Tags...)
		a.AuthorIDs = append([]int64(nil), p.Article.AuthorIDs...)
		c.Article = &a
	}
	return &c
}

// AncestorIDs returns the ids on the page's path, root first, excluding the
// page itself.
func (p *Page) AncestorIDs() []int64 {
	ids := parsePath(p.Path)
	if len(ids) == 0 {
		return nil
	}
	return ids[:len(ids)-1]
}

// Topic is a named article category.
type Topic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Author wraps a user identity for article bylines.
type Author struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	ImageID      *int64 `json:"image_id,omitempty"`
	AddEmailLink bool   `json:"add_email_link"`
	Website      string `json:"website"`
}

// DisplayName is "First Last" when both names are set, otherwise the username.
func (a *Author) DisplayName() string {
	if a.FirstName != "" && a.LastName != "" {
		return a.FirstName + " " + a.LastName
	}
	return a.Username
}

// PublicEmail returns the email only when the author opted into an email link.
func (a *Author) PublicEmail() *string {
	if !a.AddEmailLink {
		return nil
	}
	email := a.Email
	return &email
}

// Navigation is a named menu (header, footer, ...) of ordered links.
type Navigation struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Links []Link `json:"links"`
}

// Link is a navigation entry. PageID takes priority over URL.
type Link struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	PageID        *int64 `json:"page_id,omitempty"`
	URL           string `json:"url"`
	OpenInNewPage bool   `json:"open_in_new_page"`
	SortOrder     int    `json:"sort_order"`
}

// Image is an uploaded image; File is the blob store object key.
type Image struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	File      string    `json:"file"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is an uploaded file; File is the blob store object key.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	File      string    `json:"file"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// PageFilter selects pages. Zero values mean "no constraint"; Limit 0 means
// no limit.
type PageFilter struct {
	IDs        []int64
	Kind       PageKind
	Slug       string
	ChildOf    *int64
	Tags       []string
	LiveOnly   bool
	PublicOnly bool
	// OrderBy is one of id, title, first_published_at, optionally prefixed
	// with "-" for descending order. Ties fall back to ascending id.
	OrderBy string
	Limit   int
	Offset  int
}

// SnippetFilter selects topics, authors and navigations.
type SnippetFilter struct {
	Slug   string
	Limit  int
	Offset int
}

// AssetFilter selects images and documents.
type AssetFilter struct {
	Title  string
	Tags   []string
	Limit  int
	Offset int
}
