package starsight

import "time"

// Request DTOs for the write path used by the admin tooling.

// CreatePageRequest contains parameters for creating a page. ParentID nil
// places the page at the site root. An empty Slug is derived from Title.
type CreatePageRequest struct {
	Kind              PageKind `validate:"required"`
	ParentID          *int64
	Title             string `validate:"required,max=255"`
	Slug              string `validate:"omitempty,slug,max=255"`
	SeoTitle          string `validate:"max=255"`
	SearchDescription string
	ShowInMenus       bool
	Restricted        bool

	Home    *HomeFields
	Article *ArticleFields
}

// HomeFields are the editable fields of a home page.
type HomeFields struct {
	HeroImageID  *int64 `validate:"required"`
	HeroImageAlt string `validate:"required,max=125"`
}

// ArticleFields are the editable fields of an article detail page.
type ArticleFields struct {
	PreviewText   string      `validate:"required,max=200,simple_richtext"`
	TopicID       *int64      `validate:"required"`
	ImageID       *int64      `validate:"required"`
	Alt           string      `validate:"required,max=125"`
	Caption       string      `validate:"max=100"`
	Content       StreamValue `validate:"-"`
	Tags          []string    `validate:"dive,required,max=100"`
	AuthorIDs     []int64     `validate:"min=1,max=3,unique"`
	PublishedDate *time.Time
}

// PublishPageRequest contains parameters for publishing a page. A zero At
// publishes at the current time.
type PublishPageRequest struct {
	PageID int64 `validate:"required"`
	At     time.Time
}

// SaveTopicRequest contains parameters for creating or updating a topic.
type SaveTopicRequest struct {
	ID   int64
	Name string `validate:"required,max=100"`
}

// SaveAuthorRequest contains parameters for creating or updating an author.
type SaveAuthorRequest struct {
	ID           int64
	Username     string `validate:"required,max=150"`
	FirstName    string `validate:"max=150"`
	LastName     string `validate:"max=150"`
	Email        string `validate:"omitempty,email"`
	ImageID      *int64
	AddEmailLink bool
	Website      string `validate:"omitempty,url"`
}

// SaveNavigationRequest contains parameters for creating or updating a navigation.
type SaveNavigationRequest struct {
	ID    int64
	Title string        `validate:"required,max=100"`
	Links []LinkRequest `validate:"dive"`
}

// LinkRequest is one navigation entry. Either PageID or URL must be set.
type LinkRequest struct {
	Title         string `validate:"required,max=50"`
	PageID        *int64 `validate:"required_without=URL"`
	URL           string `validate:"required_without=PageID,omitempty,url,max=500"`
	OpenInNewPage bool
}

// CreateImageRequest contains parameters for storing an image.
type CreateImageRequest struct {
	Title    string `validate:"required,max=255"`
	FileName string `validate:"required"`
	MimeType string
	Width    int `validate:"gte=0"`
	Height   int `validate:"gte=0"`
	Tags     []string
}

// CreateDocumentRequest contains parameters for storing a document.
type CreateDocumentRequest struct {
	Title    string `validate:"required,max=255"`
	FileName string `validate:"required"`
	MimeType string
	Tags     []string
}

// ListingSummary is the computed content of an article listing page.
type ListingSummary struct {
	TotalPostNumber int
	FrontPagePosts  []*Page
}
