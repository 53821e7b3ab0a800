package starsight

import (
	"context"
	"io"
)

// Service defines the main interface of the starsight content library.
//
// Read methods named Resolve*, List* and FindPageByPath only ever return live
// pages that carry no view restriction on themselves or any ancestor.
type Service interface {
	// Page read operations
	ResolvePage(ctx context.Context, lookup Lookup) (*Page, error)
	ListPages(ctx context.Context, filter PageFilter) ([]*Page, int, error)
	FindPageByPath(ctx context.Context, path string) (*Page, error)
	ListingSummary(ctx context.Context, listing *Page) (*ListingSummary, error)

	// GetPage returns a page in any state. Use ResolvePage on public paths.
	GetPage(ctx context.Context, id int64) (*Page, error)
	// PagePath returns the site-relative URL path of a page, "/" for the home page.
	PagePath(ctx context.Context, page *Page) (string, error)

	// Snippet read operations
	ResolveNavigation(ctx context.Context, lookup Lookup) (*Navigation, error)
	ListNavigations(ctx context.Context, filter SnippetFilter) ([]*Navigation, int, error)
	ResolveTopic(ctx context.Context, lookup Lookup) (*Topic, error)
	ListTopics(ctx context.Context, filter SnippetFilter) ([]*Topic, int, error)
	GetTopic(ctx context.Context, id int64) (*Topic, error)
	GetAuthor(ctx context.Context, id int64) (*Author, error)
	ListAuthors(ctx context.Context, filter SnippetFilter) ([]*Author, int, error)

	// Asset read operations
	GetImage(ctx context.Context, id int64) (*Image, error)
	ListImages(ctx context.Context, filter AssetFilter) ([]*Image, int, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	ListDocuments(ctx context.Context, filter AssetFilter) ([]*Document, int, error)
	FileURL(ctx context.Context, objectKey string) (string, error)
	DownloadAsset(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Write operations
	CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error)
	PublishPage(ctx context.Context, req PublishPageRequest) (*Page, error)
	SaveTopic(ctx context.Context, req SaveTopicRequest) (*Topic, error)
	SaveAuthor(ctx context.Context, req SaveAuthorRequest) (*Author, error)
	SaveNavigation(ctx context.Context, req SaveNavigationRequest) (*Navigation, error)
	CreateImage(ctx context.Context, req CreateImageRequest, reader io.Reader) (*Image, error)
	CreateDocument(ctx context.Context, req CreateDocumentRequest, reader io.Reader) (*Document, error)

	// Ping checks the repository connection
	Ping(ctx context.Context) error
}
