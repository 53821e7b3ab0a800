package starsight

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for storage backends holding image and
// document binaries.
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// URLStrategy turns a stored object key into the URL clients fetch it from.
// Implementations live in the urlstrategy package.
type URLStrategy interface {
	FileURL(ctx context.Context, objectKey string) (string, error)
}

// PageRepository persists the page tree.
type PageRepository interface {
	// CreatePage assigns ID and Path. The slug must be unique among the
	// page's siblings (ErrDuplicateSlug) and kinds with a MaxCount may not
	// exceed it (ErrMaxCountReached). Both checks are atomic with the insert.
	CreatePage(ctx context.Context, page *Page) error
	// UpdatePage stores every field except ID, ParentID and Path.
	UpdatePage(ctx context.Context, page *Page) error
	// GetPage returns ErrPageNotFound when no page has the id.
	GetPage(ctx context.Context, id int64) (*Page, error)
	// ListPages returns one window of the pages matching the filter and the
	// total number of matches.
	ListPages(ctx context.Context, filter PageFilter) ([]*Page, int, error)
}

// TopicRepository persists topics.
type TopicRepository interface {
	// SaveTopic inserts when ID is zero, otherwise updates. Slugs are unique
	// across topics (ErrDuplicateSlug).
	SaveTopic(ctx context.Context, topic *Topic) error
	GetTopic(ctx context.Context, id int64) (*Topic, error)
	// ListTopics orders by name.
	ListTopics(ctx context.Context, filter SnippetFilter) ([]*Topic, int, error)
}

// AuthorRepository persists authors.
type AuthorRepository interface {
	SaveAuthor(ctx context.Context, author *Author) error
	GetAuthor(ctx context.Context, id int64) (*Author, error)
	// ListAuthors orders by id. SnippetFilter.Slug is ignored.
	ListAuthors(ctx context.Context, filter SnippetFilter) ([]*Author, int, error)
}

// NavigationRepository persists navigations and their links.
type NavigationRepository interface {
	// SaveNavigation replaces the stored links. Slugs are unique across
	// navigations (ErrDuplicateSlug).
	SaveNavigation(ctx context.Context, nav *Navigation) error
	GetNavigation(ctx context.Context, id int64) (*Navigation, error)
	// ListNavigations orders by id.
	ListNavigations(ctx context.Context, filter SnippetFilter) ([]*Navigation, int, error)
}

// AssetRepository persists image and document records.
type AssetRepository interface {
	CreateImage(ctx context.Context, image *Image) error
	GetImage(ctx context.Context, id int64) (*Image, error)
	ListImages(ctx context.Context, filter AssetFilter) ([]*Image, int, error)

	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id int64) (*Document, error)
	ListDocuments(ctx context.Context, filter AssetFilter) ([]*Document, int, error)
}

// Repository defines the interface for content persistence
type Repository interface {
	PageRepository
	TopicRepository
	AuthorRepository
	NavigationRepository
	AssetRepository

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
}

// EventSink defines the interface for write-path event handling
type EventSink interface {
	// PageCreated is fired when a page is created
	PageCreated(ctx context.Context, page *Page) error

	// PagePublished is fired when a page goes live
	PagePublished(ctx context.Context, page *Page) error

	// TopicSaved is fired when a topic is created or updated
	TopicSaved(ctx context.Context, topic *Topic) error

	// NavigationSaved is fired when a navigation is created or updated
	NavigationSaved(ctx context.Context, nav *Navigation) error

	// AssetUploaded is fired when an image or document binary is stored
	AssetUploaded(ctx context.Context, kind string, id int64, objectKey string) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
