package starsight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyGenerator builds blob store object keys for uploaded assets.
type KeyGenerator interface {
	GenerateKey(collection string, objectID uuid.UUID, fileName string) string
}

// Asset collections used for object keys and events.
const (
	CollectionImages    = "original_images"
	CollectionDocuments = "documents"
)

// DefaultMediaPrefix is used for file URLs when no URL strategy is configured.
const DefaultMediaPrefix = "/media/"

// service implements the Service interface
type service struct {
	repository  Repository
	blobStore   BlobStore
	urlStrategy URLStrategy
	keys        KeyGenerator
	eventSink   EventSink
	logger      *slog.Logger
	now         func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the storage backend for image and document binaries
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithURLStrategy sets how object keys become public file URLs
func WithURLStrategy(strategy URLStrategy) Option {
	return func(s *service) {
		s.urlStrategy = strategy
	}
}

// WithKeyGenerator sets the object key generator used for uploads
func WithKeyGenerator(gen KeyGenerator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source, used for publish timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.keys == nil {
		s.keys = defaultKeyGenerator{}
	}

	return s, nil
}

type defaultKeyGenerator struct{}

func (defaultKeyGenerator) GenerateKey(collection string, objectID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", collection, objectID, path.Base(fileName))
}

func (s *service) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// Page read operations

func (s *service) pageFinder() Finder[*Page] {
	return Finder[*Page]{
		ByID: func(ctx context.Context, id int64) (*Page, error) {
			pages, _, err := s.repository.ListPages(ctx, PageFilter{IDs: []int64{id}, LiveOnly: true, PublicOnly: true})
			if err != nil {
				return nil, err
			}
			if len(pages) == 0 {
				return nil, fmt.Errorf("page %d: %w", id, ErrPageNotFound)
			}
			return pages[0], nil
		},
		BySlug: func(ctx context.Context, slug string) ([]*Page, error) {
			pages, _, err := s.repository.ListPages(ctx, PageFilter{Slug: slug, LiveOnly: true, PublicOnly: true, OrderBy: "id"})
			return pages, err
		},
		NotFound: ErrPageNotFound,
	}
}

func (s *service) ResolvePage(ctx context.Context, lookup Lookup) (*Page, error) {
	return Resolve(ctx, s.pageFinder(), lookup)
}

var pageOrderings = map[string]bool{
	"id": true, "title": true, "first_published_at": true,
}

// ValidPageOrder reports whether order is an accepted page ordering.
func ValidPageOrder(order string) bool {
	return order == "" || pageOrderings[strings.TrimPrefix(order, "-")]
}

func (s *service) ListPages(ctx context.Context, filter PageFilter) ([]*Page, int, error) {
	if !ValidPageOrder(filter.OrderBy) {
		return nil, 0, fmt.Errorf("%w: order %q", ErrInvalidFilter, filter.OrderBy)
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, 0, fmt.Errorf("%w: type %q", ErrInvalidFilter, filter.Kind)
	}
	filter.LiveOnly = true
	filter.PublicOnly = true
	return s.repository.ListPages(ctx, filter)
}

func (s *service) FindPageByPath(ctx context.Context, urlPath string) (*Page, error) {
	homes, _, err := s.repository.ListPages(ctx, PageFilter{Kind: KindHomePage, LiveOnly: true, PublicOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(homes) == 0 {
		return nil, fmt.Errorf("path %q: %w", urlPath, ErrPageNotFound)
	}
	cur := homes[0]
	for _, seg := range strings.Split(strings.Trim(urlPath, "/"), "/") {
		if seg == "" {
			continue
		}
		parentID := cur.ID
		children, _, err := s.repository.ListPages(ctx, PageFilter{
			ChildOf: &parentID, Slug: seg, LiveOnly: true, PublicOnly: true, Limit: 1,
		})
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, fmt.Errorf("path %q: %w", urlPath, ErrPageNotFound)
		}
		cur = children[0]
	}
	return cur, nil
}

func (s *service) GetPage(ctx context.Context, id int64) (*Page, error) {
	return s.repository.GetPage(ctx, id)
}

func (s *service) PagePath(ctx context.Context, page *Page) (string, error) {
	ancestorIDs := page.AncestorIDs()
	byID := make(map[int64]*Page, len(ancestorIDs))
	if len(ancestorIDs) > 0 {
		ancestors, _, err := s.repository.ListPages(ctx, PageFilter{IDs: ancestorIDs})
		if err != nil {
			return "", err
		}
		for _, a := range ancestors {
			byID[a.ID] = a
		}
	}

	chain := make([]*Page, 0, len(ancestorIDs)+1)
	for _, id := range ancestorIDs {
		a, ok := byID[id]
		if !ok {
			return "", fmt.Errorf("ancestor %d of page %d: %w", id, page.ID, ErrPageNotFound)
		}
		chain = append(chain, a)
	}
	chain = append(chain, page)

	start := 0
	for i, p := range chain {
		if p.Kind == KindHomePage {
			start = i + 1
			break
		}
	}
	var b strings.Builder
	b.WriteString("/")
	for _, p := range chain[start:] {
		b.WriteString(p.Slug)
		b.WriteString("/")
	}
	return b.String(), nil
}

// Snippet read operations

func (s *service) navigationFinder() Finder[*Navigation] {
	return Finder[*Navigation]{
		ByID: s.repository.GetNavigation,
		BySlug: func(ctx context.Context, slug string) ([]*Navigation, error) {
			navs, _, err := s.repository.ListNavigations(ctx, SnippetFilter{Slug: slug})
			return navs, err
		},
		NotFound: ErrNavigationNotFound,
	}
}

func (s *service) ResolveNavigation(ctx context.Context, lookup Lookup) (*Navigation, error) {
	return Resolve(ctx, s.navigationFinder(), lookup)
}

func (s *service) ListNavigations(ctx context.Context, filter SnippetFilter) ([]*Navigation, int, error) {
	return s.repository.ListNavigations(ctx, filter)
}

func (s *service) topicFinder() Finder[*Topic] {
	return Finder[*Topic]{
		ByID: s.repository.GetTopic,
		BySlug: func(ctx context.Context, slug string) ([]*Topic, error) {
			topics, _, err := s.repository.ListTopics(ctx, SnippetFilter{Slug: slug})
			return topics, err
		},
		NotFound: ErrTopicNotFound,
	}
}

func (s *service) ResolveTopic(ctx context.Context, lookup Lookup) (*Topic, error) {
	return Resolve(ctx, s.topicFinder(), lookup)
}

func (s *service) ListTopics(ctx context.Context, filter SnippetFilter) ([]*Topic, int, error) {
	return s.repository.ListTopics(ctx, filter)
}

func (s *service) GetTopic(ctx context.Context, id int64) (*Topic, error) {
	return s.repository.GetTopic(ctx, id)
}

func (s *service) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	return s.repository.GetAuthor(ctx, id)
}

func (s *service) ListAuthors(ctx context.Context, filter SnippetFilter) ([]*Author, int, error) {
	filter.Slug = ""
	return s.repository.ListAuthors(ctx, filter)
}

// Asset read operations

func (s *service) GetImage(ctx context.Context, id int64) (*Image, error) {
	return s.repository.GetImage(ctx, id)
}

func (s *service) ListImages(ctx context.Context, filter AssetFilter) ([]*Image, int, error) {
	return s.repository.ListImages(ctx, filter)
}

func (s *service) GetDocument(ctx context.Context, id int64) (*Document, error) {
	return s.repository.GetDocument(ctx, id)
}

func (s *service) ListDocuments(ctx context.Context, filter AssetFilter) ([]*Document, int, error) {
	return s.repository.ListDocuments(ctx, filter)
}

func (s *service) FileURL(ctx context.Context, objectKey string) (string, error) {
	if s.urlStrategy != nil {
		return s.urlStrategy.FileURL(ctx, objectKey)
	}
	return DefaultMediaPrefix + strings.TrimPrefix(objectKey, "/"), nil
}

func (s *service) DownloadAsset(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	if s.blobStore == nil {
		return nil, ErrStorageBackendNotFound
	}
	return s.blobStore.Download(ctx, objectKey)
}

// Write operations

func (s *service) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPageType, req.Kind)
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkPageBody(ctx, req); err != nil {
		return nil, err
	}

	parentKind := PageKind("")
	if req.ParentID != nil {
		parent, err := s.repository.GetPage(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent page: %w", err)
		}
		parentKind = parent.Kind
	}
	if !req.Kind.CanCreateUnder(parentKind) {
		return nil, fmt.Errorf("%w: %s under %q", ErrPageTypeNotAllowed, req.Kind, parentKind)
	}
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	if slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"Slug": "cannot be derived from the title"}}
	}

	now := s.now()
	page := &Page{
		Kind:              req.Kind,
		ParentID:          req.ParentID,
		Title:             req.Title,
		Slug:              slug,
		SeoTitle:          req.SeoTitle,
		SearchDescription: req.SearchDescription,
		ShowInMenus:       req.ShowInMenus,
		Restricted:        req.Restricted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	switch req.Kind {
	case KindHomePage:
		page.Home = &HomeBody{HeroImageID: req.Home.HeroImageID, HeroImageAlt: req.Home.HeroImageAlt}
	case KindArticleDetailPage:
		a := req.Article
		page.Article = &ArticleBody{
			PreviewText:   a.PreviewText,
			TopicID:       a.TopicID,
			ImageID:       a.ImageID,
			Alt:           a.Alt,
			Caption:       a.Caption,
			Content:       a.Content,
			Tags:          a.Tags,
			AuthorIDs:     a.AuthorIDs,
			PublishedDate: a.PublishedDate,
		}
	}

	if err := s.repository.CreatePage(ctx, page); err != nil {
		return nil, &PageError{PageID: page.ID, Op: "create", Err: err}
	}

	if err := s.eventSink.PageCreated(ctx, page); err != nil {
		s.logger.WarnContext(ctx, "page created event failed", "page_id", page.ID, "error", err)
	}
	return page, nil
}

// checkPageBody verifies that the body matching the kind is present and that
// every record it references exists.
func (s *service) checkPageBody(ctx context.Context, req CreatePageRequest) error {
	verr := &ValidationError{}
	switch req.Kind {
	case KindHomePage:
		if req.Home == nil {
			verr.Add("Home", "is required")
			break
		}
		s.checkRef(ctx, verr, "Home.HeroImageID", req.Home.HeroImageID, func(ctx context.Context, id int64) error {
			_, err := s.repository.GetImage(ctx, id)
			return err
		})
	case KindArticleDetailPage:
		a := req.Article
		if a == nil {
			verr.Add("Article", "is required")
			break
		}
		if err := ValidateStream(a.Content); err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return err
			}
			for k, msg := range ve.Fields {
				verr.Add("Article."+k, msg)
			}
		}
		s.checkRef(ctx, verr, "Article.TopicID", a.TopicID, func(ctx context.Context, id int64) error {
			_, err := s.repository.GetTopic(ctx, id)
			return err
		})
		s.checkRef(ctx, verr, "Article.ImageID", a.ImageID, func(ctx context.Context, id int64) error {
			_, err := s.repository.GetImage(ctx, id)
			return err
		})
		for _, id := range a.AuthorIDs {
			authorID := id
			s.checkRef(ctx, verr, "Article.AuthorIDs", &authorID, func(ctx context.Context, id int64) error {
				_, err := s.repository.GetAuthor(ctx, id)
				return err
			})
		}
	}
	return verr.OrNil()
}

func (s *service) checkRef(ctx context.Context, verr *ValidationError, field string, id *int64, get func(context.Context, int64) error) {
	if id == nil {
		return
	}
	if err := get(ctx, *id); err != nil {
		if errors.Is(err, ErrNotFound) {
			verr.Add(field, fmt.Sprintf("%d does not exist", *id))
			return
		}
		verr.Add(field, err.Error())
	}
}

func (s *service) PublishPage(ctx context.Context, req PublishPageRequest) (*Page, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	page, err := s.repository.GetPage(ctx, req.PageID)
	if err != nil {
		return nil, &PageError{PageID: req.PageID, Op: "publish", Err: err}
	}
	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	page.Live = true
	if page.FirstPublishedAt == nil {
		first := at
		page.FirstPublishedAt = &first
	}
	last := at
	page.LastPublishedAt = &last
	page.UpdatedAt = s.now()

	if err := s.repository.UpdatePage(ctx, page); err != nil {
		return nil, &PageError{PageID: page.ID, Op: "publish", Err: err}
	}
	if err := s.eventSink.PagePublished(ctx, page); err != nil {
		s.logger.WarnContext(ctx, "page published event failed", "page_id", page.ID, "error", err)
	}
	return page, nil
}

func (s *service) SaveTopic(ctx context.Context, req SaveTopicRequest) (*Topic, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	topic := &Topic{ID: req.ID, Name: req.Name, Slug: Slugify(req.Name)}
	if topic.Slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"Name": "must contain a letter or digit"}}
	}
	if err := s.repository.SaveTopic(ctx, topic); err != nil {
		return nil, &SnippetError{Kind: "topic", Slug: topic.Slug, Op: "save", Err: err}
	}
	if err := s.eventSink.TopicSaved(ctx, topic); err != nil {
		s.logger.WarnContext(ctx, "topic saved event failed", "topic_id", topic.ID, "error", err)
	}
	return topic, nil
}

func (s *service) SaveAuthor(ctx context.Context, req SaveAuthorRequest) (*Author, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	s.checkRef(ctx, verr, "ImageID", req.ImageID, func(ctx context.Context, id int64) error {
		_, err := s.repository.GetImage(ctx, id)
		return err
	})
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	author := &Author{
		ID:           req.ID,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		ImageID:      req.ImageID,
		AddEmailLink: req.AddEmailLink,
		Website:      req.Website,
	}
	if err := s.repository.SaveAuthor(ctx, author); err != nil {
		return nil, &SnippetError{Kind: "author", Slug: author.Username, Op: "save", Err: err}
	}
	return author, nil
}

func (s *service) SaveNavigation(ctx context.Context, req SaveNavigationRequest) (*Navigation, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	nav := &Navigation{ID: req.ID, Title: req.Title, Slug: Slugify(req.Title)}
	if nav.Slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"Title": "must contain a letter or digit"}}
	}
	verr := &ValidationError{}
	for i, l := range req.Links {
		s.checkRef(ctx, verr, fmt.Sprintf("Links[%d].PageID", i), l.PageID, func(ctx context.Context, id int64) error {
			_, err := s.repository.GetPage(ctx, id)
			return err
		})
		nav.Links = append(nav.Links, Link{
			Title:         l.Title,
			PageID:        l.PageID,
			URL:           l.URL,
			OpenInNewPage: l.OpenInNewPage,
			SortOrder:     i,
		})
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.repository.SaveNavigation(ctx, nav); err != nil {
		return nil, &SnippetError{Kind: "navigation", Slug: nav.Slug, Op: "save", Err: err}
	}
	if err := s.eventSink.NavigationSaved(ctx, nav); err != nil {
		s.logger.WarnContext(ctx, "navigation saved event failed", "navigation_id", nav.ID, "error", err)
	}
	return nav, nil
}

func (s *service) upload(ctx context.Context, collection, fileName, mimeType string, reader io.Reader) (string, error) {
	if s.blobStore == nil {
		return "", ErrStorageBackendNotFound
	}
	key := s.keys.GenerateKey(collection, uuid.New(), fileName)
	if err := s.blobStore.UploadWithParams(ctx, reader, UploadParams{ObjectKey: key, MimeType: mimeType}); err != nil {
		return "", &StorageError{Key: key, Op: "upload", Err: err}
	}
	return key, nil
}

func (s *service) CreateImage(ctx context.Context, req CreateImageRequest, reader io.Reader) (*Image, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	key, err := s.upload(ctx, CollectionImages, req.FileName, req.MimeType, reader)
	if err != nil {
		return nil, err
	}
	img := &Image{
		Title:     req.Title,
		File:      key,
		Width:     req.Width,
		Height:    req.Height,
		Tags:      req.Tags,
		CreatedAt: s.now(),
	}
	if err := s.repository.CreateImage(ctx, img); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	if err := s.eventSink.AssetUploaded(ctx, CollectionImages, img.ID, key); err != nil {
		s.logger.WarnContext(ctx, "asset uploaded event failed", "image_id", img.ID, "error", err)
	}
	return img, nil
}

func (s *service) CreateDocument(ctx context.Context, req CreateDocumentRequest, reader io.Reader) (*Document, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	key, err := s.upload(ctx, CollectionDocuments, req.FileName, req.MimeType, reader)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Title:     req.Title,
		File:      key,
		Tags:      req.Tags,
		CreatedAt: s.now(),
	}
	if err := s.repository.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	if err := s.eventSink.AssetUploaded(ctx, CollectionDocuments, doc.ID, key); err != nil {
		s.logger.WarnContext(ctx, "asset uploaded event failed", "document_id", doc.ID, "error", err)
	}
	return doc, nil
}
