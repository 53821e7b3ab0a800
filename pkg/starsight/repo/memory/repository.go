package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// Repository implements starsight.Repository using in-memory storage
type Repository struct {
	mu          sync.RWMutex
	nextID      int64
	pages       map[int64]*starsight.Page
	topics      map[int64]*starsight.Topic
	authors     map[int64]*starsight.Author
	navigations map[int64]*starsight.Navigation
	images      map[int64]*starsight.Image
	documents   map[int64]*starsight.Document
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		pages:       make(map[int64]*starsight.Page),
		topics:      make(map[int64]*starsight.Topic),
		authors:     make(map[int64]*starsight.Author),
		navigations: make(map[int64]*starsight.Navigation),
		images:      make(map[int64]*starsight.Image),
		documents:   make(map[int64]*starsight.Document),
	}
}

var _ starsight.Repository = (*Repository)(nil)

// id hands out ids from one sequence shared by every record type. Callers
// hold the write lock.
func (r *Repository) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

// Page operations

func (r *Repository) CreatePage(ctx context.Context, page *starsight.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	parentPath := "/"
	if page.ParentID != nil {
		parent, ok := r.pages[*page.ParentID]
		if !ok {
			return fmt.Errorf("parent %d: %w", *page.ParentID, starsight.ErrPageNotFound)
		}
		parentPath = parent.Path
	}
	if r.siblingHasSlug(page.ParentID, page.Slug, 0) {
		return fmt.Errorf("%w: %q", starsight.ErrDuplicateSlug, page.Slug)
	}
	if limit := page.Kind.MaxCount(); limit > 0 && r.kindCount(page.Kind) >= limit {
		return fmt.Errorf("%w: %s", starsight.ErrMaxCountReached, page.Kind)
	}

	page.ID = r.id()
	page.Path = starsight.PathFor(parentPath, page.ID)
	page.Position = r.childCount(page.ParentID)
	page.ChildIDs = nil

	r.pages[page.ID] = page.Clone()
	return nil
}

func (r *Repository) UpdatePage(ctx context.Context, page *starsight.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.pages[page.ID]
	if !ok {
		return fmt.Errorf("page %d: %w", page.ID, starsight.ErrPageNotFound)
	}
	if r.siblingHasSlug(stored.ParentID, page.Slug, page.ID) {
		return fmt.Errorf("%w: %q", starsight.ErrDuplicateSlug, page.Slug)
	}

	c := page.Clone()
	c.ParentID = stored.ParentID
	c.Path = stored.Path
	c.ChildIDs = nil
	r.pages[page.ID] = c
	return nil
}

func (r *Repository) kindCount(kind starsight.PageKind) int {
	n := 0
	for _, p := range r.pages {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Repository) siblingHasSlug(parentID *int64, slug string, except int64) bool {
	for _, p := range r.pages {
		if p.ID != except && p.Slug == slug && sameParent(p.ParentID, parentID) {
			return true
		}
	}
	return false
}

func (r *Repository) childCount(parentID *int64) int {
	n := 0
	for _, p := range r.pages {
		if sameParent(p.ParentID, parentID) {
			n++
		}
	}
	return n
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *Repository) GetPage(ctx context.Context, id int64) (*starsight.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %d: %w", id, starsight.ErrPageNotFound)
	}
	return r.withChildren(p), nil
}

// withChildren returns a copy of p with ChildIDs in sibling order.
func (r *Repository) withChildren(p *starsight.Page) *starsight.Page {
	c := p.Clone()
	var children []*starsight.Page
	for _, child := range r.pages {
		if child.ParentID != nil && *child.ParentID == p.ID {
			children = append(children, child)
		}
	}
	slices.SortFunc(children, func(a, b *starsight.Page) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
	c.ChildIDs = make([]int64, 0, len(children))
	for _, child := range children {
		c.ChildIDs = append(c.ChildIDs, child.ID)
	}
	return c
}

func (r *Repository) ListPages(ctx context.Context, filter starsight.PageFilter) ([]*starsight.Page, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var restricted []string
	if filter.PublicOnly {
		for _, p := range r.pages {
			if p.Restricted {
				restricted = append(restricted, p.Path)
			}
		}
	}

	var matched []*starsight.Page
	for _, p := range r.pages {
		if matchPage(p, filter, restricted) {
			matched = append(matched, p)
		}
	}
	slices.SortFunc(matched, pageOrder(filter.OrderBy))

	window := paginate(matched, filter.Limit, filter.Offset)
	out := make([]*starsight.Page, 0, len(window))
	for _, p := range window {
		out = append(out, r.withChildren(p))
	}
	return out, len(matched), nil
}

func matchPage(p *starsight.Page, f starsight.PageFilter, restricted []string) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, p.ID) {
		return false
	}
	if f.Kind != "" && p.Kind != f.Kind {
		return false
	}
	if f.Slug != "" && p.Slug != f.Slug {
		return false
	}
	if f.ChildOf != nil && (p.ParentID == nil || *p.ParentID != *f.ChildOf) {
		return false
	}
	if f.LiveOnly && !p.Live {
		return false
	}
	if f.PublicOnly && starsight.UnderRestriction(p.Path, restricted) {
		return false
	}
	if len(f.Tags) > 0 {
		if p.Article == nil {
			return false
		}
		for _, tag := range f.Tags {
			if !slices.Contains(p.Article.Tags, tag) {
				return false
			}
		}
	}
	return true
}

func pageOrder(orderBy string) func(a, b *starsight.Page) int {
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")
	return func(a, b *starsight.Page) int {
		var c int
		switch field {
		case "title":
			c = strings.Compare(a.Title, b.Title)
		case "first_published_at":
			// Unpublished pages sort last in either direction.
			switch {
			case a.FirstPublishedAt == nil && b.FirstPublishedAt == nil:
			case a.FirstPublishedAt == nil:
				return 1
			case b.FirstPublishedAt == nil:
				return -1
			default:
				c = a.FirstPublishedAt.Compare(*b.FirstPublishedAt)
			}
		case "id", "":
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			c = -c
		}
		return cmp.Or(c, cmp.Compare(a.ID, b.ID))
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Topic operations

func (r *Repository) SaveTopic(ctx context.Context, topic *starsight.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.topics {
		if t.ID != topic.ID && t.Slug == topic.Slug {
			return fmt.Errorf("%w: topic %q", starsight.ErrDuplicateSlug, topic.Slug)
		}
	}
	if topic.ID == 0 {
		topic.ID = r.id()
	} else if _, ok := r.topics[topic.ID]; !ok {
		return fmt.Errorf("topic %d: %w", topic.ID, starsight.ErrTopicNotFound)
	}
	c := *topic
	r.topics[topic.ID] = &c
	return nil
}

func (r *Repository) GetTopic(ctx context.Context, id int64) (*starsight.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.topics[id]
	if !ok {
		return nil, fmt.Errorf("topic %d: %w", id, starsight.ErrTopicNotFound)
	}
	c := *t
	return &c, nil
}

func (r *Repository) ListTopics(ctx context.Context, filter starsight.SnippetFilter) ([]*starsight.Topic, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*starsight.Topic
	for _, t := range r.topics {
		if filter.Slug == "" || t.Slug == filter.Slug {
			c := *t
			matched = append(matched, &c)
		}
	}
	slices.SortFunc(matched, func(a, b *starsight.Topic) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

// Author operations

func (r *Repository) SaveAuthor(ctx context.Context, author *starsight.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.authors {
		if a.ID != author.ID && a.Username == author.Username {
			return fmt.Errorf("%w: author %q", starsight.ErrDuplicateSlug, author.Username)
		}
	}
	if author.ID == 0 {
		author.ID = r.id()
	} else if _, ok := r.authors[author.ID]; !ok {
		return fmt.Errorf("author %d: %w", author.ID, starsight.ErrAuthorNotFound)
	}
	c := *author
	r.authors[author.ID] = &c
	return nil
}

func (r *Repository) GetAuthor(ctx context.Context, id int64) (*starsight.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.authors[id]
	if !ok {
		return nil, fmt.Errorf("author %d: %w", id, starsight.ErrAuthorNotFound)
	}
	c := *a
	return &c, nil
}

func (r *Repository) ListAuthors(ctx context.Context, filter starsight.SnippetFilter) ([]*starsight.Author, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*starsight.Author, 0, len(r.authors))
	for _, a := range r.authors {
		c := *a
		matched = append(matched, &c)
	}
	slices.SortFunc(matched, func(a, b *starsight.Author) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

// Navigation operations

func (r *Repository) SaveNavigation(ctx context.Context, nav *starsight.Navigation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.navigations {
		if n.ID != nav.ID && n.Slug == nav.Slug {
			return fmt.Errorf("%w: navigation %q", starsight.ErrDuplicateSlug, nav.Slug)
		}
	}
	if nav.ID == 0 {
		nav.ID = r.id()
	} else if _, ok := r.navigations[nav.ID]; !ok {
		return fmt.Errorf("navigation %d: %w", nav.ID, starsight.ErrNavigationNotFound)
	}
	for i := range nav.Links {
		if nav.Links[i].ID == 0 {
			nav.Links[i].ID = r.id()
		}
	}
	r.navigations[nav.ID] = cloneNavigation(nav)
	return nil
}

// PutNavigation stores nav as is, bypassing the slug uniqueness check. It
// exists to reproduce data written before slugs were enforced.
func (r *Repository) PutNavigation(nav *starsight.Navigation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if nav.ID == 0 {
		nav.ID = r.id()
	}
	r.navigations[nav.ID] = cloneNavigation(nav)
}

func cloneNavigation(n *starsight.Navigation) *starsight.Navigation {
	c := *n
	c.Links = slices.Clone(n.Links)
	return &c
}

func (r *Repository) GetNavigation(ctx context.Context, id int64) (*starsight.Navigation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.navigations[id]
	if !ok {
		return nil, fmt.Errorf("navigation %d: %w", id, starsight.ErrNavigationNotFound)
	}
	return cloneNavigation(n), nil
}

func (r *Repository) ListNavigations(ctx context.Context, filter starsight.SnippetFilter) ([]*starsight.Navigation, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*starsight.Navigation
	for _, n := range r.navigations {
		if filter.Slug == "" || n.Slug == filter.Slug {
			matched = append(matched, cloneNavigation(n))
		}
	}
	slices.SortFunc(matched, func(a, b *starsight.Navigation) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

// Asset operations

func (r *Repository) CreateImage(ctx context.Context, image *starsight.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image.ID = r.id()
	c := *image
	c.Tags = slices.Clone(image.Tags)
	r.images[image.ID] = &c
	return nil
}

func (r *Repository) GetImage(ctx context.Context, id int64) (*starsight.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("image %d: %w", id, starsight.ErrImageNotFound)
	}
	c := *img
	c.Tags = slices.Clone(img.Tags)
	return &c, nil
}

func (r *Repository) ListImages(ctx context.Context, filter starsight.AssetFilter) ([]*starsight.Image, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*starsight.Image
	for _, img := range r.images {
		if matchAsset(img.Title, img.Tags, filter) {
			c := *img
			c.Tags = slices.Clone(img.Tags)
			matched = append(matched, &c)
		}
	}
	slices.SortFunc(matched, func(a, b *starsight.Image) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *Repository) CreateDocument(ctx context.Context, doc *starsight.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc.ID = r.id()
	c := *doc
	c.Tags = slices.Clone(doc.Tags)
	r.documents[doc.ID] = &c
	return nil
}

func (r *Repository) GetDocument(ctx context.Context, id int64) (*starsight.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, starsight.ErrDocumentNotFound)
	}
	c := *doc
	c.Tags = slices.Clone(doc.Tags)
	return &c, nil
}

func (r *Repository) ListDocuments(ctx context.Context, filter starsight.AssetFilter) ([]*starsight.Document, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*starsight.Document
	for _, doc := range r.documents {
		if matchAsset(doc.Title, doc.Tags, filter) {
			c := *doc
			c.Tags = slices.Clone(doc.Tags)
			matched = append(matched, &c)
		}
	}
	slices.SortFunc(matched, func(a, b *starsight.Document) int { return cmp.Compare(a.ID, b.ID) })
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}

func matchAsset(title string, tags []string, f starsight.AssetFilter) bool {
	if f.Title != "" && title != f.Title {
		return false
	}
	for _, tag := range f.Tags {
		if !slices.Contains(tags, tag) {
			return false
		}
	}
	return true
}
