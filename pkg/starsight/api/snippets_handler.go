package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starsight/starsight-be/pkg/starsight"
)

var snippetListingParams = append([]string{"slug"}, paginationParams...)

// SnippetsHandler serves the navigations, topics and authors endpoints
type SnippetsHandler struct {
	handler
}

// NewSnippetsHandler creates a new snippets handler
func NewSnippetsHandler(service starsight.Service, opts Options) *SnippetsHandler {
	return &SnippetsHandler{handler{service: service, opts: opts}}
}

// NavigationRoutes returns the routes for navigations
func (h *SnippetsHandler) NavigationRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListNavigations)
	r.Get("/find", h.FindNavigation)
	r.Get("/{key}", h.GetNavigation)

	return r
}

// TopicRoutes returns the routes for topics
func (h *SnippetsHandler) TopicRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListTopics)
	r.Get("/find", h.FindTopic)
	r.Get("/{key}", h.GetTopic)

	return r
}

// AuthorRoutes returns the routes for authors
func (h *SnippetsHandler) AuthorRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListAuthors)
	r.Get("/{key}", h.GetAuthor)

	return r
}

// Navigations

// ListNavigations lists navigations, optionally filtered by slug
func (h *SnippetsHandler) ListNavigations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r, snippetListingParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.snippetFilter(true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	navs, total, err := h.service.ListNavigations(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.serializer()
	items := make([]*starsight.NavigationJSON, 0, len(navs))
	for _, n := range navs {
		item, err := s.Navigation(ctx, n)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, item)
	}
	writeJSON(w, r, http.StatusOK, starsight.Listing(total, items))
}

// GetNavigation returns one navigation by id or slug
func (h *SnippetsHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.serializer()

	lookup, err := starsight.ParseLookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	nav, err := h.service.ResolveNavigation(ctx, lookup)
	if err != nil {
		writeResolveError(w, r, s.ListingURL(starsight.EndpointNavigations), err)
		return
	}

	out, err := s.Navigation(ctx, nav)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// FindNavigation redirects to the navigation matching the filters
func (h *SnippetsHandler) FindNavigation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.serializer()

	q, err := parseQuery(r, "slug")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.snippetFilter(false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Limit = 1

	navs, total, err := h.service.ListNavigations(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	redirectFound(w, r, total, func() string {
		return s.DetailURL(starsight.EndpointNavigations, navs[0].ID)
	}, s.ListingURL(starsight.EndpointNavigations), q.Values)
}

// Topics

// ListTopics lists topics ordered by name
func (h *SnippetsHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r, snippetListingParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.snippetFilter(true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	topics, total, err := h.service.ListTopics(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.serializer()
	items := make([]*starsight.TopicJSON, 0, len(topics))
	for _, t := range topics {
		items = append(items, s.Topic(t))
	}
	writeJSON(w, r, http.StatusOK, starsight.Listing(total, items))
}

// GetTopic returns one topic by id or slug
func (h *SnippetsHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	s := h.serializer()

	lookup, err := starsight.ParseLookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	topic, err := h.service.ResolveTopic(r.Context(), lookup)
	if err != nil {
		writeResolveError(w, r, s.ListingURL(starsight.EndpointTopics), err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.Topic(topic))
}

// FindTopic redirects to the topic matching the filters
func (h *SnippetsHandler) FindTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.serializer()

	q, err := parseQuery(r, "slug")
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.snippetFilter(false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Limit = 1

	topics, total, err := h.service.ListTopics(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	redirectFound(w, r, total, func() string {
		return s.DetailURL(starsight.EndpointTopics, topics[0].ID)
	}, s.ListingURL(starsight.EndpointTopics), q.Values)
}

// Authors

// ListAuthors lists authors
func (h *SnippetsHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r, paginationParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.snippetFilter(true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	authors, total, err := h.service.ListAuthors(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.serializer()
	items := make([]*starsight.AuthorJSON, 0, len(authors))
	for _, a := range authors {
		item, err := s.Author(ctx, a)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, item)
	}
	writeJSON(w, r, http.StatusOK, starsight.Listing(total, items))
}

// GetAuthor returns one author. Authors have no slug and resolve by id only.
func (h *SnippetsHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.serializer()

	lookup, err := starsight.ParseLookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	author, err := starsight.Resolve(ctx, starsight.Finder[*starsight.Author]{
		ByID:     h.service.GetAuthor,
		NotFound: starsight.ErrAuthorNotFound,
	}, lookup)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := s.Author(ctx, author)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}
