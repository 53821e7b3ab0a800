package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// Options configures the URLs handlers put into responses
type Options struct {
	BaseURL string // site base URL, prefixes html_url and detail_url
	APIBase string // path the endpoints are mounted under, e.g. "/api/v2"
}

type handler struct {
	service starsight.Service
	opts    Options
}

// serializer returns a fresh serializer; its page path cache is per request.
func (h *handler) serializer() *starsight.Serializer {
	return starsight.NewSerializer(h.service, h.opts.BaseURL, h.opts.APIBase)
}

var (
	pageFilterParams  = []string{"type", "slug", "child_of", "tags", "order"}
	pageListingParams = append(append([]string{"fields"}, pageFilterParams...), paginationParams...)
	pageFindParams    = append([]string{"id", "html_path"}, pageFilterParams...)
)

// PagesHandler serves the read-only pages endpoint
type PagesHandler struct {
	handler
}

// NewPagesHandler creates a new pages handler
func NewPagesHandler(service starsight.Service, opts Options) *PagesHandler {
	return &PagesHandler{handler{service: service, opts: opts}}
}

// Routes returns the routes for pages
func (h *PagesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPages)
	r.Get("/find", h.FindPage)
	r.Get("/{key}", h.GetPage)

	return r
}

func pageFilter(q query) (starsight.PageFilter, error) {
	f := starsight.PageFilter{
		Slug:    q.Get("slug"),
		Tags:    q.list("tags"),
		OrderBy: q.Get("order"),
	}
	if raw := q.Get("type"); raw != "" {
		kind, err := starsight.ParsePageKind(raw)
		if err != nil {
			return f, fmt.Errorf("%w: type doesn't exist: %s", starsight.ErrInvalidFilter, raw)
		}
		f.Kind = kind
	}
	childOf, err := q.int64Ptr("child_of")
	if err != nil {
		return f, err
	}
	f.ChildOf = childOf
	return f, nil
}

// ListPages lists live public pages
func (h *PagesHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r, pageListingParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := pageFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Limit, filter.Offset, err = q.pagination(); err != nil {
		writeError(w, r, err)
		return
	}
	fields, err := starsight.ParseFields(q.Get("fields"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	pages, total, err := h.service.ListPages(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.serializer()
	items := make([]map[string]any, 0, len(pages))
	for _, p := range pages {
		item, err := s.PageItem(ctx, p, fields)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, item)
	}

	writeJSON(w, r, http.StatusOK, starsight.Listing(total, items))
}

// GetPage returns one page by id or slug
func (h *PagesHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.serializer()

	lookup, err := starsight.ParseLookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.service.ResolvePage(ctx, lookup)
	if err != nil {
		writeResolveError(w, r, s.ListingURL(starsight.EndpointPages), err)
		return
	}

	detail, err := s.PageDetail(ctx, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

// FindPage redirects to the single page matching the filters, or to the
// listing when several match. html_path resolves a site URL path instead.
func (h *PagesHandler) FindPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.serializer()

	q, err := parseQuery(r, pageFindParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if path := q.Get("html_path"); path != "" {
		page, err := h.service.FindPageByPath(ctx, path)
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, s.DetailURL(starsight.EndpointPages, page.ID), http.StatusFound)
		return
	}

	filter, err := pageFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := q.int64Ptr("id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if id != nil {
		filter.IDs = []int64{*id}
	}
	filter.Limit = 1

	pages, total, err := h.service.ListPages(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	redirectFound(w, r, total, func() string {
		return s.DetailURL(starsight.EndpointPages, pages[0].ID)
	}, s.ListingURL(starsight.EndpointPages), q.Values, "id", "html_path")
}

// redirectFound answers a find request: 404 for no match, the detail URL
// for exactly one, the listing with the same filters for several.
func redirectFound(w http.ResponseWriter, r *http.Request, total int, detailURL func() string, listingURL string, filters url.Values, drop ...string) {
	switch {
	case total == 0:
		writeError(w, r, starsight.ErrNotFound)
	case total == 1:
		http.Redirect(w, r, detailURL(), http.StatusFound)
	default:
		params := url.Values{}
		for k, v := range filters {
			params[k] = v
		}
		for _, k := range drop {
			params.Del(k)
		}
		target := listingURL
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
