package api

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starsight/starsight-be/pkg/starsight"
)

var assetListingParams = append([]string{"title", "tags"}, paginationParams...)

// AssetsHandler serves the images and documents endpoints and, when the
// media URL strategy is used, the files themselves.
type AssetsHandler struct {
	handler
}

// NewAssetsHandler creates a new assets handler
func NewAssetsHandler(service starsight.Service, opts Options) *AssetsHandler {
	return &AssetsHandler{handler{service: service, opts: opts}}
}

// ImageRoutes returns the routes for images
func (h *AssetsHandler) ImageRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListImages)
	r.Get("/{key}", h.GetImage)

	return r
}

// DocumentRoutes returns the routes for documents
func (h *AssetsHandler) DocumentRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDocuments)
	r.Get("/{key}", h.GetDocument)

	return r
}

// MediaRoutes returns the routes serving stored files by object key
func (h *AssetsHandler) MediaRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/*", h.DownloadFile)

	return r
}

// ListImages lists images
func (h *AssetsHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r, assetListingParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.assetFilter(true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	images, total, err := h.service.ListImages(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.serializer()
	items := make([]*starsight.ImageJSON, 0, len(images))
	for _, img := range images {
		item, err := s.Image(ctx, img, false)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, item)
	}
	writeJSON(w, r, http.StatusOK, starsight.Listing(total, items))
}

// GetImage returns one image by id
func (h *AssetsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lookup, err := starsight.ParseLookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := starsight.Resolve(ctx, starsight.Finder[*starsight.Image]{
		ByID:     h.service.GetImage,
		NotFound: starsight.ErrImageNotFound,
	}, lookup)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.serializer().Image(ctx, img, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// ListDocuments lists documents
func (h *AssetsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseQuery(r, assetListingParams...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := q.assetFilter(true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	docs, total, err := h.service.ListDocuments(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.serializer()
	items := make([]*starsight.DocumentJSON, 0, len(docs))
	for _, doc := range docs {
		item, err := s.Document(ctx, doc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		items = append(items, item)
	}
	writeJSON(w, r, http.StatusOK, starsight.Listing(total, items))
}

// GetDocument returns one document by id
func (h *AssetsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lookup, err := starsight.ParseLookup(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := starsight.Resolve(ctx, starsight.Finder[*starsight.Document]{
		ByID:     h.service.GetDocument,
		NotFound: starsight.ErrDocumentNotFound,
	}, lookup)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.serializer().Document(ctx, doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// DownloadFile streams a stored file by object key
func (h *AssetsHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if key == "" {
		writeError(w, r, starsight.ErrObjectNotFound)
		return
	}

	rc, err := h.service.DownloadAsset(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.WarnContext(r.Context(), "Failed to stream file", "object_key", key, "error", err)
	}
}
