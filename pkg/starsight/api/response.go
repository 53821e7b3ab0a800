package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/render"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// writeError maps service errors onto HTTP responses. Ambiguous slugs are
// handled by the caller because the redirect target depends on the endpoint.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, starsight.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Message: "No item matches the given query."})
	case errors.Is(err, starsight.ErrInvalidLookup),
		errors.Is(err, starsight.ErrInvalidFilter),
		errors.Is(err, starsight.ErrUnknownPageType):
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

// writeResolveError handles a failed detail lookup: a slug shared by several
// records redirects to the endpoint listing filtered by that slug.
func writeResolveError(w http.ResponseWriter, r *http.Request, listingURL string, err error) {
	var ambiguous *starsight.AmbiguousSlugError
	if errors.As(err, &ambiguous) {
		slog.InfoContext(r.Context(), "Ambiguous slug, redirecting to listing", "slug", ambiguous.Slug, "matches", ambiguous.Count)
		http.Redirect(w, r, listingURL+"?slug="+url.QueryEscape(ambiguous.Slug), http.StatusFound)
		return
	}
	writeError(w, r, err)
}
