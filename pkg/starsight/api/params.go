package api

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// Pagination limits of every listing endpoint
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var paginationParams = []string{"limit", "offset"}

// query wraps the request query string and rejects parameters an endpoint
// does not understand.
type query struct {
	url.Values
}

func parseQuery(r *http.Request, allowed ...string) (query, error) {
	values := r.URL.Query()
	for name := range values {
		if !slices.Contains(allowed, name) {
			return query{}, fmt.Errorf("%w: query parameter is not an operation or a recognised field: %s", starsight.ErrInvalidFilter, name)
		}
	}
	return query{values}, nil
}

func (q query) int64Ptr(name string) (*int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", starsight.ErrInvalidFilter, name)
	}
	return &v, nil
}

// list splits a comma separated parameter, dropping empty entries.
func (q query) list(name string) []string {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (q query) pagination() (limit, offset int, err error) {
	limit = DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("%w: limit must be a positive integer", starsight.ErrInvalidFilter)
		}
		if limit > MaxLimit {
			return 0, 0, fmt.Errorf("%w: limit cannot be higher than %d", starsight.ErrInvalidFilter, MaxLimit)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("%w: offset must be a positive integer", starsight.ErrInvalidFilter)
		}
	}
	return limit, offset, nil
}

func (q query) snippetFilter(paginate bool) (starsight.SnippetFilter, error) {
	f := starsight.SnippetFilter{Slug: q.Get("slug")}
	if paginate {
		var err error
		if f.Limit, f.Offset, err = q.pagination(); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (q query) assetFilter(paginate bool) (starsight.AssetFilter, error) {
	f := starsight.AssetFilter{Title: q.Get("title"), Tags: q.list("tags")}
	if paginate {
		var err error
		if f.Limit, f.Offset, err = q.pagination(); err != nil {
			return f, err
		}
	}
	return f, nil
}
