package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/starsight/starsight-be/pkg/starsight"
)

// DefaultAPIBase is the path the endpoints are mounted under
const DefaultAPIBase = "/api/v2"

// RouterConfig configures NewRouter
type RouterConfig struct {
	Options

	// MediaPrefix, when set, serves stored files under this path
	MediaPrefix    string
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
	// Metrics enables request metrics and the /metrics endpoint
	Metrics *Metrics
}

// NewRouter builds the HTTP handler of the read-only content API
func NewRouter(service starsight.Service, cfg RouterConfig) http.Handler {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	health := NewHealthHandler(service)
	r.Get("/healthz", health.Live)
	r.Get("/healthz/ready", health.Ready)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	pages := NewPagesHandler(service, cfg.Options)
	snippets := NewSnippetsHandler(service, cfg.Options)
	assets := NewAssetsHandler(service, cfg.Options)

	r.Route(cfg.APIBase, func(r chi.Router) {
		r.Mount("/"+starsight.EndpointPages, pages.Routes())
		r.Mount("/"+starsight.EndpointNavigations, snippets.NavigationRoutes())
		r.Mount("/"+starsight.EndpointTopics, snippets.TopicRoutes())
		r.Mount("/"+starsight.EndpointAuthors, snippets.AuthorRoutes())
		r.Mount("/"+starsight.EndpointImages, assets.ImageRoutes())
		r.Mount("/"+starsight.EndpointDocuments, assets.DocumentRoutes())
	})

	if cfg.MediaPrefix != "" {
		r.Mount("/"+strings.Trim(cfg.MediaPrefix, "/"), assets.MediaRoutes())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Message: "Not found."})
	})

	return r
}
