package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/catgraph/pkg/buildinfo"
	"github.com/matzehuels/catgraph/pkg/observability"
	"github.com/matzehuels/catgraph/pkg/pipeline"
	"github.com/matzehuels/catgraph/pkg/store"
)

// Options configures a Server.
type Options struct {
	// Logger receives one line per request. Nil means log.Default().
	Logger *log.Logger

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string

	// Analysis holds defaults for analysis requests without parameters.
	Analysis pipeline.Options
}

// Server holds the collaborators of the HTTP handlers.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
}

// New creates a server over st. Analysis and tree requests go through runner
// so they share its cache.
func New(st store.Store, runner *pipeline.Runner, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: st, runner: runner, opts: opts, logger: logger}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Run-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics)
	}

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", s.listCategories)
		r.Post("/", s.createCategory)
		r.Get("/tree", s.tree)
		r.Get("/analysis", s.analysis)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getCategory)
			r.Delete("/", s.deleteCategory)
			r.Patch("/move", s.moveCategory)
			r.Get("/similar", s.similar)
			r.Post("/similarity", s.link)
			r.Delete("/similarity", s.unlink)
		})
	})

	return r
}

// requestLogger logs each request and reports it to the HTTP hooks under its
// route pattern, so /api/categories/{id} is one series regardless of id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		elapsed := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, ww.Status(), elapsed)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}
