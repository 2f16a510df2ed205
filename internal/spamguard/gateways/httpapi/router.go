// Package httpapi exposes the scorer over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// defaultMaxBodyBytes bounds POST bodies.
const defaultMaxBodyBytes = 64 << 10

// Scorer produces a verdict for one address.
type Scorer interface {
	Score(ctx context.Context, email string) domain.Verdict
}

// Instrumentation is the metrics surface the router mounts, if any.
type Instrumentation interface {
	HTTPMetrics(next http.Handler) http.Handler
	Handler() http.Handler
}

type Options struct {
	Scorer  Scorer
	Logger  log.Logger
	Metrics Instrumentation
	// CORSOrigins defaults to "*".
	CORSOrigins  []string
	MaxBodyBytes int64
}

// NewRouter builds the chi router with the standard middleware stack:
// request ID, real IP, panic recovery, metrics, access logging, then CORS.
func NewRouter(opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	h := &checkHandler{
		scorer:       opts.Scorer,
		logger:       logger,
		maxBodyBytes: maxBody,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(recoverer(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.HTTPMetrics)
	}
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(notFound(logger))
	r.MethodNotAllowed(methodNotAllowed(logger))

	for _, path := range []string{"/api/check", "/check"} {
		r.Get(path, h.ServeHTTP)
		r.Post(path, h.ServeHTTP)
		r.Options(path, preflight)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	return r
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
