// Package web serves the address comparison pages, the JSON API and the
// row exports.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/lookup"
	"github.com/sells-group/address-compare/internal/model"
)

// Lookuper runs lookups. *lookup.Service implements it.
type Lookuper interface {
	Lookup(ctx context.Context, src lookup.Source, input string, opts lookup.Options) (*lookup.Result, error)
	Documents(ctx context.Context, ids []string, opts lookup.Options) (*lookup.Result, error)
	Locations(ctx context.Context, id string, opts lookup.Options) (*lookup.Result, error)
	Batch(ctx context.Context, ids []string, opts lookup.Options) []lookup.BatchEntry
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins allows cross-origin calls to the JSON API from origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMetrics sets the metrics collectors. Default: a fresh registry.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRequestTimeout bounds each request. Default: 60s.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// Server holds the HTTP handlers.
type Server struct {
	svc         Lookuper
	metrics     *Metrics
	validate    *validator.Validate
	pages       map[string]*template.Template
	corsOrigins []string
	timeout     time.Duration
}

// NewServer creates a Server around svc.
func NewServer(svc Lookuper, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		validate: newValidator(),
		pages:    parseTemplates(),
		timeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Get("/", s.handleUnified)
		r.Post("/", s.handleUnified)
		r.Get("/documents", s.handleDocuments)
		r.Post("/documents", s.handleDocuments)
		r.Get("/cds", s.handleCDS)
		r.Post("/cds", s.handleCDS)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
		r.Use(middleware.Timeout(s.timeout))
		r.Post("/lookup", s.handleAPILookup)
		r.Post("/batch", s.handleAPIBatch)
		r.Get("/export.csv", s.handleExport(csvExport))
		r.Get("/export.xlsx", s.handleExport(xlsxExport))
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("web: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// statusFor maps a lookup error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrLookupNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAuthentication),
		errors.Is(err, model.ErrUpstreamRequest),
		errors.Is(err, model.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, lookup.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("web: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeLookupError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error(), model.ErrorKind(err))
}
