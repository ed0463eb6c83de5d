// Package server exposes grid normalization and fabric calculations over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fabricquote/internal/calculator"
	"fabricquote/internal/grid"
)

// Calculator prices a calculation request.
type Calculator interface {
	Calculate(ctx context.Context, p calculator.Params) (*calculator.Result, error)
}

// GridStore persists a normalized grid onto a window covering.
type GridStore interface {
	SaveWindowCoveringGrid(ctx context.Context, id string, g *grid.StandardGrid) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	// RequestTimeout bounds every request. Zero disables the limit.
	RequestTimeout time.Duration
	// Health is checked by /healthz when set.
	Health Pinger
}

type Server struct {
	calc       Calculator
	grids      GridStore
	normalizer *grid.Normalizer
	health     Pinger
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func New(calc Calculator, grids GridStore, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		calc:       calc,
		grids:      grids,
		normalizer: grid.NewNormalizer(logger),
		health:     opts.Health,
		timeout:    opts.RequestTimeout,
		logger:     logger,
		now:        time.Now,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/grids", func(r chi.Router) {
			r.Post("/normalize", s.handleNormalize)
			r.Post("/validate", s.handleValidate)
			r.Post("/lookup", s.handleLookup)
			r.Post("/convert", s.handleConvert)
			r.Post("/import", s.handleImport)
		})
		r.Post("/calculations", s.handleCalculate)
		r.Post("/calculations/export", s.handleExport)
		r.Put("/window-coverings/{id}/grid", s.handleSaveGrid)
	})
	return r
}

// requestLogger logs one line per request once the response is written.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Error("HTTP request failed", fields...)
			return
		}
		s.logger.Info("HTTP request", fields...)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.PingContext(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
