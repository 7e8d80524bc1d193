// Package api exposes the HTTP interface for the metadata cache service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
	"github.com/rain0r/spotify-metadata-cache/internal/metrics"
	"github.com/rain0r/spotify-metadata-cache/internal/worker"
)

// Server wires HTTP handlers to the ingestion worker.
type Server struct {
	router chi.Router
	worker *worker.Worker
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(w *worker.Worker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		worker: w,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/albums", s.submitAlbum)
		r.Get("/stats", s.getStats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The service only ingests while the worker loop runs; report
	// draining and stopped as not ready so load balancers stop routing.
	state := s.worker.State()
	if state != worker.StateRunning {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"state":  state.String(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type submitAlbumRequest struct {
	AlbumID  string `json:"album_id"`
	Priority string `json:"priority"`
}

func (s *Server) submitAlbum(w http.ResponseWriter, r *http.Request) {
	var req submitAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AlbumID == "" {
		s.writeError(w, http.StatusBadRequest, "album_id required")
		return
	}
	priority, err := mcache.ParsePriority(req.Priority)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	queued := s.worker.Add(req.AlbumID, priority)
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"album_id": req.AlbumID,
		"queued":   queued,
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	_ = r
	s.writeJSON(w, http.StatusOK, s.worker.Snapshot())
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
