package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/metrics"
	"github.com/JakeFAU/isro-crawler/internal/output"
	"github.com/JakeFAU/isro-crawler/internal/storage"
)

// Datasets reads written dataset files.
type Datasets interface {
	Object(ctx context.Context, name, ext string) ([]byte, error)
}

// Server exposes datasets over HTTP.
type Server struct {
	router   chi.Router
	datasets Datasets
	names    []string
	known    map[string]struct{}
	logger   *zap.Logger
}

// SourceInfo describes one dataset in the listing.
type SourceInfo struct {
	Name      string `json:"name"`
	JSON      string `json:"json"`
	CSV       string `json:"csv"`
	Available bool   `json:"available"`
}

// NewServer constructs a Server with middleware and routes. names lists the
// datasets that may be served, in display order.
func NewServer(datasets Datasets, names []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		datasets: datasets,
		names:    append([]string(nil), names...),
		known:    make(map[string]struct{}, len(names)),
		logger:   logger,
	}
	for _, n := range names {
		s.known[n] = struct{}{}
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1/sources", func(r chi.Router) {
		r.Get("/", s.listSources)
		r.Get("/{name}", s.getSource)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("shutdown complete")
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	out := make([]SourceInfo, 0, len(s.names))
	for _, name := range s.names {
		_, err := s.datasets.Object(r.Context(), name, "json")
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("dataset lookup failed", zap.String("source", name), zap.Error(err))
		}
		out = append(out, SourceInfo{
			Name:      name,
			JSON:      "/v1/sources/" + name,
			CSV:       "/v1/sources/" + name + ".csv",
			Available: err == nil,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ext := "json"
	contentType := output.ContentTypeJSON
	if trimmed, ok := strings.CutSuffix(name, ".csv"); ok {
		name, ext, contentType = trimmed, "csv", output.ContentTypeCSV
	} else if trimmed, ok := strings.CutSuffix(name, ".json"); ok {
		name = trimmed
	}
	if _, ok := s.known[name]; !ok {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}

	data, err := s.datasets.Object(r.Context(), name, ext)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "dataset has not been written yet")
			return
		}
		s.logger.Error("dataset read failed", zap.String("source", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dataset read failed")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("dataset write failed", zap.Error(err))
	}
}

type requestIDKey struct{}

// RequestID returns the request ID stored by the middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
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

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
