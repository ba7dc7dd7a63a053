// Package server exposes the analysis pipeline over HTTP.
//
// The server accepts recorded traces via POST /v1/analyze, runs the
// load → assemble → render pipeline, and stores the resulting report under
// a generated analysis id for later retrieval via GET /v1/analyses/{id}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/critlens/critlens/pkg/cache"
	"github.com/critlens/critlens/pkg/critical"
	"github.com/critlens/critlens/pkg/pipeline"
	"github.com/critlens/critlens/pkg/trace"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8632"

// shutdownTimeout bounds graceful shutdown on SIGTERM.
const shutdownTimeout = 10 * time.Second

// Server wires the pipeline runner into an HTTP API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	store  *analysisStore
	http   *http.Server
}

// New creates a server around the given runner. The runner's cache is
// shared across requests, so repeated analyses of the same trace are
// served from cache.
func New(runner *pipeline.Runner, addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		runner: runner,
		logger: logger,
		store:  newAnalysisStore(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
	})
	return r
}

// ListenAndServe starts the server and blocks until ctx is canceled or the
// listener fails. On cancellation, in-flight requests get shutdownTimeout
// to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// AnalyzeResponse is the body returned by POST /v1/analyze and
// GET /v1/analyses/{id}.
type AnalyzeResponse struct {
	ID         string                              `json:"id"`
	CreatedAt  time.Time                           `json:"created_at"`
	ForestHash string                              `json:"forest_hash"`
	Chains     map[string]*critical.SerializedNode `json:"chains"`
	Stats      critical.Stats                      `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	records, err := trace.ReadRecords(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trace payload: "+err.Error())
		return
	}

	maxRequests := 0
	if v := r.URL.Query().Get("max_requests"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid max_requests")
			return
		}
		maxRequests = n
	}

	forest, err := s.runner.Assemble(r.Context(), records, pipeline.Options{
		Trace:       "api",
		MaxRequests: maxRequests,
	})
	if err != nil {
		if errors.Is(err, trace.ErrNoRootRequest) ||
			errors.Is(err, trace.ErrMultipleRootRequests) ||
			errors.Is(err, trace.ErrDuplicateRequestID) ||
			errors.Is(err, trace.ErrInvalidRequestID) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("assemble failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	resp := &AnalyzeResponse{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Chains:    critical.Serialize(forest),
		Stats:     critical.Summarize(forest),
	}
	if data, err := critical.MarshalJSON(forest); err == nil {
		resp.ForestHash = cache.Hash(data)
	}
	s.store.put(resp)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, ok := s.store.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "analysis not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// logRequests logs method, path, status, and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
