// Package server exposes the tracking and statistics API consumed by
// the browser client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"gitstatviewer/logger"
	"gitstatviewer/models"
	"gitstatviewer/stats"
	"gitstatviewer/tracker"
)

// TrackingService abstracts the tracker operations needed by the
// handlers (for testability)
type TrackingService interface {
	Track(ctx context.Context, owner, name string) (tracker.Mode, error)
	Tracked() string
}

// CommitLister abstracts the store read needed by the handlers
// (for testability)
type CommitLister interface {
	ListByRepository(ctx context.Context, repositoryKey string) ([]models.Commit, error)
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server
type Server struct {
	router     chi.Router
	httpServer *http.Server
	addr       string

	trackerSvc TrackingService
	store      CommitLister
	pinger     Pinger
}

// New creates a Server with routes and middleware registered
func New(addr string, trackerSvc TrackingService, store CommitLister, pinger Pinger, allowedOrigins []string) *Server {
	s := &Server{
		addr:       addr,
		trackerSvc: trackerSvc,
		store:      store,
		pinger:     pinger,
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", s.handleHealth)
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Route("/repositories/{owner}/{name}", func(r chi.Router) {
			r.Post("/track", s.handleTrack)
			r.Get("/commits", s.handleCommits)
			r.Get("/stats", s.handleStats)
		})
	})

	s.router = router
	return s
}

// Router returns the chi router, mainly for tests
func (s *Server) Router() chi.Router {
	return s.router
}

// newHTTPServer builds the underlying http.Server. There is no write
// timeout: a tracking request is acknowledged only after its backfill
// completes, which can span many upstream round-trips. Each of those
// round-trips is individually bounded by the GitHub client's timeout.
func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = s.newHTTPServer()

	logger.Info("Starting HTTP server", zap.String("addr", s.addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// requestLogger logs one line per request with method, path, status
// and duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"tracked": s.trackerSvc.Tracked()})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	mode, err := s.trackerSvc.Track(r.Context(), owner, name)
	if err != nil {
		logger.Error("Tracking request failed",
			zap.Error(err),
			zap.String("owner", owner),
			zap.String("name", name))
		switch {
		case errors.Is(err, tracker.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	commits, err := s.store.ListByRepository(r.Context(), key)
	if err != nil {
		logger.Error("Failed to list commits", zap.Error(err), zap.String("repository_key", key))
		writeError(w, http.StatusInternalServerError, "failed to list commits")
		return
	}
	if commits == nil {
		commits = []models.Commit{}
	}

	writeJSON(w, http.StatusOK, commits)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")

	commits, err := s.store.ListByRepository(r.Context(), key)
	if err != nil {
		logger.Error("Failed to load commits for stats", zap.Error(err), zap.String("repository_key", key))
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats.Aggregate(commits))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
