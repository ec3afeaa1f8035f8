package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/amendment-radar/internal/config"
	"github.com/DeafMist/amendment-radar/internal/models"
)

const errFetchFailed = "Failed to fetch amendments"

type digestBuilder interface {
	Build(ctx context.Context) (*models.Digest, error)
}

type server struct {
	log     *slog.Logger
	cfg     *config.API
	builder digestBuilder
}

type errorResponse struct {
	Error string `json:"error"`
}

func newServer(log *slog.Logger, cfg *config.API, builder digestBuilder) *server {
	return &server{log: log, cfg: cfg, builder: builder}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/amendments", s.handleAmendments)
	r.Get("/api/amendments", s.handleAmendments)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleAmendments(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("digest pipeline panicked", slog.Any("panic", rec))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errFetchFailed})
		}
	}()

	if err := s.cfg.RequireAPIKey(); err != nil {
		log.Error("digest request rejected", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	result, err := s.builder.Build(r.Context())
	if err != nil {
		log.Error("build digest", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errFetchFailed})
		return
	}

	log.Info("digest served",
		slog.Int("count", result.Count),
		slog.Duration("took", time.Since(start)),
	)
	w.Header().Set("Cache-Control", cacheControl(s.cfg.CacheMaxAge, s.cfg.StaleWhileRevalidate))
	writeJSON(w, http.StatusOK, result)
}

// cacheControl lets shared caches keep the digest for maxAge and serve it
// stale for another stale window while refetching.
func cacheControl(maxAge, stale time.Duration) string {
	v := fmt.Sprintf("public, s-maxage=%d", int64(maxAge/time.Second))
	if stale > 0 {
		v += fmt.Sprintf(", stale-while-revalidate=%d", int64(stale/time.Second))
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
