// Package api exposes the read-only listings endpoint consumed by downstream
// tooling. It never writes: the ingestion pipeline is the only writer.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"deal-finder/models"
	"deal-finder/storage"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Server serves stored ads over HTTP.
type Server struct {
	store storage.ListingStore
	log   zerolog.Logger
}

func NewServer(store storage.ListingStore, log zerolog.Logger) *Server {
	return &Server{store: store, log: log}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/api/v1/ads", s.handleListAds)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "Welcome to the Deal Finder API!"})
}

func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	skip := queryInt(r, "skip", 0)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ads, err := s.store.ListAds(ctx, limit, skip)
	if err != nil {
		s.log.Error().Err(err).Msg("list ads failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "internal error"})
		return
	}
	if ads == nil {
		ads = []*models.Listing{}
	}

	render.JSON(w, r, ads)
}

func queryInt(r *http.Request, key string, fallback int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
