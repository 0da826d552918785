package server

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/amityadav/researchcrew/internal/core"
	"github.com/amityadav/researchcrew/internal/middleware"
	"github.com/amityadav/researchcrew/internal/store"
	"github.com/gorilla/mux"
)

//go:embed web/index.html
var indexHTML []byte

// ResearchAPI is the run lifecycle the HTTP handlers drive
type ResearchAPI interface {
	Submit(ctx context.Context, req core.Request) (*store.Run, error)
	Get(ctx context.Context, runID string) (*store.Run, error)
	Subscribe(runID string) (<-chan core.Progress, func())
}

// Server serves the web UI and the research API
type Server struct {
	research ResearchAPI
	router   *mux.Router
}

// NewServer builds the router. apiKey protects /api routes when set.
func NewServer(research ResearchAPI, apiKey string) *Server {
	s := &Server{
		research: research,
		router:   mux.NewRouter(),
	}

	s.router.Use(recoveryMiddleware)
	s.router.Use(loggingMiddleware)
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)
	api.Use(middleware.APIKey(apiKey))
	api.HandleFunc("/research", s.handleResearch).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/runs/{id}/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/download/{kind:research|summary}", s.handleDownload).Methods(http.MethodGet, http.MethodOptions)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML)
}
