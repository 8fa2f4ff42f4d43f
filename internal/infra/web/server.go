package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-scene-backend/internal/usecase"
)

type Server struct {
	projectUC usecase.ProjectUseCase
	log       *zerolog.Logger
}

func NewServer(projectUC usecase.ProjectUseCase, logger *zerolog.Logger) *Server {
	return &Server{projectUC: projectUC, log: logger}
}

// Router builds the HTTP surface of the backend. All pipeline routes run
// behind the request-id middleware so dispatched jobs carry correlation.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Post("/", s.handleCreateProject)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Get("/timeline", s.handleTimeline)
			r.Post("/assets/confirm", s.handleConfirmAsset)
			r.Put("/assets/{assetID}", s.handleUpdateAsset)
			r.Get("/script", s.handleGetScript)
			r.Post("/script", s.handleGenerateScript)
			r.Put("/script", s.handleUpdateScript)
			r.Post("/audio", s.handleGenerateAudio)
			r.Post("/render", s.handleRender)
			r.Post("/render/retry", s.handleRetryRender)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
