package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rflorenc/pipedrive-person-sync/internal/mapping"
	"github.com/rflorenc/pipedrive-person-sync/internal/models"
	"github.com/rflorenc/pipedrive-person-sync/internal/personsync"
)

// Server holds shared state for all API handlers.
type Server struct {
	Jobs   *models.JobStore
	Syncer *personsync.Syncer
	// LoadInput returns the configured input document, used when a request
	// does not carry one.
	LoadInput func() (mapping.Document, error)

	// runMu keeps sync runs strictly one at a time.
	runMu sync.Mutex
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sync", s.StartSync)
		r.Post("/payload", s.PreviewPayload)
		r.Get("/mappings", s.GetMappings)

		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
