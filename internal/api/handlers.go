// Package api exposes a read-only JSON surface over a completed batch
// run for presentation collaborators.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"driftwatch/app"
	"driftwatch/domain/cohort"
)

// Handler serves one completed batch result. The result is immutable, so
// concurrent requests need no synchronization.
type Handler struct {
	result *app.BatchResult
}

// NewHandler wraps a finished batch run
func NewHandler(result *app.BatchResult) *Handler {
	return &Handler{result: result}
}

// Routes builds the router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/assessments", h.listAssessments)
		r.Get("/assessments/{personID}", h.getAssessment)
		r.Get("/metrics", h.getMetrics)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "run_id": h.result.RunID})
}

func (h *Handler) listAssessments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.result.Assessments)
}

func (h *Handler) getAssessment(w http.ResponseWriter, r *http.Request) {
	personID := cohort.PersonID(chi.URLParam(r, "personID"))
	for i := range h.result.Assessments {
		if h.result.Assessments[i].PersonID == personID {
			writeJSON(w, http.StatusOK, h.result.Assessments[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "person not found in this run"})
}

func (h *Handler) getMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":        h.result.RunID,
		"model_version": h.result.Model.Version,
		"metrics":       h.result.Model.Metrics,
		"skipped":       h.result.Skipped,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
