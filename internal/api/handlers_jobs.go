package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docsplit/internal/index"
)

// handleIngestSections returns the sections a finished job produced.
func (s *Server) handleIngestSections(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Done() {
		jsonError(w, "job is still "+string(snap.Status), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"sections": job.Sections(),
	})
}

// handleDeleteDocuments removes a job's section documents from the search
// index.
func (s *Server) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	idx := s.orchestrator.Index()
	if idx == nil {
		jsonError(w, "search index not configured", http.StatusServiceUnavailable)
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Done() {
		jsonError(w, "job is still "+string(snap.Status), http.StatusConflict)
		return
	}

	ids := index.DocumentIDs(snap.Filename, snap.Progress.Chunks)
	if err := idx.Delete(r.Context(), ids); err != nil {
		s.log.Error("delete documents failed", "job_id", snap.ID, "error", err)
		jsonError(w, "failed to delete documents: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":  snap.ID,
		"deleted": len(ids),
	})
}
