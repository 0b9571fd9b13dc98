package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"split":       s.orchestrator.SplitStats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"splitter":    s.orchestrator.Splitter().Config(),
	}
	if s.analyzeStats != nil {
		resp["analyze"] = s.analyzeStats.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
