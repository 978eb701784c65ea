package api

import (
	"net/http"
)

// handlePipelineStats reports rolling job latency percentiles and
// current queue depth.
func (s *Server) handlePipelineStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":        s.orchestrator.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
