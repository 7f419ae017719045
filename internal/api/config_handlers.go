package api

import "net/http"

// handleGetConfig serves GET /api/config.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Config())
}

// handleSetConfig serves POST /api/config: a hot-replace, enqueuing a
// snapshot-request rather than writing to disk inline.
func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Config()
	if err := decodeJSON(r, cfg); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	s.store.SetConfig(cfg)
	s.scheduler.RequestSnapshot("config")
	writeJSON(w, cfg)
}

// handleHistory serves GET /api/history: the recent transaction ring.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.History())
}

// handleMetrics serves GET /api/metrics: counters and uptime.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.collector.Snapshot())
}
