package api

import (
	"net/http"

	"github.com/stadam/econ-pricer/internal/state"
)

// handleGetPlayer serves GET /api/player/{id}.
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "player id is required")
		return
	}
	writeJSON(w, s.store.PlayerHistory(id))
}

// handlePlayerSync serves POST /api/player/sync: upsert one player's whole
// history. PlayerSalesHistory's json tags already match the wire shape, so
// it is decoded directly.
func (s *Server) handlePlayerSync(w http.ResponseWriter, r *http.Request) {
	var p state.PlayerSalesHistory
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if p.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "playerId is required")
		return
	}
	if p.ItemSales == nil {
		p.ItemSales = map[string][]state.SalesRecord{}
	}

	s.store.UpsertPlayerHistory(&p)
	s.scheduler.RequestSnapshot("players")
	writeJSON(w, map[string]bool{"success": true})
}
