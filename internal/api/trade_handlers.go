package api

import (
	"net/http"

	"github.com/stadam/econ-pricer/internal/trade"
)

// handleCalculate serves /calculate_sell and /calculate_buy: one TradeRequest
// in, one TradeResponse out.
func (s *Server) handleCalculate(isBuy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req trade.TradeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		resp, err := s.orch.ProcessTrade(r.Context(), req, isBuy)
		if err != nil {
			if ve, ok := err.(*trade.ValidationError); ok {
				writeError(w, http.StatusBadRequest, ve.Message)
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, resp)
	}
}

type batchTradeRequest struct {
	Requests []trade.TradeRequest `json:"requests"`
}

type batchTradeResponse struct {
	Results []trade.TradeResponse `json:"results"`
}

// handleBatch serves /batch_sell and /batch_buy.
func (s *Server) handleBatch(isBuy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchTradeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		results := s.orch.ProcessBatch(r.Context(), req.Requests, isBuy)
		writeJSON(w, batchTradeResponse{Results: results})
	}
}
