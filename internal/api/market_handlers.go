package api

import (
	"net/http"
	"time"

	"github.com/stadam/econ-pricer/internal/pricing"
	"github.com/stadam/econ-pricer/internal/state"
)

type marketSyncRequest struct {
	Items []state.MarketItem `json:"items"`
}

// handleMarketSync serves POST /api/market/sync, replacing the catalog
// wholesale while preserving n/iota by id.
func (s *Server) handleMarketSync(w http.ResponseWriter, r *http.Request) {
	var req marketSyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	s.store.SyncCatalog(req.Items)
	s.scheduler.RequestSnapshot("market")
	writeJSON(w, map[string]interface{}{"success": true, "count": len(req.Items)})
}

// handleMarketGet serves GET /api/market: the current catalog snapshot.
func (s *Server) handleMarketGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Catalog())
}

type marketPricesRequest struct {
	ItemIDs []string `json:"itemIds"`
	Amount  float64  `json:"amount"`
	IsBuy   bool     `json:"isBuy"`
}

type marketPriceQuote struct {
	ItemID     string  `json:"itemId"`
	Price      float64 `json:"price"`
	EffectiveN float64 `json:"effectiveN"`
}

// handleMarketPrices serves POST /api/market/prices: a market-wide quote per
// item id, aggregating every player's history for that item rather than one
// player's own history.
func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	var req marketPricesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	cfg := s.store.Config()
	holidays := s.store.Holidays()
	envIndex, _ := s.env.Index(cfg, holidays, 0, false, time.Now())
	allHistories := s.store.AllPlayerHistories()

	quotes := make([]marketPriceQuote, 0, len(req.ItemIDs))
	for _, itemID := range req.ItemIDs {
		item, ok := s.store.CatalogItem(itemID)
		if !ok {
			continue
		}

		var points []pricing.HistoryPoint
		for _, p := range allHistories {
			for _, rec := range p.ItemSales[itemID] {
				points = append(points, pricing.HistoryPoint{TimestampMs: rec.Timestamp, Amount: rec.Amount})
			}
		}
		offset := item.N + item.Iota + cfg.GlobalIota
		effectiveN := pricing.EffectiveN(points, offset, cfg.RecoveryDelta, cfg.RecoveryTau, time.Now().UnixMilli())

		amount := req.Amount
		if amount <= 0 {
			amount = 1
		}
		var price float64
		if req.IsBuy {
			price = pricing.BuyPrice(item.BasePrice, envIndex, effectiveN, amount, item.Lambda, cfg.BuyPremium)
		} else {
			price = pricing.SellPrice(item.BasePrice, envIndex, effectiveN, amount, item.Lambda)
		}

		quotes = append(quotes, marketPriceQuote{ItemID: itemID, Price: price, EffectiveN: effectiveN})
	}

	writeJSON(w, map[string]interface{}{"quotes": quotes, "envIndex": envIndex})
}
