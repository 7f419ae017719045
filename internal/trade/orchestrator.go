// Package trade is the per-request pipeline: validate the wire request,
// snapshot shared state, verify identity, resolve the environment index,
// price the trade, and hand the resulting record to the persistence
// pipeline without blocking the caller on disk I/O.
package trade

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/stadam/econ-pricer/internal/environment"
	"github.com/stadam/econ-pricer/internal/persistence"
	"github.com/stadam/econ-pricer/internal/pricing"
	"github.com/stadam/econ-pricer/internal/state"
)

// minAmount is the smallest accepted absolute trade amount.
const minAmount = 1e-10

// maxBatchConcurrency bounds how many items of a batch price concurrently.
const maxBatchConcurrency = 10

// TradeRequest is the wire shape accepted by /calculate_sell, /calculate_buy,
// and each element of /batch_sell.
type TradeRequest struct {
	PlayerID       string   `json:"playerId"`
	PlayerName     string   `json:"playerName"`
	ItemID         string   `json:"itemId"`
	BasePrice      float64  `json:"basePrice"`
	Amount         float64  `json:"amount"`
	DecayLambda    float64  `json:"decayLambda"`
	Iota           *float64 `json:"iota,omitempty"`
	ManualEnvIndex *float64 `json:"manualEnvIndex,omitempty"`
	IsPreview      bool     `json:"isPreview,omitempty"`
}

// TradeResponse is the wire shape returned for every trade, successful or
// not. FinalPrice duplicates TotalPrice for clients that read either field
// name.
type TradeResponse struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	TotalPrice   float64 `json:"totalPrice"`
	UnitPriceAvg float64 `json:"unitPriceAvg"`
	EnvIndex     float64 `json:"envIndex"`
	EffectiveN   float64 `json:"effectiveN"`
	FinalPrice   float64 `json:"finalPrice"`
}

// ValidationError marks a BadRequest-class failure: the HTTP layer maps
// this to a 400 with no state change and no record.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Orchestrator wires the components a trade pipeline needs: the shared
// store for snapshots and recording, the environment cache for ε(t), an
// identity verifier for the online-mode check, and the persistence
// pipeline the resulting record is handed to.
type Orchestrator struct {
	store    *state.Store
	env      *environment.Cache
	online   IdentityVerifier
	offline  IdentityVerifier
	pipeline *persistence.Pipeline

	// now is overridable in tests for deterministic timestamps.
	now func() time.Time
}

// NewOrchestrator builds an Orchestrator. online may be nil if
// config.isOnlineMode is never enabled for this deployment.
func NewOrchestrator(store *state.Store, env *environment.Cache, online IdentityVerifier, pipeline *persistence.Pipeline) *Orchestrator {
	return &Orchestrator{
		store:    store,
		env:      env,
		online:   online,
		offline:  OfflineVerifier{},
		pipeline: pipeline,
		now:      time.Now,
	}
}

// ProcessTrade runs the full validate/identity/price/record pipeline for
// one request.
// A non-nil error is always a *ValidationError (BadRequest); every other
// failure mode (identity, pricing edge cases) is carried in the response's
// success/message fields, never as a Go error.
func (o *Orchestrator) ProcessTrade(ctx context.Context, req TradeRequest, isBuy bool) (TradeResponse, error) {
	if err := validate(req); err != nil {
		return TradeResponse{}, err
	}
	return o.price(ctx, req, isBuy, o.pipeline.Send), nil
}

func validate(req TradeRequest) error {
	if req.PlayerID == "" {
		return &ValidationError{Message: "playerId is required"}
	}
	if !isFinite(req.Amount) || math.Abs(req.Amount) <= minAmount {
		return &ValidationError{Message: "amount must be finite and non-trivial"}
	}
	return nil
}

// price assumes req already passed validate and never returns an error;
// every downstream failure (e.g. identity) is folded into the response.
// submit is the persistence-channel entry point: Send (100ms timeout) for a
// single-trade request, TrySend (non-blocking) for a batch element.
func (o *Orchestrator) price(ctx context.Context, req TradeRequest, isBuy bool, submit func(state.TransactionRecord)) TradeResponse {
	cfg := o.store.Config()
	holidays := o.store.Holidays()
	hist := o.store.PlayerHistory(req.PlayerID)

	verifier := o.offline
	if cfg.IsOnlineMode {
		verifier = o.online
	}
	if verifier == nil {
		return TradeResponse{Success: false, Message: "identity verification unavailable"}
	}
	ok, err := verifier.Verify(ctx, req.PlayerID, req.PlayerName)
	if err != nil || !ok {
		return TradeResponse{Success: false, Message: "identity verification failed"}
	}

	now := o.now()
	hasManual := req.ManualEnvIndex != nil && isFinite(*req.ManualEnvIndex) && *req.ManualEnvIndex > 0
	var manual float64
	if hasManual {
		manual = *req.ManualEnvIndex
	}
	envIndex, envNote := o.env.Index(cfg, holidays, manual, hasManual, now)

	// n_eff offset = item.N + item.Iota + (request iota, falling back to
	// config.globalIota), the same additive composition /api/market/prices
	// uses when aggregating across players.
	item, found := o.store.CatalogItem(req.ItemID)
	requestIota := cfg.GlobalIota
	if req.Iota != nil {
		requestIota = *req.Iota
	}
	staticOffset := requestIota
	if found {
		staticOffset += item.N + item.Iota
	}

	points := historyPoints(hist.ItemSales[req.ItemID])
	effectiveN := pricing.EffectiveN(points, staticOffset, cfg.RecoveryDelta, cfg.RecoveryTau, now.UnixMilli())

	amount := math.Abs(req.Amount)
	var totalPrice float64
	if isBuy {
		totalPrice = pricing.BuyPrice(req.BasePrice, envIndex, effectiveN, amount, req.DecayLambda, cfg.BuyPremium)
	} else {
		totalPrice = pricing.SellPrice(req.BasePrice, envIndex, effectiveN, amount, req.DecayLambda)
	}

	unitPriceAvg := 0.0
	if amount > minAmount {
		unitPriceAvg = round2(totalPrice / amount)
	}

	resp := TradeResponse{
		Success:      true,
		TotalPrice:   totalPrice,
		UnitPriceAvg: unitPriceAvg,
		EnvIndex:     round3(envIndex),
		EffectiveN:   round2(effectiveN),
		FinalPrice:   totalPrice,
	}

	if !req.IsPreview && totalPrice > 0 {
		o.record(req, isBuy, resp, envNote, now, submit)
	}

	return resp
}

func historyPoints(records []state.SalesRecord) []pricing.HistoryPoint {
	if len(records) == 0 {
		return nil
	}
	out := make([]pricing.HistoryPoint, len(records))
	for i, r := range records {
		out[i] = pricing.HistoryPoint{TimestampMs: r.Timestamp, Amount: r.Amount}
	}
	return out
}

func (o *Orchestrator) record(req TradeRequest, isBuy bool, resp TradeResponse, envNote string, now time.Time, submit func(state.TransactionRecord)) {
	action := "SELL"
	if isBuy {
		action = "BUY"
	}
	rec := state.TransactionRecord{
		Timestamp:  now.UnixMilli(),
		Action:     action,
		Amount:     math.Abs(req.Amount),
		TotalPrice: resp.TotalPrice,
		AvgPrice:   resp.UnitPriceAvg,
		EnvIndex:   resp.EnvIndex,
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
		ItemID:     req.ItemID,
		Note:       envNote,
	}
	submit(rec)
}

// ProcessBatch runs up to maxBatchConcurrency item pipelines concurrently,
// preserving input order in the result slice. Each element fails
// independently: a validation failure becomes a success=false response at
// that index rather than aborting the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, requests []TradeRequest, isBuy bool) []TradeResponse {
	results := make([]TradeResponse, len(requests))
	sem := make(chan struct{}, maxBatchConcurrency)
	var wg sync.WaitGroup

	for i, req := range requests {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, req TradeRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := validate(req); err != nil {
				results[i] = TradeResponse{Success: false, Message: err.Error()}
				return
			}
			results[i] = o.price(ctx, req, isBuy, o.pipeline.TrySend)
		}(i, req)
	}
	wg.Wait()
	return results
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
