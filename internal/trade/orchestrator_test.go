package trade

import (
	"context"
	"testing"
	"time"

	"github.com/stadam/econ-pricer/internal/config"
	"github.com/stadam/econ-pricer/internal/environment"
	"github.com/stadam/econ-pricer/internal/persistence"
	"github.com/stadam/econ-pricer/internal/state"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *state.Store, *persistence.Pipeline, func()) {
	t.Helper()
	dir := t.TempDir()
	log, err := persistence.OpenHistoryLog(dir + "/history.bin")
	if err != nil {
		t.Fatalf("open history log: %v", err)
	}
	st := state.New(config.Default())
	pipe := persistence.NewPipeline(log, st)
	ctx, cancel := context.WithCancel(context.Background())
	go pipe.Run(ctx)

	o := NewOrchestrator(st, environment.NewCache(), nil, pipe)
	cleanup := func() {
		cancel()
		pipe.Close()
		pipe.Wait(context.Background())
		log.Close()
	}
	return o, st, pipe, cleanup
}

func TestProcessTrade_RejectsEmptyPlayerID(t *testing.T) {
	o, _, _, cleanup := newTestOrchestrator(t)
	defer cleanup()

	_, err := o.ProcessTrade(context.Background(), TradeRequest{ItemID: "ore", Amount: 5, BasePrice: 100}, false)
	if err == nil {
		t.Fatal("expected a ValidationError")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestProcessTrade_RejectsTinyAmount(t *testing.T) {
	o, _, _, cleanup := newTestOrchestrator(t)
	defer cleanup()

	_, err := o.ProcessTrade(context.Background(), TradeRequest{PlayerID: "p1", ItemID: "ore", Amount: 1e-12, BasePrice: 100}, false)
	if err == nil {
		t.Fatal("expected a ValidationError for a near-zero amount")
	}
}

// S1 via the orchestrator: basePrice=100, env=1 (offline default config,
// noise at its 1e-4 floor), lambda=0, amount=5, no history, sell.
func TestProcessTrade_SellLinearLimit(t *testing.T) {
	o, st, _, cleanup := newTestOrchestrator(t)
	defer cleanup()

	cfg := config.Default()
	cfg.BaseEnvIndex = 1.0
	cfg.NoiseStd = 0 // Sanitize raises this to the 0.0001 minimum: near-zero noise
	st.SetConfig(cfg)
	o.now = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) } // plain weekday, no season

	req := TradeRequest{PlayerID: "this-player-id-is-long-enough-32c", ItemID: "ore", BasePrice: 100, Amount: 5, DecayLambda: 0}
	resp, err := o.ProcessTrade(context.Background(), req, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got message %q", resp.Message)
	}
	if resp.TotalPrice < 499 || resp.TotalPrice > 501 {
		t.Fatalf("totalPrice = %v, want ~500 (noise floor may shift slightly)", resp.TotalPrice)
	}
}

func TestProcessTrade_OfflineModeRejectsShortPlayerID(t *testing.T) {
	o, st, _, cleanup := newTestOrchestrator(t)
	defer cleanup()
	cfg := st.Config()
	cfg.IsOnlineMode = false
	st.SetConfig(cfg)

	req := TradeRequest{PlayerID: "short", ItemID: "ore", BasePrice: 100, Amount: 1, DecayLambda: 0}
	resp, err := o.ProcessTrade(context.Background(), req, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success {
		t.Fatal("expected identity failure for a short offline playerId")
	}
}

func TestProcessTrade_PreviewProducesNoRecord(t *testing.T) {
	o, st, _, cleanup := newTestOrchestrator(t)
	defer cleanup()

	req := TradeRequest{
		PlayerID:  "this-player-id-is-long-enough-32c",
		ItemID:    "ore",
		BasePrice: 100,
		Amount:    5,
		IsPreview: true,
	}
	resp, err := o.ProcessTrade(context.Background(), req, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Message)
	}
	time.Sleep(50 * time.Millisecond) // give the appender a chance to misbehave, if it would
	if len(st.History()) != 0 {
		t.Fatal("preview trade must not produce a history record")
	}
}

func TestProcessBatch_PreservesOrderAndIsolatesFailures(t *testing.T) {
	o, _, _, cleanup := newTestOrchestrator(t)
	defer cleanup()

	requests := []TradeRequest{
		{PlayerID: "this-player-id-is-long-enough-32c", ItemID: "ore", BasePrice: 100, Amount: 5},
		{PlayerID: "", ItemID: "ore", BasePrice: 100, Amount: 5}, // invalid: empty playerId
		{PlayerID: "this-player-id-is-long-enough-32c", ItemID: "wood", BasePrice: 50, Amount: 2},
	}
	results := o.ProcessBatch(context.Background(), requests, false)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !results[0].Success {
		t.Fatalf("results[0] should succeed, got %q", results[0].Message)
	}
	if results[1].Success {
		t.Fatal("results[1] should fail validation")
	}
	if !results[2].Success {
		t.Fatalf("results[2] should succeed, got %q", results[2].Message)
	}
}
