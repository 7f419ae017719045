package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stadam/econ-pricer/internal/config"
	"github.com/stadam/econ-pricer/internal/state"
)

func newTestPipeline(t *testing.T) (*Pipeline, *state.Store) {
	t.Helper()
	log, err := OpenHistoryLog(filepath.Join(t.TempDir(), "history.bin"))
	if err != nil {
		t.Fatalf("OpenHistoryLog: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	st := state.New(config.Default())
	return NewPipeline(log, st), st
}

func fillChannel(p *Pipeline) {
	for i := 0; i < ChannelCapacity; i++ {
		p.ch <- state.TransactionRecord{ItemID: "filler"}
	}
}

// TestTrySend_DivertsToEmergencyRingWhenFull exercises the batch path's
// non-blocking backpressure behavior: once the channel is
// saturated, every further TrySend must divert to the emergency ring and
// bump the dropped-record counter, without ever blocking the caller.
func TestTrySend_DivertsToEmergencyRingWhenFull(t *testing.T) {
	p, st := newTestPipeline(t)
	fillChannel(p)

	const overflow = 5
	for i := 0; i < overflow; i++ {
		p.TrySend(state.TransactionRecord{ItemID: "overflow", Amount: float64(i)})
	}

	snap := st.MetricsSnapshot()
	if snap.ChannelDropped != overflow {
		t.Fatalf("channelDropped = %d, want %d", snap.ChannelDropped, overflow)
	}
	emergency := p.EmergencySnapshot()
	if len(emergency) != overflow {
		t.Fatalf("emergency ring size = %d, want %d", len(emergency), overflow)
	}
	for _, e := range emergency {
		if e.Record.ItemID != "overflow" {
			t.Fatalf("unexpected record diverted: %+v", e.Record)
		}
		if e.ID == "" {
			t.Fatal("emergency entry missing correlation id")
		}
	}
}

// TestSend_TimesOutAndDivertsWhenChannelStaysFull exercises the single-trade
// path's 100ms timed send: with nothing draining the channel, Send must give
// up after SendTimeout and fall back to the emergency ring rather than block
// forever.
func TestSend_TimesOutAndDivertsWhenChannelStaysFull(t *testing.T) {
	p, st := newTestPipeline(t)
	fillChannel(p)

	start := time.Now()
	p.Send(state.TransactionRecord{ItemID: "stuck"})
	elapsed := time.Since(start)

	if elapsed < SendTimeout {
		t.Fatalf("Send returned after %v, want at least %v", elapsed, SendTimeout)
	}
	if elapsed > SendTimeout+500*time.Millisecond {
		t.Fatalf("Send took too long: %v", elapsed)
	}

	snap := st.MetricsSnapshot()
	if snap.ChannelDropped != 1 {
		t.Fatalf("channelDropped = %d, want 1", snap.ChannelDropped)
	}
	emergency := p.EmergencySnapshot()
	if len(emergency) != 1 || emergency[0].Record.ItemID != "stuck" {
		t.Fatalf("unexpected emergency ring contents: %+v", emergency)
	}
}

// TestPipeline_RunPersistsAndUpdatesStore is the end-to-end happy path: a
// record sent through Send reaches the store's in-memory ring and bumps the
// total-trades counter once the appender goroutine drains it.
func TestPipeline_RunPersistsAndUpdatesStore(t *testing.T) {
	p, st := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	rec := state.TransactionRecord{
		Timestamp: 1000, Action: "SELL", Amount: 5, TotalPrice: 50, AvgPrice: 10,
		PlayerID: "player-one", PlayerName: "Player One", ItemID: "widget",
	}
	p.Send(rec)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(st.History()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	hist := st.History()
	if len(hist) != 1 || hist[0].ItemID != "widget" {
		t.Fatalf("store history = %+v, want one widget record", hist)
	}
	snap := st.MetricsSnapshot()
	if snap.TotalTrades != 1 {
		t.Fatalf("totalTrades = %d, want 1", snap.TotalTrades)
	}

	p.Close()
	p.Wait(context.Background())
}
