package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stadam/econ-pricer/internal/logger"
	"github.com/stadam/econ-pricer/internal/state"
)

const (
	// ChannelCapacity is the bounded channel size buffering in-flight records.
	ChannelCapacity = 2000
	// BatchSize is the maximum batch buffer size before a forced flush.
	BatchSize = 50
	// BatchInterval is the fallback flush timer.
	BatchInterval = 500 * time.Millisecond
	// SendTimeout bounds the single-trade best-effort send.
	SendTimeout = 100 * time.Millisecond
	// EmergencyRingCap bounds the in-memory fallback for dropped records.
	EmergencyRingCap = 1000
)

// EmergencyEntry is one record that failed to enter the persistence channel,
// tagged with a correlation ID so an operator can trace it in logs.
type EmergencyEntry struct {
	ID     string
	Record state.TransactionRecord
}

// Pipeline is the single-producer-many-callers / single-consumer channel
// plus its background appender goroutine.
type Pipeline struct {
	ch  chan state.TransactionRecord
	log *HistoryLog
	st  *state.Store

	emergencyMu sync.Mutex
	emergency   []EmergencyEntry

	done chan struct{}
}

// NewPipeline wires a Pipeline to its backing HistoryLog and the Store it
// updates on every record (in-memory ring + per-player-item sequence).
func NewPipeline(log *HistoryLog, st *state.Store) *Pipeline {
	return &Pipeline{
		ch:   make(chan state.TransactionRecord, ChannelCapacity),
		log:  log,
		st:   st,
		done: make(chan struct{}),
	}
}

// Send is the best-effort single-trade submission path: a timed send that
// diverts to the emergency ring on timeout.
func (p *Pipeline) Send(rec state.TransactionRecord) {
	timer := time.NewTimer(SendTimeout)
	defer timer.Stop()
	select {
	case p.ch <- rec:
	case <-timer.C:
		p.drop(rec)
	}
}

// TrySend is the non-blocking batch-path submission, used when callers
// cannot afford to block on backpressure.
func (p *Pipeline) TrySend(rec state.TransactionRecord) {
	select {
	case p.ch <- rec:
	default:
		p.drop(rec)
	}
}

func (p *Pipeline) drop(rec state.TransactionRecord) {
	p.st.IncChannelDropped()
	entry := EmergencyEntry{ID: uuid.New().String(), Record: rec}
	p.emergencyMu.Lock()
	p.emergency = append(p.emergency, entry)
	if len(p.emergency) > EmergencyRingCap {
		p.emergency = p.emergency[len(p.emergency)-EmergencyRingCap:]
	}
	p.emergencyMu.Unlock()
	logger.Warn("Persistence", "record dropped on backpressure; diverted to emergency ring: "+entry.ID)
}

// EmergencySnapshot returns a copy of the emergency ring for diagnostics.
func (p *Pipeline) EmergencySnapshot() []EmergencyEntry {
	p.emergencyMu.Lock()
	defer p.emergencyMu.Unlock()
	out := make([]EmergencyEntry, len(p.emergency))
	copy(out, p.emergency)
	return out
}

// Close closes the producer side; the appender drains its remaining batch
// and exits.
func (p *Pipeline) Close() {
	close(p.ch)
}

// Run is the dedicated background appender task. It owns the HistoryLog and
// must be started exactly once; it returns when the channel is closed and
// fully drained. It also returns, after flushing its current batch, when ctx
// is done; records still queued in the channel are then not written.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(BatchInterval)
	defer ticker.Stop()

	batch := make([]state.TransactionRecord, 0, BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, rec := range batch {
			if err := p.log.AppendRecord(rec); err != nil {
				p.st.IncWriteFailures()
				logger.Error("Persistence", "append failed: "+err.Error())
			}
		}
		if err := p.log.Sync(); err != nil {
			logger.Error("Persistence", "sync failed: "+err.Error())
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-p.ch:
			if !ok {
				flush()
				return
			}
			p.applyToStore(rec)
			batch = append(batch, rec)
			if len(batch) >= BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}

// Wait blocks until Run has returned, or ctx is done first.
func (p *Pipeline) Wait(ctx context.Context) bool {
	select {
	case <-p.done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) applyToStore(rec state.TransactionRecord) {
	p.st.PushHistory(rec)
	amount := rec.Amount
	if rec.Action == "BUY" {
		amount = -amount
	}
	p.st.RecordSale(rec.PlayerID, rec.PlayerName, rec.ItemID, state.SalesRecord{
		Timestamp: rec.Timestamp,
		Amount:    amount,
		EnvIndex:  rec.EnvIndex,
		Price:     rec.AvgPrice,
	})
	p.st.IncTotalTrades()
}
