// Package lifecycle owns process-level orchestration that does not belong
// to any one component: the startup load sequence, the daily holiday
// refresh, the snapshot-request queue admin writes feed into, and the
// graceful shutdown drain.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stadam/econ-pricer/internal/config"
	"github.com/stadam/econ-pricer/internal/environment"
	"github.com/stadam/econ-pricer/internal/logger"
	"github.com/stadam/econ-pricer/internal/persistence"
	"github.com/stadam/econ-pricer/internal/state"
)

// holidayRefreshInterval is the daily refresh period.
const holidayRefreshInterval = 24 * time.Hour

// shutdownDrainCap bounds how long Shutdown waits on the appender.
const shutdownDrainCap = 10 * time.Second

// snapshotQueueCapacity bounds the admin-write snapshot-request channel.
const snapshotQueueCapacity = 32

// SnapshotRequest is a lightweight signal that the on-disk snapshot for one
// collection should be refreshed; Kind names which collection, ID is a
// correlation tag for logs.
type SnapshotRequest struct {
	Kind string
	ID   string
}

// Scheduler is the lifecycle owner: it loads state at startup, refreshes
// holidays daily, services snapshot requests, and drains the persistence
// pipeline on shutdown.
type Scheduler struct {
	store    *state.Store
	env      *environment.Cache
	holidays environment.HolidayFetcher
	pipeline *persistence.Pipeline
	paths    Paths

	snapshotCh chan SnapshotRequest
}

// NewScheduler wires a Scheduler to the collaborators it coordinates.
func NewScheduler(store *state.Store, env *environment.Cache, holidays environment.HolidayFetcher, pipeline *persistence.Pipeline, paths Paths) *Scheduler {
	return &Scheduler{
		store:      store,
		env:        env,
		holidays:   holidays,
		pipeline:   pipeline,
		paths:      paths,
		snapshotCh: make(chan SnapshotRequest, snapshotQueueCapacity),
	}
}

// LoadAll runs the startup load sequence: config first (defaulted and
// written back if missing/corrupt), then player histories, catalog, env
// cache, and the history ring — all defaulted to empty on failure, never
// fatal.
func (s *Scheduler) LoadAll() {
	cfg := config.Default()
	if ok := persistence.Load(s.paths.ConfigPath, cfg); !ok {
		logger.Warn("Lifecycle", "config.bin missing or corrupt, writing defaults")
		cfg = config.Default()
		if err := persistence.SaveAtomic(s.paths.ConfigPath, cfg); err != nil {
			logger.Error("Lifecycle", "failed to write default config: "+err.Error())
		}
	}
	cfg.Sanitize()
	s.store.SetConfig(cfg)

	players := map[string]*state.PlayerSalesHistory{}
	if ok := persistence.Load(s.paths.PlayerDataPath, &players); !ok {
		logger.Warn("Lifecycle", "player_data.bin missing or corrupt, starting empty")
		players = map[string]*state.PlayerSalesHistory{}
	}
	s.store.SeedPlayerHistories(players)

	var catalog []state.MarketItem
	if ok := persistence.Load(s.paths.MarketDataPath, &catalog); !ok {
		logger.Warn("Lifecycle", "market_data.bin missing or corrupt, starting empty")
		catalog = nil
	}
	s.store.SeedCatalog(catalog)

	var envCache state.EnvCache
	if ok := persistence.Load(s.paths.EnvDataPath, &envCache); ok {
		s.env.Seed(envCache)
	}

	records, err := persistence.ReplayHistoryLog(s.paths.HistoryLogPath)
	if err != nil {
		logger.Warn("Lifecycle", "history.bin replay failed: "+err.Error())
	}
	s.store.SeedHistory(records)
}

// FetchHolidaysOnce performs the best-effort initial holiday fetch.
func (s *Scheduler) FetchHolidaysOnce(ctx context.Context) {
	table, err := s.holidays.FetchHolidays(ctx)
	if err != nil {
		logger.Warn("Lifecycle", "holiday fetch failed: "+err.Error())
		return
	}
	s.store.SetHolidays(table)
}

// RunHolidayRefresh loops the daily holiday refresh until ctx is done.
// Abandoning the task mid-fetch on shutdown is safe: the next tick simply
// repeats the same idempotent overwrite.
func (s *Scheduler) RunHolidayRefresh(ctx context.Context) {
	ticker := time.NewTicker(holidayRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.FetchHolidaysOnce(ctx)
		}
	}
}

// RequestSnapshot enqueues a snapshot refresh request for kind, tagged with
// a fresh correlation ID. Non-blocking: a full queue drops the request with
// a warning rather than stalling the admin write that triggered it.
func (s *Scheduler) RequestSnapshot(kind string) {
	req := SnapshotRequest{Kind: kind, ID: uuid.New().String()}
	select {
	case s.snapshotCh <- req:
	default:
		logger.Warn("Lifecycle", "snapshot request queue full, dropping request for "+kind)
	}
}

// RunSnapshotQueue services snapshot requests until ctx is done, persisting
// the whole bundle on each request — the one place that writes snapshots to
// disk.
func (s *Scheduler) RunSnapshotQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.snapshotCh:
			if err := s.SaveAll(); err != nil {
				logger.Error("Lifecycle", "snapshot ("+req.Kind+" "+req.ID+") failed: "+err.Error())
			}
		}
	}
}

// SaveAll atomically persists config, catalog, player histories, and the
// env cache, each to its own file. Every write retries
// internally (persistence.SaveAtomic); SaveAll returns the first failure
// but still attempts every file.
func (s *Scheduler) SaveAll() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	snap := s.store.Snapshot()
	record(persistence.SaveAtomic(s.paths.ConfigPath, snap.Config))
	record(persistence.SaveAtomic(s.paths.MarketDataPath, snap.MarketCatalog))
	record(persistence.SaveAtomic(s.paths.PlayerDataPath, snap.PlayerHistories))
	record(persistence.SaveAtomic(s.paths.EnvDataPath, s.env.Load()))

	return firstErr
}

// Shutdown runs the graceful drain: close the persistence channel's
// producer side, await the appender with a capped wait, then save
// everything one final time.
func (s *Scheduler) Shutdown() {
	logger.Section("Shutdown")
	s.pipeline.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownDrainCap)
	defer cancel()
	if !s.pipeline.Wait(ctx) {
		logger.Warn("Lifecycle", "persistence appender did not drain within the shutdown cap")
	}

	if err := s.SaveAll(); err != nil {
		logger.Error("Lifecycle", "final snapshot save failed: "+err.Error())
	}
	logger.Success("Lifecycle", "shutdown complete")
}
