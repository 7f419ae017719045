package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/stadam/econ-pricer/internal/config"
)

// Store owns every mutable collection shared across request handlers.
//
// The rule this package exists to keep: readers take
// a lock, COPY OUT what they need, and release the lock before doing any I/O
// or awaiting anything. Writers hold a lock only across the in-memory
// mutation itself. No lock here is ever held across a channel send, an HTTP
// call, or a file write — that is the one invariant a reviewer of this
// package must never let slip.
type Store struct {
	configMu sync.RWMutex
	cfg      *config.Config

	holidaysMu sync.RWMutex
	holidays   map[string]bool

	catalogMu sync.RWMutex
	catalog   map[string]MarketItem // by item ID

	playersMu sync.RWMutex
	players   map[string]*PlayerSalesHistory

	envCacheMu sync.RWMutex
	envCache   EnvCache

	ringMu sync.Mutex
	ring   []TransactionRecord

	metrics Metrics
}

// Metrics are lock-free atomic counters: relaxed-ordering
// reads/writes only, never a mutex.
type Metrics struct {
	TotalTrades   atomic.Uint64
	WriteFailures atomic.Uint64
	ChannelDropped atomic.Uint64
	StartTime     int64 // unix ms, set once at construction
}

// New builds a Store from an initial config; callers populate the rest via
// the Seed* methods during lifecycle startup.
func New(cfg *config.Config) *Store {
	s := &Store{
		cfg:      cfg,
		holidays: make(map[string]bool),
		catalog:  make(map[string]MarketItem),
		players:  make(map[string]*PlayerSalesHistory),
	}
	s.metrics.StartTime = time.Now().UnixMilli()
	return s
}

// --- Config ---

// Config returns a copy of the current config, safe to read lock-free.
func (s *Store) Config() *config.Config {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.cfg.Clone()
}

// SetConfig hot-replaces the config on an admin write.
func (s *Store) SetConfig(cfg *config.Config) {
	cfg.Sanitize()
	s.configMu.Lock()
	s.cfg = cfg
	s.configMu.Unlock()
}

// --- Holidays ---

// Holidays returns a snapshot copy of the holiday table.
func (s *Store) Holidays() map[string]bool {
	s.holidaysMu.RLock()
	defer s.holidaysMu.RUnlock()
	out := make(map[string]bool, len(s.holidays))
	for k, v := range s.holidays {
		out[k] = v
	}
	return out
}

// SetHolidays replaces the holiday table wholesale on the daily refresh.
func (s *Store) SetHolidays(table map[string]bool) {
	s.holidaysMu.Lock()
	s.holidays = table
	s.holidaysMu.Unlock()
}

// --- Market catalog ---

// Catalog returns a snapshot copy of the market catalog.
func (s *Store) Catalog() []MarketItem {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	out := make([]MarketItem, 0, len(s.catalog))
	for _, item := range s.catalog {
		out = append(out, item)
	}
	return out
}

// CatalogItem returns a single catalog entry by ID.
func (s *Store) CatalogItem(id string) (MarketItem, bool) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	item, ok := s.catalog[id]
	return item, ok
}

// SyncCatalog replaces the catalog wholesale, preserving each surviving
// item's N and Iota by ID.
func (s *Store) SyncCatalog(items []MarketItem) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	next := make(map[string]MarketItem, len(items))
	for _, item := range items {
		if old, ok := s.catalog[item.ID]; ok {
			item.N = old.N
			item.Iota = old.Iota
		}
		next[item.ID] = item
	}
	s.catalog = next
}

// SeedCatalog replaces the catalog wholesale without preservation, used only
// to load a persisted snapshot at startup.
func (s *Store) SeedCatalog(items []MarketItem) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	next := make(map[string]MarketItem, len(items))
	for _, item := range items {
		next[item.ID] = item
	}
	s.catalog = next
}

// --- Player histories ---

// PlayerHistory returns a deep-enough copy of one player's history (or a
// fresh default), safe to compute against after the lock is released.
func (s *Store) PlayerHistory(playerID string) *PlayerSalesHistory {
	s.playersMu.RLock()
	defer s.playersMu.RUnlock()
	p, ok := s.players[playerID]
	if !ok {
		return &PlayerSalesHistory{PlayerID: playerID, ItemSales: map[string][]SalesRecord{}}
	}
	return clonePlayerHistory(p)
}

func clonePlayerHistory(p *PlayerSalesHistory) *PlayerSalesHistory {
	out := &PlayerSalesHistory{
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		ItemSales:  make(map[string][]SalesRecord, len(p.ItemSales)),
	}
	for item, seq := range p.ItemSales {
		out.ItemSales[item] = CloneSalesRecords(seq)
	}
	return out
}

// AllPlayerHistories returns a deep copy of the whole map, used for
// aggregate computations across the whole catalog and snapshots.
func (s *Store) AllPlayerHistories() map[string]*PlayerSalesHistory {
	s.playersMu.RLock()
	defer s.playersMu.RUnlock()
	out := make(map[string]*PlayerSalesHistory, len(s.players))
	for id, p := range s.players {
		out[id] = clonePlayerHistory(p)
	}
	return out
}

// RecordSale appends a sales record to a player's per-item sequence and
// refreshes the player's display name.
func (s *Store) RecordSale(playerID, playerName, itemID string, rec SalesRecord) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		p = &PlayerSalesHistory{PlayerID: playerID, ItemSales: map[string][]SalesRecord{}}
		s.players[playerID] = p
	}
	if playerName != "" {
		p.PlayerName = playerName
	}
	p.ItemSales[itemID] = AppendSalesRecord(p.ItemSales[itemID], rec)
}

// UpsertPlayerHistory overwrites one player's whole history on an admin
// sync.
func (s *Store) UpsertPlayerHistory(p *PlayerSalesHistory) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	s.players[p.PlayerID] = clonePlayerHistory(p)
}

// SeedPlayerHistories replaces the whole map, used only at startup load.
func (s *Store) SeedPlayerHistories(m map[string]*PlayerSalesHistory) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	if m == nil {
		m = map[string]*PlayerSalesHistory{}
	}
	s.players = m
}

// --- Env cache ---

// EnvCacheSnapshot returns the current cache contents for persistence.
func (s *Store) EnvCacheSnapshot() EnvCache {
	s.envCacheMu.RLock()
	defer s.envCacheMu.RUnlock()
	return s.envCache
}

// SeedEnvCache primes the cache from a persisted snapshot at startup.
func (s *Store) SeedEnvCache(c EnvCache) {
	s.envCacheMu.Lock()
	s.envCache = c
	s.envCacheMu.Unlock()
}

// --- History ring ---

// PushHistory appends a record to the rolling ring, dropping the oldest
// entry once the length exceeds MaxHistoryRing.
func (s *Store) PushHistory(rec TransactionRecord) {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()
	s.ring = append(s.ring, rec)
	if len(s.ring) > MaxHistoryRing {
		s.ring = s.ring[len(s.ring)-MaxHistoryRing:]
	}
}

// History returns a snapshot copy of the ring, most recent last.
func (s *Store) History() []TransactionRecord {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()
	out := make([]TransactionRecord, len(s.ring))
	copy(out, s.ring)
	return out
}

// SeedHistory replaces the ring wholesale, used only at startup load.
func (s *Store) SeedHistory(records []TransactionRecord) {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()
	if len(records) > MaxHistoryRing {
		records = records[len(records)-MaxHistoryRing:]
	}
	s.ring = records
}

// --- Metrics ---

// MetricsSnapshot returns a point-in-time copy of the atomic counters, read
// without taking any lock.
func (s *Store) MetricsSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalTrades:    s.metrics.TotalTrades.Load(),
		WriteFailures:  s.metrics.WriteFailures.Load(),
		ChannelDropped: s.metrics.ChannelDropped.Load(),
		StartTime:      s.metrics.StartTime,
	}
}

// MetricsSnapshot is a point-in-time, lock-free read of Metrics.
type MetricsSnapshot struct {
	TotalTrades    uint64
	WriteFailures  uint64
	ChannelDropped uint64
	StartTime      int64
}

func (s *Store) IncTotalTrades()    { s.metrics.TotalTrades.Add(1) }
func (s *Store) IncWriteFailures()  { s.metrics.WriteFailures.Add(1) }
func (s *Store) IncChannelDropped() { s.metrics.ChannelDropped.Add(1) }

// Snapshot bundles everything persisted atomically together.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Config:          s.Config(),
		MarketCatalog:   s.Catalog(),
		PlayerHistories: s.AllPlayerHistories(),
		EnvCache:        ptrEnvCache(s.EnvCacheSnapshot()),
	}
}

func ptrEnvCache(c EnvCache) *EnvCache {
	return &c
}
