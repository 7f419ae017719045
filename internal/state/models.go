// Package state holds every mutable collection the pricing service shares
// across request handlers: config, the market catalog, per-player sales
// histories, the environment-index cache, and the rolling transaction
// history ring. Every collection is guarded by its own lock; callers clone
// out what they need and release the lock before doing any I/O or blocking
// work — see Store's doc comment for the rule this package exists to keep.
package state

import "github.com/stadam/econ-pricer/internal/config"

// MaxSalesRecordsPerItem bounds the per-player-per-item sales sequence
// (spec invariant: length <= 100, drop-oldest).
const MaxSalesRecordsPerItem = 100

// MaxHistoryRing bounds the global transaction history ring (spec invariant:
// length <= 1000, drop-oldest).
const MaxHistoryRing = 1000

// MarketItem is a catalog entry owned by the Store. N and Iota are the only
// fields a market sync preserves across a wholesale catalog replacement.
type MarketItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"basePrice"`
	Lambda    float64 `json:"lambda"`
	N         float64 `json:"n"`
	Iota      float64 `json:"iota"`
}

// SalesRecord is one signed trade event against a single item, used to
// reconstruct a player's effective inventory. Amount is positive for a
// sell, negative for a buy (see DESIGN.md Open Question 1).
type SalesRecord struct {
	Timestamp int64   `json:"timestamp"`
	Amount    float64 `json:"amount"`
	EnvIndex  float64 `json:"envIndex"`
	Price     float64 `json:"price"`
}

// PlayerSalesHistory aggregates one player's SalesRecord sequences, keyed by
// item ID.
type PlayerSalesHistory struct {
	PlayerID   string                   `json:"playerId"`
	PlayerName string                   `json:"playerName"`
	ItemSales  map[string][]SalesRecord `json:"itemSales"`
}

// CloneSalesRecords returns an owned copy of a record slice, safe to read
// after the lock protecting the original is released.
func CloneSalesRecords(src []SalesRecord) []SalesRecord {
	if len(src) == 0 {
		return nil
	}
	out := make([]SalesRecord, len(src))
	copy(out, src)
	return out
}

// AppendSalesRecord pushes rec onto seq and truncates the head once the
// length exceeds MaxSalesRecordsPerItem (drop-oldest).
func AppendSalesRecord(seq []SalesRecord, rec SalesRecord) []SalesRecord {
	seq = append(seq, rec)
	if len(seq) > MaxSalesRecordsPerItem {
		seq = seq[len(seq)-MaxSalesRecordsPerItem:]
	}
	return seq
}

// EnvCache is the single-slot, process-wide memoized environment index.
// Valid iff Timestamp equals the current unix second.
type EnvCache struct {
	Index     float64 `json:"index"`
	Note      string  `json:"note"`
	Timestamp int64   `json:"timestamp"`
}

// TransactionRecord is the audit row appended to the history ring and to the
// on-disk append log.
type TransactionRecord struct {
	Timestamp  int64   `json:"timestamp"`
	Action     string  `json:"action"` // "BUY" or "SELL"
	Amount     float64 `json:"amount"`
	TotalPrice float64 `json:"totalPrice"`
	AvgPrice   float64 `json:"avgPrice"`
	EnvIndex   float64 `json:"envIndex"`
	PlayerID   string  `json:"playerId"`
	PlayerName string  `json:"playerName"`
	ItemID     string  `json:"itemId"`
	Note       string  `json:"note"`
}

// Snapshot is the bundle atomically persisted together at shutdown and on
// admin-triggered snapshot requests.
type Snapshot struct {
	Config          *config.Config
	MarketCatalog   []MarketItem
	PlayerHistories map[string]*PlayerSalesHistory
	EnvCache        *EnvCache
}
