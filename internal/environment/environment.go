// Package environment computes the time-dependent environment index ε(t)
// that modulates every priced trade, and memoizes it per unix second so a
// burst of concurrent requests within the same second all observe the same
// value.
package environment

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/sync/singleflight"

	"github.com/stadam/econ-pricer/internal/config"
	"github.com/stadam/econ-pricer/internal/state"
)

// FloorIndex is the hard floor placed on the environment index.
const FloorIndex = 0.05

// Cache double-checks and memoizes the environment index for the current
// unix second. A singleflight.Group collapses concurrent recomputes for the
// same second into one calculation, keyed by that second.
type Cache struct {
	mu    sync.RWMutex
	cache state.EnvCache
	group singleflight.Group

	// noise is overridable in tests for deterministic output.
	noise func(std float64) float64
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{noise: gaussianNoise}
}

// Seed primes the cache from a previously persisted snapshot (env_data.bin).
func (c *Cache) Seed(snap state.EnvCache) {
	c.mu.Lock()
	c.cache = snap
	c.mu.Unlock()
}

// Load returns the current cache contents for snapshotting.
func (c *Cache) Load() state.EnvCache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

func gaussianNoise(std float64) float64 {
	return rand.NormFloat64() * std
}

// Index resolves ε(t). If manualEnvIndex is finite and positive it bypasses
// the cache entirely and is tagged "Manual".
func (c *Cache) Index(cfg *config.Config, holidays map[string]bool, manualEnvIndex float64, hasManual bool, now time.Time) (float64, string) {
	if hasManual && isFinite(manualEnvIndex) && manualEnvIndex > 0 {
		return manualEnvIndex, "Manual"
	}

	nowSec := now.Unix()

	c.mu.RLock()
	if c.cache.Timestamp == nowSec {
		idx, note := c.cache.Index, c.cache.Note
		c.mu.RUnlock()
		return idx, note
	}
	c.mu.RUnlock()

	type result struct {
		idx  float64
		note string
	}
	v, _, _ := c.group.Do(keyForSecond(nowSec), func() (interface{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.cache.Timestamp == nowSec {
			return result{c.cache.Index, c.cache.Note}, nil
		}
		idx, note := c.compute(cfg, holidays, now)
		c.cache = state.EnvCache{Index: idx, Note: note, Timestamp: nowSec}
		return result{idx, note}, nil
	})
	r := v.(result)
	return r.idx, r.note
}

func keyForSecond(sec int64) string {
	return strftime.Format("%Y%m%d%H%M%S", time.Unix(sec, 0).UTC())
}

// compute implements the rule order: holiday -> season -> weekend -> noise
// -> floor.
func (c *Cache) compute(cfg *config.Config, holidays map[string]bool, now time.Time) (float64, string) {
	epsilon := cfg.BaseEnvIndex
	var tags []string

	todayYMD := strftime.Format("%Y-%m-%d", now)
	todayMD := strftime.Format("%m-%d", now)

	compensatedWorkday := false
	if isOff, ok := holidays[todayYMD]; ok {
		if isOff {
			epsilon -= cfg.PublicHolidayFactor
			tags = append(tags, "Holiday")
		} else {
			compensatedWorkday = true
		}
	}

	if inDateRange(todayMD, cfg.WinterStart, cfg.WinterEnd) {
		epsilon -= cfg.HolidayFactor
		tags = append(tags, "Winter")
	} else if inDateRange(todayMD, cfg.SummerStart, cfg.SummerEnd) {
		epsilon -= cfg.HolidayFactor
		tags = append(tags, "Summer")
	}

	weekday := now.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday
	if isWeekend && !compensatedWorkday && !containsTag(tags, "Holiday") {
		epsilon -= cfg.WeekendFactor
		tags = append(tags, "Weekend")
	}

	std := cfg.NoiseStd
	if std < 1e-4 {
		std = 1e-4
	}
	epsilon += c.noise(std)

	if epsilon < FloorIndex {
		epsilon = FloorIndex
	}
	if !isFinite(epsilon) {
		epsilon = FloorIndex
	}

	note := "Normal"
	if len(tags) > 0 {
		note = strings.Join(tags, "+")
	}
	return epsilon, note
}

// inDateRange supports wrap-around ranges where start > end means "today is
// on or after start, or on or before end".
func inDateRange(today, start, end string) bool {
	if start == "" || end == "" {
		return false
	}
	if start <= end {
		return today >= start && today <= end
	}
	return today >= start || today <= end
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
