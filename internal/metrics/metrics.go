// Package metrics exposes internal/state's atomic counters as Prometheus
// series. It deliberately keeps no counters of its own — no package-level
// prometheus vars incremented at each call site — since the Store is
// already the single source of truth for counts; this package only reads
// it at scrape time, avoiding two places that have to agree.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stadam/econ-pricer/internal/persistence"
	"github.com/stadam/econ-pricer/internal/state"
)

// Collector is a prometheus.Collector that mirrors state.Store's atomic
// counters plus the persistence pipeline's emergency-ring size.
type Collector struct {
	store    *state.Store
	pipeline *persistence.Pipeline

	totalTradesDesc    *prometheus.Desc
	writeFailuresDesc  *prometheus.Desc
	channelDroppedDesc *prometheus.Desc
	emergencyRingDesc  *prometheus.Desc
	uptimeSecondsDesc  *prometheus.Desc
}

// NewCollector builds a Collector reading live from store and pipeline.
func NewCollector(store *state.Store, pipeline *persistence.Pipeline) *Collector {
	return &Collector{
		store:              store,
		pipeline:           pipeline,
		totalTradesDesc:    prometheus.NewDesc("econpricer_total_trades", "Total trades processed and recorded.", nil, nil),
		writeFailuresDesc:  prometheus.NewDesc("econpricer_write_failures_total", "Appender write failures.", nil, nil),
		channelDroppedDesc: prometheus.NewDesc("econpricer_channel_dropped_total", "Records dropped on persistence-channel backpressure.", nil, nil),
		emergencyRingDesc:  prometheus.NewDesc("econpricer_emergency_ring_size", "Records currently held in the in-memory emergency ring.", nil, nil),
		uptimeSecondsDesc:  prometheus.NewDesc("econpricer_uptime_seconds", "Seconds since process start.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalTradesDesc
	ch <- c.writeFailuresDesc
	ch <- c.channelDroppedDesc
	ch <- c.emergencyRingDesc
	ch <- c.uptimeSecondsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.store.MetricsSnapshot()
	uptime := time.Since(time.UnixMilli(snap.StartTime)).Seconds()

	ch <- prometheus.MustNewConstMetric(c.totalTradesDesc, prometheus.CounterValue, float64(snap.TotalTrades))
	ch <- prometheus.MustNewConstMetric(c.writeFailuresDesc, prometheus.CounterValue, float64(snap.WriteFailures))
	ch <- prometheus.MustNewConstMetric(c.channelDroppedDesc, prometheus.CounterValue, float64(snap.ChannelDropped))
	ch <- prometheus.MustNewConstMetric(c.emergencyRingDesc, prometheus.GaugeValue, float64(len(c.pipeline.EmergencySnapshot())))
	ch <- prometheus.MustNewConstMetric(c.uptimeSecondsDesc, prometheus.GaugeValue, uptime)
}

// Handler builds a fresh registry holding only this collector, so /metrics
// never leaks Go runtime/process defaults the client_golang default
// registry would otherwise include.
func Handler(store *state.Store, pipeline *persistence.Pipeline) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(store, pipeline))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Snapshot is the JSON shape GET /api/metrics returns, independent of the
// Prometheus exposition format above.
type Snapshot struct {
	TotalTrades       uint64  `json:"totalTrades"`
	WriteFailures     uint64  `json:"writeFailures"`
	ChannelDropped    uint64  `json:"channelDropped"`
	EmergencyRingSize int     `json:"emergencyRingSize"`
	UptimeSeconds     float64 `json:"uptimeSeconds"`
}

// Snapshot computes the JSON metrics payload.
func (c *Collector) Snapshot() Snapshot {
	snap := c.store.MetricsSnapshot()
	return Snapshot{
		TotalTrades:       snap.TotalTrades,
		WriteFailures:     snap.WriteFailures,
		ChannelDropped:    snap.ChannelDropped,
		EmergencyRingSize: len(c.pipeline.EmergencySnapshot()),
		UptimeSeconds:     time.Since(time.UnixMilli(snap.StartTime)).Seconds(),
	}
}
