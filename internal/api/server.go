// Package api defines the HTTP contract surface: a Go 1.22+ pattern-routed
// http.ServeMux, wire schemas, and the thin handlers that translate
// requests into internal/trade and internal/state calls. CORS, TLS, and
// static-asset hosting stay out of scope.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/stadam/econ-pricer/internal/environment"
	"github.com/stadam/econ-pricer/internal/lifecycle"
	"github.com/stadam/econ-pricer/internal/metrics"
	"github.com/stadam/econ-pricer/internal/state"
	"github.com/stadam/econ-pricer/internal/trade"
)

// Server holds every collaborator a handler needs. It owns no mutable
// state itself — everything lives in store, env, or the scheduler.
type Server struct {
	store      *state.Store
	env        *environment.Cache
	orch       *trade.Orchestrator
	scheduler  *lifecycle.Scheduler
	collector  *metrics.Collector
	promMetric http.Handler
}

// NewServer builds a Server from its collaborators. promMetric serves the
// Prometheus exposition format at GET /metrics (built by metrics.Handler).
func NewServer(store *state.Store, env *environment.Cache, orch *trade.Orchestrator, scheduler *lifecycle.Scheduler, collector *metrics.Collector, promMetric http.Handler) *Server {
	return &Server{store: store, env: env, orch: orch, scheduler: scheduler, collector: collector, promMetric: promMetric}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /calculate_sell", s.handleCalculate(false))
	mux.HandleFunc("POST /calculate_buy", s.handleCalculate(true))
	mux.HandleFunc("POST /batch_sell", s.handleBatch(false))
	mux.HandleFunc("POST /batch_buy", s.handleBatch(true))

	mux.HandleFunc("POST /api/market/sync", s.handleMarketSync)
	mux.HandleFunc("GET /api/market", s.handleMarketGet)
	mux.HandleFunc("POST /api/market/prices", s.handleMarketPrices)

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /metrics", s.handlePrometheus)

	mux.HandleFunc("GET /api/player/{id}", s.handleGetPlayer)
	mux.HandleFunc("POST /api/player/sync", s.handlePlayerSync)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	s.promMetric.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
