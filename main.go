package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stadam/econ-pricer/internal/api"
	"github.com/stadam/econ-pricer/internal/config"
	"github.com/stadam/econ-pricer/internal/environment"
	"github.com/stadam/econ-pricer/internal/lifecycle"
	"github.com/stadam/econ-pricer/internal/logger"
	"github.com/stadam/econ-pricer/internal/metrics"
	"github.com/stadam/econ-pricer/internal/persistence"
	"github.com/stadam/econ-pricer/internal/state"
	"github.com/stadam/econ-pricer/internal/trade"
)

var version = "dev"

// envOrDefault returns the OS env var if set, otherwise fallback.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// godotenv is best-effort: a missing .env is not an error, and existing
	// OS env vars are never overridden.
	_ = godotenv.Load()

	port := flag.Int("port", 0, "HTTP server port (0 = use PRICING_PORT if set, else config.bin's port)")
	dataDir := flag.String("data-dir", envOrDefault("PRICING_DATA_DIR", "data"), "directory for config/catalog/history snapshots")
	flag.Parse()

	logger.Banner(version)

	if !filepath.IsAbs(*dataDir) {
		if wd, err := os.Getwd(); err == nil {
			*dataDir = filepath.Join(wd, *dataDir)
		}
	}
	if err := persistence.EnsureDir(*dataDir); err != nil {
		logger.Error("Startup", fmt.Sprintf("failed to create data dir: %v", err))
		os.Exit(1)
	}
	paths := lifecycle.NewPaths(*dataDir)

	historyLog, err := persistence.OpenHistoryLog(paths.HistoryLogPath)
	if err != nil {
		logger.Error("Startup", fmt.Sprintf("failed to open history log: %v", err))
		os.Exit(1)
	}
	defer historyLog.Close()

	store := state.New(config.Default())
	envCache := environment.NewCache()
	pipeline := persistence.NewPipeline(historyLog, store)

	holidayURL := envOrDefault("PRICING_HOLIDAY_URL", "")
	holidays := environment.NewHTTPHolidayFetcher(holidayURL)

	scheduler := lifecycle.NewScheduler(store, envCache, holidays, pipeline, paths)
	logger.Loading("Startup", "loading config, catalog, and history from disk")
	scheduler.LoadAll()
	logger.Done("state restored")

	if holidays.URL == "" {
		holidays.URL = store.Config().HolidayAPIURL
	}

	if identityURL := envOrDefault("PRICING_IDENTITY_URL", ""); identityURL != "" {
		cfg := store.Config()
		cfg.IdentityVerifyURL = identityURL
		store.SetConfig(cfg)
	}

	var onlineVerifier trade.IdentityVerifier
	if cfg := store.Config(); cfg.IdentityVerifyURL != "" {
		onlineVerifier = trade.NewHTTPIdentityVerifier(cfg.IdentityVerifyURL)
	}
	orch := trade.NewOrchestrator(store, envCache, onlineVerifier, pipeline)

	collector := metrics.NewCollector(store, pipeline)
	promMetric := metrics.Handler(store, pipeline)
	apiServer := api.NewServer(store, envCache, orch, scheduler, collector, promMetric)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The appender's lifetime ends when scheduler.Shutdown closes the channel,
	// not on the signal, so records from in-flight requests are still written.
	go pipeline.Run(context.Background())
	go scheduler.RunSnapshotQueue(ctx)
	go scheduler.RunHolidayRefresh(ctx)

	logger.Loading("Startup", "fetching holiday calendar")
	fetchCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	scheduler.FetchHolidaysOnce(fetchCtx)
	cancel()

	cfg := store.Config()
	listenPort := cfg.Port
	if *port != 0 {
		listenPort = uint16(*port)
	} else if v := envOrDefault("PRICING_PORT", ""); v != "" {
		if parsed, err := parsePort(v); err == nil {
			listenPort = parsed
		}
	}
	addr := fmt.Sprintf(":%d", listenPort)

	httpServer := &http.Server{Addr: addr, Handler: apiServer.Handler()}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("Server", "shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server", fmt.Sprintf("shutdown error: %v", err))
		}
		scheduler.Shutdown()
	}()

	logger.Server(addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server", fmt.Sprintf("failed: %v", err))
		os.Exit(1)
	}
	<-shutdownDone
	logger.Info("Server", "stopped")
}

func parsePort(s string) (uint16, error) {
	var v uint16
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}
