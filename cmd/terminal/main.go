package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/whaleterm/config"
	"github.com/alejandrodnm/whaleterm/internal/adapters/hashdive"
	"github.com/alejandrodnm/whaleterm/internal/adapters/polymarket"
	"github.com/alejandrodnm/whaleterm/internal/adapters/push"
	"github.com/alejandrodnm/whaleterm/internal/adapters/render"
	"github.com/alejandrodnm/whaleterm/internal/adapters/storage"
	"github.com/alejandrodnm/whaleterm/internal/domain"
	"github.com/alejandrodnm/whaleterm/internal/feed"
	"github.com/alejandrodnm/whaleterm/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "load one history page, print, and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full table (default: compact 1-line)")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address (empty = disabled)")
	minConfidence := flag.Float64("min-confidence", 0, "filter: minimum signal confidence")
	excludeSports := flag.Bool("exclude-sports", false, "filter: hide sports markets")
	largeOnly := flag.Bool("large-only", false, "filter: only large-size events")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("whaleterm starting",
		"config", *configPath,
		"horizon", cfg.Horizon(),
		"page_limit", cfg.Feed.PageLimit,
		"once", *once,
	)

	stats := setupMetrics(*metricsAddr)

	hd := hashdive.NewClient(cfg.API.HashdiveBase, cfg.API.HashdiveKey)
	clob := polymarket.NewClient(cfg.API.CLOBBase)

	ctrl := feed.NewController(feed.ControllerConfig{
		Horizon:   cfg.Horizon(),
		BookDepth: cfg.Feed.BookDepth,
		Backfill: feed.BackfillConfig{
			PageLimit:    cfg.Feed.PageLimit,
			MinVisible:   cfg.Feed.MinVisible,
			MaxAutoPages: cfg.Feed.MaxAutoPages,
		},
		Analytics: feed.CacheConfig{Name: "analytics", TTL: cfg.AnalyticsTTL(), Grace: cfg.AnalyticsGrace()},
		Books:     feed.CacheConfig{Name: "books", TTL: cfg.BookTTL(), Grace: cfg.BookGrace()},
		Retry:     feed.RetryConfig{MaxRetries: cfg.Caches.RetryAttempts, Delay: cfg.RetryDelay()},
		Prefetch:  feed.PrefetchConfig{Workers: cfg.Prefetch.Workers, BatchCap: cfg.Prefetch.BatchCap},
	}, feed.Deps{
		History:   hd,
		Analytics: hd,
		Books:     clob,
		Executor:  clob,
		Stats:     stats,
	})
	defer ctrl.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var journal *storage.Journal
	if cfg.Storage.DSN != "off" {
		journal, err = storage.NewJournal(cfg.Storage.DSN, cfg.Horizon())
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer journal.Close()
		warmStart(ctx, journal, ctrl)
	}

	ctrl.SetFilter(ctx, domain.FilterState{
		MinConfidence: *minConfidence,
		ExcludeSports: *excludeSports,
		LargeOnly:     *largeOnly,
	})

	console := render.NewConsole(*table)

	// Primera página de historia antes de pintar nada.
	ctrl.RequestBackfillIfNeeded(ctx)

	if *once {
		console.Print(ctrl.VisibleRecords(), ctrl.BackfillExhausted(), ctrl.BackfillStalled())
		return
	}

	// La fuente en vivo corre aparte; si el transporte cae, el terminal sigue
	// con la historia cargada (la reconexión no es responsabilidad del feed).
	source := push.NewSource(cfg.API.PushURL)
	go func() {
		if err := source.Run(ctx, func(batch []domain.SignalEvent) {
			ctrl.IngestLive(ctx, batch)
		}); err != nil && ctx.Err() == nil {
			slog.Warn("live push source terminated", "err", err)
		}
	}()

	runLoop(ctx, ctrl, console)

	if journal != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := journal.SaveEvents(saveCtx, ctrl.Window().Records()); err != nil {
			slog.Warn("journal save failed", "err", err)
		}
	}

	slog.Info("whaleterm stopped cleanly")
}

// runLoop repinta el feed visible en cada tick hasta que el contexto se cancele.
func runLoop(ctx context.Context, ctrl *feed.Controller, console *render.Console) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			console.Print(ctrl.VisibleRecords(), ctrl.BackfillExhausted(), ctrl.BackfillStalled())
		}
	}
}

// warmStart precarga la ventana con los eventos del journal de la sesión anterior.
func warmStart(ctx context.Context, journal *storage.Journal, ctrl *feed.Controller) {
	events, err := journal.LoadRecent(ctx, ctrl.Window().Horizon())
	if err != nil {
		slog.Warn("journal warm start failed", "err", err)
		return
	}
	if len(events) == 0 {
		return
	}
	added, _ := ctrl.Window().Merge(events)
	slog.Info("window warm started from journal", "loaded", len(events), "merged", added)
}

// setupMetrics registra los contadores y sirve /metrics si hay address.
func setupMetrics(addr string) *metrics.Metrics {
	if addr == "" {
		return nil
	}
	registry := prometheus.NewRegistry()
	stats := metrics.New(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Warn("metrics server stopped", "err", err)
		}
	}()
	slog.Info("metrics enabled", "addr", addr)
	return stats
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
