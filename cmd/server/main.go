package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/trustguard/internal/adapters/causesource"
	"github.com/fr0stylo/trustguard/internal/adapters/covalent"
	"github.com/fr0stylo/trustguard/internal/adapters/goplus"
	"github.com/fr0stylo/trustguard/internal/adapters/safebrowsing"
	"github.com/fr0stylo/trustguard/internal/adapters/solanarpc"
	"github.com/fr0stylo/trustguard/internal/adapters/sqlite"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	appservices "github.com/fr0stylo/trustguard/internal/app/services"
	"github.com/fr0stylo/trustguard/internal/config"
	"github.com/fr0stylo/trustguard/internal/events"
	"github.com/fr0stylo/trustguard/internal/feeds"
	"github.com/fr0stylo/trustguard/internal/observability"
	"github.com/fr0stylo/trustguard/internal/server"
	"github.com/fr0stylo/trustguard/internal/server/routes"
	"github.com/fr0stylo/trustguard/internal/upstream"
)

const (
	causeSourceTimeout = 5 * time.Second
	goplusBurst        = 2
)

func Run() error {
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(observability.WrapSlogHandler(baseHandler))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Upstreams.SafeBrowsingKey == "" {
		slog.Warn("GOOGLE_SAFE_BROWSING_KEY not set, safe browsing lookups will fail")
	}

	shutdownTelemetry, err := observability.SetupOpenTelemetry(context.Background(), log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	tracker := upstream.NewLatencyTracker()
	timeout := cfg.Upstreams.Timeout

	safeBrowsing := safebrowsing.New(cfg.Upstreams.SafeBrowsingURL, cfg.Upstreams.SafeBrowsingKey, cfg.Observability.ServiceVer,
		upstream.New(safebrowsing.Source, timeout, upstream.WithTracker(tracker)))
	riskScanner := goplus.New(cfg.Upstreams.GoPlusBase,
		upstream.New(goplus.Source, timeout, upstream.WithTracker(tracker), upstream.WithRateLimit(cfg.Upstreams.GoPlusRPS, goplusBurst)),
		safeBrowsing)
	indexer := covalent.New(cfg.Upstreams.CovalentBase, cfg.Upstreams.CovalentKey,
		upstream.New(covalent.Source, timeout, upstream.WithTracker(tracker)))
	solana := solanarpc.New(cfg.Upstreams.SolanaRPCURL, cfg.Upstreams.SolanaTxMethod,
		upstream.New(solanarpc.Source, timeout, upstream.WithTracker(tracker)))

	feedOpts := []feeds.Option{
		feeds.WithTTL(cfg.Feeds.TTL),
		feeds.WithLogger(log),
		feeds.WithMetrics(metrics),
	}
	if cfg.Feeds.DBPath != "" {
		store, err := sqlite.OpenFeedStore(cfg.Feeds.DBPath, tracker)
		if err != nil {
			return fmt.Errorf("failed to open feed store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Error("Failed to close feed store", "error", err)
			}
		}()
		feedOpts = append(feedOpts, feeds.WithStore(store))
	}
	feedCache := feeds.NewCache(
		upstream.New(feeds.Gateway, cfg.Feeds.Timeout, upstream.WithTracker(tracker)),
		feeds.DefaultSources(cfg.Feeds.OpenPhishURL, cfg.Feeds.URLhausURL, cfg.Feeds.PhishTankURL),
		feedOpts...,
	)
	if err := feedCache.Warm(context.Background()); err != nil {
		slog.Warn("Failed to restore feed snapshots", "error", err)
	}

	var notifier ports.Notifier = ports.NopNotifier{}
	if cfg.Events.Endpoint != "" {
		notifier = &events.Publisher{
			Endpoint: cfg.Events.Endpoint,
			Secret:   cfg.Events.Secret,
			Source:   cfg.Observability.ServiceName,
			Log:      log,
		}
	}

	causeClient := upstream.New(causesource.Gateway, causeSourceTimeout, upstream.WithTracker(tracker))
	causeSources := make([]ports.CauseSource, 0, len(cfg.Causes.Sources))
	for _, source := range causesource.FromList(cfg.Causes.Sources, causeClient, log) {
		causeSources = append(causeSources, source)
	}
	if len(causeSources) == 0 {
		slog.Warn("VERIFIED_CAUSE_SOURCES not set, no donation recipient can be verified")
	}

	phishing := appservices.NewPhishingResolver(riskScanner, safeBrowsing, feedCache,
		appservices.WithNotifier(notifier),
		appservices.WithPhishingMetrics(metrics),
		appservices.WithPhishingLogger(log),
	)
	dispatcher := appservices.NewRiskDispatcher(riskScanner, phishing)
	registry := appservices.NewCauseRegistry(causeSources, metrics, log)
	verifier := appservices.NewDonationVerifier(registry, indexer, solana, notifier)

	if cfg.Upstreams.LogTiming {
		go logUpstreamLatencyStats(log, tracker)
	}

	srv := server.New(log, cfg.Observability.ServiceName)
	srv.RegisterRouter(routes.NewRiskRoutes(dispatcher))
	srv.RegisterRouter(routes.NewDonationRoutes(verifier, registry))
	srv.RegisterRouter(routes.NewManifestRoutes())
	srv.RegisterRouter(routes.NewHealthRoutes(feedCache))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("Starting server", "port", cfg.Server.Port)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func logUpstreamLatencyStats(log *slog.Logger, tracker *upstream.LatencyTracker) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := tracker.Snapshot()
		if len(stats) == 0 {
			continue
		}
		limit := min(len(stats), 5)
		for index := 0; index < limit; index++ {
			entry := stats[index]
			log.Info("upstream_latency",
				"call", entry.Name,
				"count", entry.Count,
				"p50_ms", entry.P50.Milliseconds(),
				"p95_ms", entry.P95.Milliseconds(),
				"max_ms", entry.Max.Milliseconds(),
			)
		}
	}
}
