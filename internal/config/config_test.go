package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsForLocalDevelopment(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "dev")
	t.Setenv("GOOGLE_SAFE_BROWSING_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Feeds.TTL != 15*time.Minute {
		t.Fatalf("expected default feed ttl 15m, got %s", cfg.Feeds.TTL)
	}
	if cfg.Feeds.Timeout != 10*time.Second {
		t.Fatalf("expected default feed timeout 10s, got %s", cfg.Feeds.Timeout)
	}
	if cfg.Upstreams.GoPlusBase != DefaultGoPlusBase {
		t.Fatalf("unexpected goplus base %q", cfg.Upstreams.GoPlusBase)
	}
	if cfg.Upstreams.SolanaTxMethod != "getConfirmedTransaction" {
		t.Fatalf("unexpected solana method %q", cfg.Upstreams.SolanaTxMethod)
	}
	if len(cfg.Causes.Sources) != 0 {
		t.Fatalf("expected no cause sources, got %v", cfg.Causes.Sources)
	}
}

func TestLoadRequiresSafeBrowsingKeyOutsideLocal(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "production")
	t.Setenv("GOOGLE_SAFE_BROWSING_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing safe browsing key in production")
	}

	t.Setenv("GOOGLE_SAFE_BROWSING_KEY", "key")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production load with key to succeed, got %v", err)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "dev")
	t.Setenv("TRUSTGUARD_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestLoadSplitsCauseSources(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "dev")
	t.Setenv("VERIFIED_CAUSE_SOURCES", " https://a.example/causes.json, ,https://b.example/causes.json ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := []string{"https://a.example/causes.json", "https://b.example/causes.json"}
	if len(cfg.Causes.Sources) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Causes.Sources)
	}
	for i := range want {
		if cfg.Causes.Sources[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.Causes.Sources)
		}
	}
}

func TestLoadClampsDurations(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "dev")
	t.Setenv("TRUSTGUARD_FEED_TTL", "1s")
	t.Setenv("TRUSTGUARD_FEED_TIMEOUT", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Feeds.TTL != time.Minute {
		t.Fatalf("expected ttl clamped to 1m, got %s", cfg.Feeds.TTL)
	}
	if cfg.Feeds.Timeout != 2*time.Minute {
		t.Fatalf("expected timeout clamped to 2m, got %s", cfg.Feeds.Timeout)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "dev")
	t.Setenv("TRUSTGUARD_FEED_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed ttl")
	}
}

func TestLoadParsesOTLPHeadersAndMetricsConsole(t *testing.T) {
	t.Setenv("TRUSTGUARD_ENV", "dev")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer common,x-org=abc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_HEADERS", "x-trace=trace-only")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_HEADERS", "x-metric=metric-only")
	t.Setenv("TRUSTGUARD_OTEL_METRICS_CONSOLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Observability.Enabled {
		t.Fatal("expected observability enabled when console metrics is true")
	}
	if cfg.Observability.OTLPTraceHeaders["authorization"] != "Bearer common" {
		t.Fatalf("expected common header in trace headers, got %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if cfg.Observability.OTLPTraceHeaders["x-trace"] != "trace-only" {
		t.Fatalf("expected trace-specific header, got %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if _, ok := cfg.Observability.OTLPMetricHeaders["x-trace"]; ok {
		t.Fatalf("trace header leaked into metric headers: %#v", cfg.Observability.OTLPMetricHeaders)
	}
	if cfg.Observability.OTLPMetricHeaders["x-metric"] != "metric-only" {
		t.Fatalf("expected metric-specific header, got %#v", cfg.Observability.OTLPMetricHeaders)
	}
}
