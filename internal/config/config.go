package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Upstreams     UpstreamsConfig
	Feeds         FeedsConfig
	Causes        CausesConfig
	Events        EventsConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port int
}

type UpstreamsConfig struct {
	GoPlusBase      string
	GoPlusRPS       float64
	SafeBrowsingKey string
	SafeBrowsingURL string
	CovalentKey     string
	CovalentBase    string
	SolanaRPCURL    string
	SolanaTxMethod  string
	Timeout         time.Duration
	LogTiming       bool
}

type FeedsConfig struct {
	OpenPhishURL string
	URLhausURL   string
	PhishTankURL string
	TTL          time.Duration
	Timeout      time.Duration
	DBPath       string
}

type CausesConfig struct {
	Sources []string
}

type EventsConfig struct {
	Endpoint string
	Secret   string
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

const (
	DefaultGoPlusBase      = "https://api.gopluslabs.io"
	DefaultSafeBrowsingURL = "https://safebrowsing.googleapis.com/v4/threatMatches:find"
	DefaultCovalentBase    = "https://api.covalenthq.com"
	DefaultSolanaRPCURL    = "https://api.mainnet-beta.solana.com"
	DefaultSolanaTxMethod  = "getConfirmedTransaction"
	DefaultOpenPhishURL    = "https://openphish.com/feed.txt"
	DefaultURLhausURL      = "https://urlhaus.abuse.ch/downloads/text/"
	DefaultPhishTankURL    = "https://data.phishtank.com/data/online-valid.xml"
)

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("trustguard_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("trustguard_port", 8080)
	v.SetDefault("goplus_base", DefaultGoPlusBase)
	v.SetDefault("goplus_rps", 5.0)
	v.SetDefault("google_safe_browsing_key", "")
	v.SetDefault("google_safe_browsing_url", DefaultSafeBrowsingURL)
	v.SetDefault("covalent_key", "")
	v.SetDefault("covalent_base", DefaultCovalentBase)
	v.SetDefault("solana_rpc_url", DefaultSolanaRPCURL)
	v.SetDefault("solana_tx_method", DefaultSolanaTxMethod)
	v.SetDefault("trustguard_upstream_timeout", "10s")
	v.SetDefault("trustguard_upstream_timing", false)
	v.SetDefault("verified_cause_sources", "")
	v.SetDefault("openphish_feed_url", DefaultOpenPhishURL)
	v.SetDefault("urlhaus_feed_url", DefaultURLhausURL)
	v.SetDefault("phishtank_feed_url", DefaultPhishTankURL)
	v.SetDefault("trustguard_feed_ttl", "15m")
	v.SetDefault("trustguard_feed_timeout", "10s")
	v.SetDefault("trustguard_feed_db_path", "")
	v.SetDefault("trustguard_events_endpoint", "")
	v.SetDefault("trustguard_events_secret", "")
	v.SetDefault("trustguard_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "trustguard")
	v.SetDefault("trustguard_version", "dev")
	v.SetDefault("otel_service_version", "")
	v.SetDefault("trustguard_otel_sampling_ratio", 1.0)
	v.SetDefault("trustguard_otel_metrics_console", false)

	port := v.GetInt("trustguard_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid TRUSTGUARD_PORT: %d", port)
	}

	rps := v.GetFloat64("goplus_rps")
	if rps < 0 {
		rps = 0
	}

	upstreamTimeout, err := durationInRange(v, "trustguard_upstream_timeout", time.Second, time.Minute)
	if err != nil {
		return Config{}, err
	}
	feedTTL, err := durationInRange(v, "trustguard_feed_ttl", time.Minute, 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	feedTimeout, err := durationInRange(v, "trustguard_feed_timeout", time.Second, 2*time.Minute)
	if err != nil {
		return Config{}, err
	}

	samplingRatio := v.GetFloat64("trustguard_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = "trustguard"
	}

	serviceVersion := strings.TrimSpace(v.GetString("trustguard_version"))
	if serviceVersion == "" {
		serviceVersion = strings.TrimSpace(v.GetString("otel_service_version"))
	}
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("trustguard_otel_metrics_console")
	otelEnabled := v.GetBool("trustguard_otel_enabled") || otlpEndpoint != "" || metricsConsole

	cfg := Config{
		Environment: resolveEnvironment(v),
		Server:      ServerConfig{Port: port},
		Upstreams: UpstreamsConfig{
			GoPlusBase:      trimmedOr(v, "goplus_base", DefaultGoPlusBase),
			GoPlusRPS:       rps,
			SafeBrowsingKey: strings.TrimSpace(v.GetString("google_safe_browsing_key")),
			SafeBrowsingURL: trimmedOr(v, "google_safe_browsing_url", DefaultSafeBrowsingURL),
			CovalentKey:     strings.TrimSpace(v.GetString("covalent_key")),
			CovalentBase:    trimmedOr(v, "covalent_base", DefaultCovalentBase),
			SolanaRPCURL:    trimmedOr(v, "solana_rpc_url", DefaultSolanaRPCURL),
			SolanaTxMethod:  trimmedOr(v, "solana_tx_method", DefaultSolanaTxMethod),
			Timeout:         upstreamTimeout,
			LogTiming:       v.GetBool("trustguard_upstream_timing"),
		},
		Feeds: FeedsConfig{
			OpenPhishURL: trimmedOr(v, "openphish_feed_url", DefaultOpenPhishURL),
			URLhausURL:   trimmedOr(v, "urlhaus_feed_url", DefaultURLhausURL),
			PhishTankURL: trimmedOr(v, "phishtank_feed_url", DefaultPhishTankURL),
			TTL:          feedTTL,
			Timeout:      feedTimeout,
			DBPath:       strings.TrimSpace(v.GetString("trustguard_feed_db_path")),
		},
		Causes: CausesConfig{
			Sources: splitList(v.GetString("verified_cause_sources")),
		},
		Events: EventsConfig{
			Endpoint: strings.TrimSpace(v.GetString("trustguard_events_endpoint")),
			Secret:   strings.TrimSpace(v.GetString("trustguard_events_secret")),
		},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       serviceName,
			ServiceVer:        serviceVersion,
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
	}

	if !cfg.IsLocalDevelopment() && cfg.Upstreams.SafeBrowsingKey == "" {
		return Config{}, fmt.Errorf("GOOGLE_SAFE_BROWSING_KEY is required outside local/dev environments")
	}

	return cfg, nil
}

func durationInRange(v *viper.Viper, key string, lo, hi time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", strings.ToUpper(key), raw)
	}
	if d < lo {
		d = lo
	}
	if d > hi {
		d = hi
	}
	return d, nil
}

func trimmedOr(v *viper.Viper, key, fallback string) string {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"trustguard_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
