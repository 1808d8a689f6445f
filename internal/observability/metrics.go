package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "trustguard"

// Metrics holds the counters recorded by the verification pipelines.
// A nil *Metrics records nothing.
type Metrics struct {
	verdicts      metric.Int64Counter
	stageOutcomes metric.Int64Counter
	feedRefreshes metric.Int64Counter
	causeFailures metric.Int64Counter
}

// NewMetrics registers counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	verdicts, err := meter.Int64Counter("trustguard.phishing.verdicts",
		metric.WithDescription("URL verdicts by deciding source"))
	if err != nil {
		return nil, err
	}
	stageOutcomes, err := meter.Int64Counter("trustguard.phishing.stage_outcomes",
		metric.WithDescription("Phishing cascade stage results"))
	if err != nil {
		return nil, err
	}
	feedRefreshes, err := meter.Int64Counter("trustguard.feed.refreshes",
		metric.WithDescription("Blocklist feed refresh attempts"))
	if err != nil {
		return nil, err
	}
	causeFailures, err := meter.Int64Counter("trustguard.cause_sources.failures",
		metric.WithDescription("Failed verified-cause source fetches"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		verdicts:      verdicts,
		stageOutcomes: stageOutcomes,
		feedRefreshes: feedRefreshes,
		causeFailures: causeFailures,
	}, nil
}

// Verdict counts one final URL verdict.
func (m *Metrics) Verdict(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.verdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// StageOutcome counts one cascade stage result: flagged, inconclusive or aborted.
func (m *Metrics) StageOutcome(ctx context.Context, stage, outcome string) {
	if m == nil {
		return
	}
	m.stageOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// FeedRefresh counts one feed refresh attempt.
func (m *Metrics) FeedRefresh(ctx context.Context, feed string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.feedRefreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feed", feed),
		attribute.String("result", result),
	))
}

// CauseSourceFailure counts one failed cause source.
func (m *Metrics) CauseSourceFailure(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.causeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
