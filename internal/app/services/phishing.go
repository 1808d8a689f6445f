package services

import (
	"context"
	"log/slog"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/observability"
)

type stageResult int

const (
	stageInconclusive stageResult = iota
	stageFlagged
	stageAbort
)

func (r stageResult) String() string {
	switch r {
	case stageFlagged:
		return "flagged"
	case stageAbort:
		return "aborted"
	default:
		return "inconclusive"
	}
}

// phishingStage returns a verdict when it flags, or inconclusive. Only the
// risk-scan stage may abort the cascade.
type phishingStage struct {
	name string
	run  func(ctx context.Context, rawURL string) (domain.Verdict, stageResult, error)
}

// PhishingResolver decides whether a URL is malicious by asking each source
// in priority order and stopping at the first positive signal.
type PhishingResolver struct {
	scanner      ports.RiskScanner
	safeBrowsing ports.SafeBrowsing
	feeds        ports.FeedReader
	notifier     ports.Notifier
	metrics      *observability.Metrics
	log          *slog.Logger
	stages       []phishingStage
}

// PhishingOption configures PhishingResolver.
type PhishingOption func(*PhishingResolver)

// WithNotifier publishes flagged verdicts.
func WithNotifier(notifier ports.Notifier) PhishingOption {
	return func(r *PhishingResolver) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// WithPhishingMetrics records stage outcomes and verdicts.
func WithPhishingMetrics(metrics *observability.Metrics) PhishingOption {
	return func(r *PhishingResolver) {
		r.metrics = metrics
	}
}

// WithPhishingLogger sets the logger.
func WithPhishingLogger(log *slog.Logger) PhishingOption {
	return func(r *PhishingResolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewPhishingResolver builds the cascade: risk scan, safe browsing, then the
// OpenPhish, URLhaus and PhishTank feeds.
func NewPhishingResolver(scanner ports.RiskScanner, safeBrowsing ports.SafeBrowsing, feeds ports.FeedReader, opts ...PhishingOption) *PhishingResolver {
	r := &PhishingResolver{
		scanner:      scanner,
		safeBrowsing: safeBrowsing,
		feeds:        feeds,
		notifier:     ports.NopNotifier{},
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stages = []phishingStage{
		{name: string(domain.SourceGoPlus), run: r.riskScanStage},
		{name: string(domain.SourceGoogle), run: r.safeBrowsingStage},
		{name: domain.FeedOpenPhish, run: r.feedStage(domain.FeedOpenPhish)},
		{name: domain.FeedURLhaus, run: r.feedStage(domain.FeedURLhaus)},
		{name: domain.FeedPhishTank, run: r.feedStage(domain.FeedPhishTank)},
	}
	return r
}

// Resolve runs the cascade for rawURL. It returns an error only when the
// risk-scan API itself is unavailable.
func (r *PhishingResolver) Resolve(ctx context.Context, rawURL string) (domain.Verdict, error) {
	verdict := domain.CleanVerdict()
	for _, stage := range r.stages {
		candidate, result, err := stage.run(ctx, rawURL)
		r.metrics.StageOutcome(ctx, stage.name, result.String())

		switch result {
		case stageAbort:
			r.log.WarnContext(ctx, "phishing cascade aborted", "stage", stage.name, "error", err)
			return domain.Verdict{}, err
		case stageFlagged:
			r.metrics.Verdict(ctx, string(candidate.Source))
			r.notifier.Notify(ctx, ports.Notification{
				Type:    domain.EventURLFlagged,
				Subject: rawURL,
				Data: map[string]any{
					"url":    rawURL,
					"source": candidate.Source,
				},
			})
			return candidate, nil
		}

		if err != nil {
			r.log.DebugContext(ctx, "phishing stage inconclusive", "stage", stage.name, "error", err)
		}
		if verdict.Raw == nil && candidate.Raw != nil {
			verdict.Raw = candidate.Raw
		}
	}
	r.metrics.Verdict(ctx, string(domain.SourceNone))
	return verdict, nil
}

func (r *PhishingResolver) riskScanStage(ctx context.Context, rawURL string) (domain.Verdict, stageResult, error) {
	signal, err := r.scanner.PhishingSite(ctx, rawURL)
	if err != nil {
		if isHardRiskScanError(err) {
			return domain.Verdict{}, stageAbort, err
		}
		return domain.Verdict{}, stageInconclusive, err
	}
	verdict := domain.Verdict{Flagged: signal.Flagged, Source: signal.Source, Raw: signal.Raw}
	if signal.Flagged {
		if verdict.Source == "" {
			verdict.Source = domain.SourceGoPlus
		}
		return verdict, stageFlagged, nil
	}
	return verdict, stageInconclusive, nil
}

func (r *PhishingResolver) safeBrowsingStage(ctx context.Context, rawURL string) (domain.Verdict, stageResult, error) {
	if r.safeBrowsing == nil {
		return domain.Verdict{}, stageInconclusive, nil
	}
	signal, err := r.safeBrowsing.CheckURL(ctx, rawURL)
	if err != nil {
		return domain.Verdict{}, stageInconclusive, err
	}
	if signal.Flagged {
		return domain.Verdict{Flagged: true, Source: domain.SourceGoogle, Raw: signal.Raw}, stageFlagged, nil
	}
	return domain.Verdict{}, stageInconclusive, nil
}

func (r *PhishingResolver) feedStage(name string) func(context.Context, string) (domain.Verdict, stageResult, error) {
	return func(ctx context.Context, rawURL string) (domain.Verdict, stageResult, error) {
		if r.feeds == nil {
			return domain.Verdict{}, stageInconclusive, nil
		}
		if r.feeds.Get(ctx, name).Contains(rawURL) {
			return domain.Verdict{
				Flagged: true,
				Source:  domain.VerdictSource(name),
				Raw:     map[string]any{"source": name, "phishing": 1},
			}, stageFlagged, nil
		}
		return domain.Verdict{}, stageInconclusive, nil
	}
}
