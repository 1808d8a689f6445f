package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
	"github.com/fr0stylo/trustguard/internal/observability"
)

// CauseRegistry aggregates verified donation recipients from every configured
// source on each call. Nothing is cached.
type CauseRegistry struct {
	sources []ports.CauseSource
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewCauseRegistry creates a registry over sources, kept in declaration order.
func NewCauseRegistry(sources []ports.CauseSource, metrics *observability.Metrics, log *slog.Logger) *CauseRegistry {
	if log == nil {
		log = slog.Default()
	}
	return &CauseRegistry{sources: sources, metrics: metrics, log: log}
}

type sourceOutcome struct {
	causes []domain.Cause
	err    error
}

// GetVerifiedCauses queries all sources concurrently. Causes keep source
// order then in-source order; failures are collected, never returned.
func (r *CauseRegistry) GetVerifiedCauses(ctx context.Context) domain.CauseRegistrySnapshot {
	outcomes := make([]sourceOutcome, len(r.sources))

	var g errgroup.Group
	for i, source := range r.sources {
		g.Go(func() error {
			causes, err := source.FetchCauses(ctx)
			outcomes[i] = sourceOutcome{causes: causes, err: err}
			return nil
		})
	}
	_ = g.Wait()

	snapshot := domain.CauseRegistrySnapshot{
		Causes:        make([]domain.Cause, 0),
		FailedSources: make([]domain.SourceFailure, 0),
	}
	for i, outcome := range outcomes {
		name := r.sources[i].Name()
		if outcome.err != nil {
			r.metrics.CauseSourceFailure(ctx, name)
			r.log.WarnContext(ctx, "cause source failed", "source", name, "error", outcome.err)
			snapshot.FailedSources = append(snapshot.FailedSources, domain.SourceFailure{
				Source: name,
				Error:  outcome.err.Error(),
			})
			continue
		}
		snapshot.Causes = append(snapshot.Causes, outcome.causes...)
	}
	return snapshot
}
