package services

import (
	"errors"

	"github.com/fr0stylo/trustguard/internal/app/domain"
)

// ClassifyError maps a service error onto the error taxonomy.
func ClassifyError(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return domain.ErrorKindUnknown
	case errors.Is(err, domain.ErrValidation):
		return domain.ErrorKindValidation
	case errors.Is(err, domain.ErrSourceAggregateFailure):
		return domain.ErrorKindSourceAggregateFailure
	case errors.Is(err, domain.ErrUpstreamEmptyResult):
		return domain.ErrorKindUpstreamEmptyResult
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return domain.ErrorKindUpstreamUnavailable
	default:
		return domain.ErrorKindUnknown
	}
}

// isHardRiskScanError reports an unavailable risk-scan API, as opposed to a
// soft empty answer or a failure of a gateway it delegated to.
func isHardRiskScanError(err error) bool {
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return false
	}
	return upstreamErr.Kind == domain.ErrorKindUpstreamUnavailable &&
		upstreamErr.Source == string(domain.SourceGoPlus)
}
