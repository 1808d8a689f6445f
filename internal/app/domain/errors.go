package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures for transport-specific mapping.
type ErrorKind string

const (
	// ErrorKindUnknown is used when an error is nil or not classified.
	ErrorKindUnknown ErrorKind = "unknown"
	// ErrorKindUpstreamUnavailable covers network errors, timeouts and non-200 responses.
	ErrorKindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// ErrorKindUpstreamEmptyResult covers 200 responses without a usable payload.
	ErrorKindUpstreamEmptyResult ErrorKind = "upstream_empty_result"
	// ErrorKindSourceAggregateFailure means every cause source failed.
	ErrorKindSourceAggregateFailure ErrorKind = "source_aggregate_failure"
	// ErrorKindValidation means input was rejected before any upstream call.
	ErrorKindValidation ErrorKind = "validation_error"
)

var (
	// ErrUpstreamUnavailable matches any UpstreamError of kind upstream_unavailable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamEmptyResult matches any UpstreamError of kind upstream_empty_result.
	ErrUpstreamEmptyResult = errors.New("upstream returned no usable result")
	// ErrSourceAggregateFailure matches an AggregateError.
	ErrSourceAggregateFailure = errors.New("all cause sources failed")
	// ErrValidation matches a ValidationError.
	ErrValidation = errors.New("validation failed")
)

// UpstreamError is the failure half of a gateway result.
type UpstreamError struct {
	Kind    ErrorKind
	Source  string
	Message string
	Code    *int
	Raw     any
	Err     error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the transport-level cause, if any.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamUnavailable:
		return e.Kind == ErrorKindUpstreamUnavailable
	case ErrUpstreamEmptyResult:
		return e.Kind == ErrorKindUpstreamEmptyResult
	}
	return false
}

// Unavailable builds an upstream_unavailable error.
func Unavailable(source, message string, raw any, err error) *UpstreamError {
	return &UpstreamError{Kind: ErrorKindUpstreamUnavailable, Source: source, Message: message, Raw: raw, Err: err}
}

// EmptyResult builds an upstream_empty_result error.
func EmptyResult(source, message string, code *int, raw any) *UpstreamError {
	return &UpstreamError{Kind: ErrorKindUpstreamEmptyResult, Source: source, Message: message, Code: code, Raw: raw}
}

// AggregateError is returned when no cause source produced data.
type AggregateError struct {
	Failed []SourceFailure
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	return fmt.Sprintf("all cause sources failed (%d)", len(e.Failed))
}

// Is matches ErrSourceAggregateFailure.
func (e *AggregateError) Is(target error) bool {
	return target == ErrSourceAggregateFailure
}

// ValidationError rejects malformed input before any upstream call.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
