package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	appservices "github.com/fr0stylo/trustguard/internal/app/services"
)

const aggregateFailureMessage = "All cause sources failed"

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    any    `json:"code"`
	Raw     any    `json:"raw"`
}

func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, successEnvelope{Success: true, Data: data})
}

// respondError maps err onto a status and failure envelope. Upstream
// failures are application-level and keep status 200.
func respondError(c echo.Context, err error) error {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "status", status, "error", err)
	}
	return c.JSON(status, body)
}

func errorResponse(err error) (int, errorEnvelope) {
	body := errorEnvelope{Success: false}

	switch appservices.ClassifyError(err) {
	case domain.ErrorKindValidation:
		var validationErr *domain.ValidationError
		errors.As(err, &validationErr)
		body.Message = err.Error()
		if validationErr != nil && validationErr.Field != "" {
			body.Raw = map[string]string{"field": validationErr.Field}
		}
		return http.StatusBadRequest, body

	case domain.ErrorKindSourceAggregateFailure:
		var aggregateErr *domain.AggregateError
		errors.As(err, &aggregateErr)
		body.Message = aggregateFailureMessage
		if aggregateErr != nil {
			body.Raw = aggregateErr.Failed
		}
		return http.StatusServiceUnavailable, body

	case domain.ErrorKindUpstreamUnavailable, domain.ErrorKindUpstreamEmptyResult:
		var upstreamErr *domain.UpstreamError
		errors.As(err, &upstreamErr)
		body.Message = upstreamErr.Message
		if upstreamErr.Code != nil {
			body.Code = *upstreamErr.Code
		}
		body.Raw = upstreamErr.Raw
		return http.StatusOK, body

	default:
		body.Message = "Internal server error."
		return http.StatusInternalServerError, body
	}
}

// HTTPErrorHandler renders framework errors (unknown route, wrong method,
// recovered panics) in the failure envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	body := errorEnvelope{Success: false, Message: "Internal server error."}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		body.Message = fmt.Sprint(httpErr.Message)
	} else {
		slog.ErrorContext(c.Request().Context(), "unhandled error", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
