package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type MarketSyncError struct {
	Message string
	Cause   error
}

func (e *MarketSyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *MarketSyncError) Unwrap() error {
	return e.Cause
}

// ConfigurationError: a required upstream URL or credential is missing. Never retried.
type ConfigurationError struct{ MarketSyncError }

// ValidationError: malformed client input.
type ValidationError struct{ MarketSyncError }

// TimeoutError: the polling budget ran out.
type TimeoutError struct{ MarketSyncError }

// ProcessingError: a local generator failed. Should not happen under valid input.
type ProcessingError struct{ MarketSyncError }

// UpstreamError carries the status (0 on transport failure) and raw body of a failed
// upstream call.
type UpstreamError struct {
	MarketSyncError
	Source string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream %s returned %d: %s", e.Message, e.Source, e.Status, truncate(e.Body, 200))
	}
	return e.MarketSyncError.Error()
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{MarketSyncError{Message: fmt.Sprintf(format, args...)}}
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{MarketSyncError{Message: fmt.Sprintf(format, args...)}}
}

func NewTimeoutError(format string, args ...interface{}) error {
	return &TimeoutError{MarketSyncError{Message: fmt.Sprintf(format, args...)}}
}

func NewProcessingError(cause error, format string, args ...interface{}) error {
	return &ProcessingError{MarketSyncError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewUpstreamError(source string, status int, body string, cause error) error {
	return &UpstreamError{
		MarketSyncError: MarketSyncError{Message: "upstream request failed", Cause: cause},
		Source:          source,
		Status:          status,
		Body:            body,
	}
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// HTTPStatus maps an error to the status code the server tier answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidationError(err):
		return http.StatusBadRequest
	case IsTimeoutError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to hand to a client. Configuration and upstream
// details stay in the logs.
func PublicMessage(err error) string {
	var validation *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Message
	case IsConfigurationError(err):
		return "service is not configured for this request"
	case IsUpstreamError(err):
		return "failed to fetch data from upstream service"
	case IsTimeoutError(err):
		return "request timed out"
	default:
		return "internal server error"
	}
}

// -----------------------------------------------------------------------------

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
