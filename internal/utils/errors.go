// internal/utils/errors.go
package utils

import (
	"errors"
	"net/http"
)

// Infrastructure-level errors. Protocol verification outcomes are NOT
// represented as errors; they travel as tagged results in the service layer.
var (
	ErrStoreUnavailable = errors.New("store_unavailable")
	ErrNotEnrolled      = errors.New("not_enrolled")
	ErrAlreadyEnrolled  = errors.New("already_enrolled")

	// Second-factor method selection.
	ErrMethodNotEnabled     = errors.New("method_not_enabled")
	ErrUnsupportedForMethod = errors.New("unsupported_for_method")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// For external service failures (e.g., Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
