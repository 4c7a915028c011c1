package types

import "fmt"

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Request and provider error codes
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrAuthentication     ErrorCode = "AUTHENTICATION"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrProviderError      ErrorCode = "PROVIDER_ERROR"
)

// External-collaborator error codes
const (
	// ErrExternalRequest is a transport or HTTP failure talking to a
	// remote database or search service.
	ErrExternalRequest ErrorCode = "EXTERNAL_REQUEST"
	// ErrSubmission means a job submission response carried no
	// recognizable job handle.
	ErrSubmission ErrorCode = "SUBMISSION"
	// ErrJobFailed means a remote job reached a terminal failure status.
	ErrJobFailed ErrorCode = "JOB_FAILED"
	// ErrJobTimeout means polling attempts were exhausted without the job
	// reaching a terminal status.
	ErrJobTimeout ErrorCode = "JOB_TIMEOUT"
	// ErrSessionStateDelete is a best-effort, session-scoped deletion
	// failure during a sweep. Logged, never raised past the sweep.
	ErrSessionStateDelete ErrorCode = "SESSION_STATE_DELETE"
	// ErrResponseParse means an embedded payload in a collaborator
	// response did not match the expected shape.
	ErrResponseParse ErrorCode = "RESPONSE_PARSE"
	// ErrNotFound means the remote database has no entry for the query.
	ErrNotFound ErrorCode = "NOT_FOUND"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
