package chat

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a client error.
type ErrorKind string

const (
	ErrorKindInvalidURL        ErrorKind = "invalid_url"
	ErrorKindEncodingFailed    ErrorKind = "encoding_failed"
	ErrorKindNetwork           ErrorKind = "network_error"
	ErrorKindDecodingFailed    ErrorKind = "decoding_failed"
	ErrorKindServer            ErrorKind = "server_error"
	ErrorKindRateLimit         ErrorKind = "rate_limit"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindInvalidValue      ErrorKind = "invalid_value"
	ErrorKindMissingBaseURL    ErrorKind = "missing_base_url"
	ErrorKindMissingModel      ErrorKind = "missing_model"
)

// Error is the structured error returned by every operation in this library.
// The kind set is closed: callers branch on Kind rather than on message text.
type Error struct {
	Kind    ErrorKind
	Message string

	// StatusCode is set for server_error and rate_limit.
	StatusCode int

	// Body holds the raw response body for server_error. May be empty.
	Body string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: HTTP %d: %s", e.Kind, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: HTTP %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the kind of err when it is a chat Error, or "" otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NewInvalidURLError creates an Error for an unparseable request URL.
func NewInvalidURLError(message string) *Error {
	return &Error{Kind: ErrorKindInvalidURL, Message: message}
}

// NewEncodingError creates an Error for a request body that failed to encode.
func NewEncodingError(message string) *Error {
	return &Error{Kind: ErrorKindEncodingFailed, Message: message}
}

// NewNetworkError creates an Error for a transport-level failure
// (connection refused, timeout, DNS resolution failure).
func NewNetworkError(message string) *Error {
	return &Error{Kind: ErrorKindNetwork, Message: message}
}

// NewDecodingError creates an Error for a response body that failed to decode.
func NewDecodingError(message string) *Error {
	return &Error{Kind: ErrorKindDecodingFailed, Message: message}
}

// NewServerError creates an Error for a non-2xx HTTP response, carrying the
// status code and the raw response body.
func NewServerError(statusCode int, body string) *Error {
	return &Error{Kind: ErrorKindServer, StatusCode: statusCode, Body: body}
}

// NewRateLimitError creates an Error for an HTTP 429 response.
func NewRateLimitError() *Error {
	return &Error{Kind: ErrorKindRateLimit, StatusCode: 429, Message: "rate limit exceeded"}
}

// NewMalformedResponseError creates an Error for a response that decoded but
// violates the expected envelope shape.
func NewMalformedResponseError(message string) *Error {
	return &Error{Kind: ErrorKindMalformedResponse, Message: message}
}

// NewInvalidValueError creates an Error for a configuration value outside
// its allowed range. The message names the violated constraint and the
// offending value.
func NewInvalidValueError(message string) *Error {
	return &Error{Kind: ErrorKindInvalidValue, Message: message}
}

// NewMissingBaseURLError creates an Error for client construction without a
// base URL.
func NewMissingBaseURLError() *Error {
	return &Error{Kind: ErrorKindMissingBaseURL, Message: "base URL is required"}
}

// NewMissingModelError creates an Error for request construction without a
// model identifier.
func NewMissingModelError() *Error {
	return &Error{Kind: ErrorKindMissingModel, Message: "model is required"}
}
