package api

// errors.go defines the error codes returned by the walletpass HTTP API

import "fmt"

// APIError represents a structured error raised by the HTTP layer itself (request parsing, middleware).
type APIError struct {
	// code is the API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *APIError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *APIError) Code() ErrorCode { return e.code }
func (e *APIError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in the errors array of an error response.
//
//   - 7000-7999 technical errors: the request could not be processed because of the supplied data
//   - 8000-8999 functional errors: the request is valid but cannot be carried out
type ErrorCode int

const (

	// ErrCodeBadSignature is used when a callback signature is missing or does not verify
	ErrCodeBadSignature ErrorCode = 7001

	// ErrCodeInvalidPayload is used when the pass payload cannot be sealed (not a JSON object, empty, too large)
	ErrCodeInvalidPayload ErrorCode = 7004

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7005

	// ErrCodeMalformedRequest is used when JSON parsing fails or required fields are missing
	ErrCodeMalformedRequest ErrorCode = 7006

	// ErrCodeKeyError is used when a key needed for the request is not available
	ErrCodeKeyError ErrorCode = 7007

	// ErrCodeRateLimitExceeded is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7009

	// ErrCodeRequestTooLarge is only used in the middleware
	ErrCodeRequestTooLarge ErrorCode = 7010

	// ErrCodeNotFound is used when a requested resource does not exist
	ErrCodeNotFound ErrorCode = 8004
)

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(msg string) error {
	return &APIError{code: ErrCodeNotFound, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &APIError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
func NewRequestTooLargeError(msg string) error {
	return &APIError{code: ErrCodeRequestTooLarge, message: msg}
}
