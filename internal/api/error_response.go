package api

// error_response.go maps lower level errors to the JSON error response returned to the client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/logger"
	"github.com/walletkit-demo/walletpass/internal/services"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod" example:"POST"`

	// The URI that was requested
	RequestURI string `json:"requestUri" example:"/v1/callbacks"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode" example:"400"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText" example:"Bad Request"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty" example:"Bad signature"`

	// The request id, quote it when reporting a problem
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime" example:"2026-01-01T12:00:00Z"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError is one entry in ErrorResponse.Errors
type DetailedError struct {
	ErrorCode        ErrorCode `json:"errorCode" example:"7001"`
	Property         string    `json:"property,omitempty"`
	Value            string    `json:"value,omitempty"`
	ErrorCodeText    string    `json:"errorCodeText" example:"Bad signature"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// MapErrorToResponse maps api, services, crypto or generic errors to an error response.
//
// The mapping establishes the HTTP status code from the error type.
// Internal errors are reported to the client without detail; the full error is logged by RespondWithErrorResponse.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return errorResponseFromAPI(apiErr, r, requestID)
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return newErrorResponse(r, requestID, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request too large",
			fmt.Sprintf("request body exceeds maximum allowed size (%d bytes)", maxBytesErr.Limit))
	}

	switch {
	case errors.Is(err, services.ErrMissingSignature):
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeBadSignature, "Bad signature", err.Error())
	case errors.Is(err, services.ErrInvalidRequest):
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeMalformedRequest, "Malformed request", err.Error())
	case errors.Is(err, services.ErrCallbackEventNotFound):
		return newErrorResponse(r, requestID, http.StatusNotFound, ErrCodeNotFound, "Not found", err.Error())
	}

	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		return errorResponseFromCrypto(cryptoErr, r, requestID)
	}

	// not expected - return an internal error response and log the unmapped error
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return internalErrorResponse(r, requestID)
}

func errorResponseFromAPI(err *APIError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int
	var errorCodeText string

	switch err.Code() {
	case ErrCodeBadSignature:
		statusCode = http.StatusBadRequest
		errorCodeText = "Bad signature"
	case ErrCodeInvalidPayload:
		statusCode = http.StatusBadRequest
		errorCodeText = "Invalid payload"
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
		errorCodeText = "Malformed request"
	case ErrCodeKeyError:
		statusCode = http.StatusServiceUnavailable
		errorCodeText = "Key not available"
	case ErrCodeNotFound:
		statusCode = http.StatusNotFound
		errorCodeText = "Not found"
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
		errorCodeText = "Rate limit exceeded"
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
		errorCodeText = "Request too large"
	default:
		return internalErrorResponse(r, requestID)
	}

	return newErrorResponse(r, requestID, statusCode, err.Code(), errorCodeText, err.Error())
}

// errorResponseFromCrypto maps crypto errors.
// Key parsing failures are server configuration problems and are reported as internal errors.
func errorResponseFromCrypto(err *crypto.CryptoError, r *http.Request, requestID string) *ErrorResponse {
	switch err.Code() {
	case crypto.ErrCodeVerificationFailed:
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeBadSignature, "Bad signature", err.Error())
	case crypto.ErrCodeEmptyPayload, crypto.ErrCodePlaintextTooLarge, crypto.ErrCodeValidation:
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid payload", err.Error())
	case crypto.ErrCodeKeyManagement:
		return newErrorResponse(r, requestID, http.StatusServiceUnavailable, ErrCodeKeyError, "Key not available", err.Error())
	default:
		return internalErrorResponse(r, requestID)
	}
}

func internalErrorResponse(r *http.Request, requestID string) *ErrorResponse {
	return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError, "Internal Error", "An internal error occurred")
}

func newErrorResponse(r *http.Request, requestID string, statusCode int, code ErrorCode, text, message string) *ErrorResponse {
	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   statusCode,
		StatusCodeText:               http.StatusText(statusCode),
		StatusCodeMessage:            text,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        code,
				ErrorCodeText:    text,
				ErrorCodeMessage: message,
			},
		},
	}
}
