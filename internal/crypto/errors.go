package crypto

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the crypto package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	ErrCodeInvalidKeyLength   ErrorCode = "invalid_key_length"
	ErrCodeInvalidPublicKey   ErrorCode = "invalid_public_key"
	ErrCodeInvalidPrivateKey  ErrorCode = "invalid_private_key"
	ErrCodePlaintextTooLarge  ErrorCode = "plaintext_too_large"
	ErrCodeEmptyPayload       ErrorCode = "empty_payload"
	ErrCodeVerificationFailed ErrorCode = "verification_failed"
	ErrCodeValidation         ErrorCode = "validation"
	ErrCodeKeyManagement      ErrorCode = "key_management"
	ErrCodeInternal           ErrorCode = "internal"
)

// CryptoError represents a structured error from the crypto package.
// None of the codes are retryable: they indicate bad input or a failed verification.
type CryptoError struct {

	// code is the cryptoerror code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CryptoError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// HasCode reports whether err (or any error it wraps) is a CryptoError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) {
		return false
	}
	return cryptoErr.code == code
}

// NewInvalidKeyLengthError is used when a symmetric key is not 16, 24 or 32 bytes long.
//
// The returned error will have code ErrCodeInvalidKeyLength.
func NewInvalidKeyLengthError(msg string) error {
	return &CryptoError{code: ErrCodeInvalidKeyLength, message: msg}
}

// NewInvalidPublicKeyError is used when a public key PEM cannot be decoded or is not an RSA key.
//
// The returned error will have code ErrCodeInvalidPublicKey.
func NewInvalidPublicKeyError(msg string) error {
	return &CryptoError{code: ErrCodeInvalidPublicKey, message: msg}
}

// WrapInvalidPublicKeyError wraps a parse failure as an invalid public key error.
//
// The returned error will have code ErrCodeInvalidPublicKey.
func WrapInvalidPublicKeyError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInvalidPublicKey, message: msg, wrapped: err}
}

// NewInvalidPrivateKeyError is used when a private key PEM cannot be decoded or is not an RSA key.
//
// The returned error will have code ErrCodeInvalidPrivateKey.
func NewInvalidPrivateKeyError(msg string) error {
	return &CryptoError{code: ErrCodeInvalidPrivateKey, message: msg}
}

// WrapInvalidPrivateKeyError wraps a parse failure as an invalid private key error.
//
// The returned error will have code ErrCodeInvalidPrivateKey.
func WrapInvalidPrivateKeyError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInvalidPrivateKey, message: msg, wrapped: err}
}

// NewPlaintextTooLargeError is used when the content key does not fit the RSA-OAEP bound of the modulus.
//
// The returned error will have code ErrCodePlaintextTooLarge.
func NewPlaintextTooLargeError(msg string) error {
	return &CryptoError{code: ErrCodePlaintextTooLarge, message: msg}
}

// NewEmptyPayloadError is used when an envelope is requested for an empty payload.
//
// The returned error will have code ErrCodeEmptyPayload.
func NewEmptyPayloadError(msg string) error {
	return &CryptoError{code: ErrCodeEmptyPayload, message: msg}
}

// NewVerificationFailedError is used when a signature or an authentication tag does not match.
//
// The returned error will have code ErrCodeVerificationFailed.
func NewVerificationFailedError(msg string) error {
	return &CryptoError{code: ErrCodeVerificationFailed, message: msg}
}

// WrapVerificationFailedError wraps an existing error as a verification failure.
//
// The returned error will have code ErrCodeVerificationFailed.
func WrapVerificationFailedError(err error, msg string) error {
	return &CryptoError{code: ErrCodeVerificationFailed, message: msg, wrapped: err}
}

// NewValidationError creates a validation error for invalid input.
// Use this for errors related to malformed segments, bad encoding or unexpected header values.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// NewKeyManagementError creates a key management error.
// Use this for errors related to key loading, key generation or JWK conversion.
//
// The returned error will have code ErrCodeKeyManagement.
func NewKeyManagementError(msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg}
}

// WrapKeyManagementError wraps an existing error as a key management error.
//
// The returned error will have code ErrCodeKeyManagement.
func WrapKeyManagementError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
// Use this for errors related to crypto library failures or an unavailable random source.
//
// The returned error will have code ErrCodeInternal.
func NewInternalError(msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}
