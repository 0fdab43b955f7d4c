package services

import "errors"

var (
	// ErrInvalidRequest is returned when the caller supplied an unusable request
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingSignature is returned when a callback arrives without a signature
	ErrMissingSignature = errors.New("missing callback signature")

	// ErrCallbackEventNotFound is returned by CallbackStore.Get
	ErrCallbackEventNotFound = errors.New("callback event not found")
)
