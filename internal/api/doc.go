// Package api holds the error codes and the JSON response helpers shared by the HTTP handlers and middleware.
//
// Errors returned by the lower layers (crypto, services) are mapped to an ErrorResponse with MapErrorToResponse.
// The full error is logged server-side; the client gets the status, a short description and the error message.
package api
