// Package handlers provides general infrastructure HTTP handlers
// (health, readiness, version and jwks).
//
// The walletpass API handlers are in internal/api/handlers.
package handlers
