// Package server provides the walletpass HTTP server.
//
// The server is configured through environment variables (see internal/config/config.go).
//
// Routes:
//   - GET  /health/live, /health/ready, /version, /.well-known/jwks.json (internal/server/handlers)
//   - POST /v1/envelopes, POST /v1/callbacks, GET /v1/callbacks/{eventId} (internal/api/handlers)
//
// Middleware is in internal/server/middleware.
package server
