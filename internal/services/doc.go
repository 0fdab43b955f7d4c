// Package services holds the application logic that sits between the HTTP handlers and the crypto core.
//
// EnvelopeIssuer prepares a pass payload and seals it into an envelope for the wallet server.
// CallbackService verifies callback notifications from the wallet server and records them in a CallbackStore.
//
// CallbackStore has an in-memory implementation (used when no database is configured) and a Postgres one.
package services
