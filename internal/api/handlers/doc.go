// Package handlers implements the walletpass API endpoints: issuing envelopes and receiving
// wallet server callback notifications.
//
// Handlers decode the request, call the services layer and map any error with api.RespondWithErrorResponse.
package handlers
