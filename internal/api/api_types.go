package api

import (
	"encoding/json"
	"time"
)

// IssueEnvelopeRequest is the body of POST /v1/envelopes.
// Set exactly one of InstanceIDs and Instance.
type IssueEnvelopeRequest struct {
	// InstanceIDs are pass instances already created on the wallet server
	InstanceIDs []string `json:"instanceIds,omitempty" example:"20250101-0001"`

	// Instance is a complete pass instance, created on the wallet server when the user saves the pass
	Instance json.RawMessage `json:"instance,omitempty" swaggertype:"object"`
}

// IssueEnvelopeResponse is returned by POST /v1/envelopes
type IssueEnvelopeResponse struct {
	// Envelope is the sealed payload (header.wrappedKey.iv.cipherText.signature)
	Envelope string `json:"envelope"`

	// SaveURL is the link that adds the pass to the user's wallet
	SaveURL string `json:"saveUrl" example:"https://walletpass-drcn.cloud.huawei.com/walletkit/consumer/pass/save?content=..."`
}

// CallbackStatus reports what happened to a verified callback notification
type CallbackStatus string

const (
	CallbackStatusAccepted  CallbackStatus = "accepted"
	CallbackStatusDuplicate CallbackStatus = "duplicate"
)

// CallbackResponse is returned by POST /v1/callbacks
type CallbackResponse struct {
	Status  CallbackStatus `json:"status" example:"accepted"`
	EventID string         `json:"eventId" example:"2f9c6a1e"`
}

// CallbackEventResponse is a recorded callback notification
type CallbackEventResponse struct {
	EventID            string            `json:"eventId"`
	EventType          string            `json:"eventType" example:"DELETE_CARD"`
	SceneType          string            `json:"sceneType,omitempty"`
	PassTypeIdentifier string            `json:"passTypeIdentifier,omitempty"`
	PassNumber         string            `json:"passNumber,omitempty"`
	EventTime          string            `json:"eventTime,omitempty"`
	Fields             map[string]string `json:"fields"`
	ReceivedAt         time.Time         `json:"receivedAt"`
}

// CallbackEventListResponse is returned by GET /v1/passes/{passTypeIdentifier}/{passNumber}/callbacks
type CallbackEventListResponse struct {
	Events []CallbackEventResponse `json:"events"`
}
