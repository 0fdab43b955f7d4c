package handlers

// callbacks.go implements the callback notification endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/walletkit-demo/walletpass/internal/api"
	"github.com/walletkit-demo/walletpass/internal/services"
)

// SignatureHeader carries the signature of a callback notification
const SignatureHeader = "HMSSign"

// CallbackHandler handles callback notifications sent by the wallet server
type CallbackHandler struct {
	callbacks *services.CallbackService
}

func NewCallbackHandler(callbacks *services.CallbackService) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks}
}

// HandleReceiveCallback godoc
//
//	@Summary		Receive a callback notification
//	@Description	Verifies a wallet server notification and records it.
//	@Description
//	@Description	The body is a flat JSON object. The signature (base64 RSA-PSS over the fields sorted by name,
//	@Description	joined as `k=v&k=v`, empty values skipped) is sent in the `HMSSign` header.
//	@Description
//	@Description	A notification whose eventId has already been recorded is acknowledged with status `duplicate`.
//	@Tags			Callbacks
//	@Accept			json
//	@Produce		json
//	@Param			HMSSign	header		string					true	"Notification signature"
//	@Param			request	body		map[string]string		true	"Notification fields"
//	@Success		200		{object}	api.CallbackResponse	"Notification accepted"
//	@Failure		400		{object}	api.ErrorResponse		"Bad signature or invalid notification"
//	@Failure		503		{object}	api.ErrorResponse		"Callback key not available"
//	@Router			/v1/callbacks [post]
func (h *CallbackHandler) HandleReceiveCallback(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.RespondWithErrorResponse(w, r, decodeError(err))
		return
	}

	fields, err := services.ParseNotification(body)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	result, err := h.callbacks.Receive(r.Context(), fields, r.Header.Get(SignatureHeader))
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	status := api.CallbackStatusAccepted
	if result.Duplicate {
		status = api.CallbackStatusDuplicate
	}
	api.RespondWithJSONPayload(w, http.StatusOK, api.CallbackResponse{
		Status:  status,
		EventID: result.EventID,
	})
}

// HandleGetCallbackEvent godoc
//
//	@Summary		Get a recorded callback notification
//	@Tags			Callbacks
//	@Produce		json
//	@Param			eventId	path		string						true	"Event id"
//	@Success		200		{object}	api.CallbackEventResponse	"Recorded notification"
//	@Failure		404		{object}	api.ErrorResponse			"No notification with this event id"
//	@Router			/v1/callbacks/{eventId} [get]
func (h *CallbackHandler) HandleGetCallbackEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	event, err := h.callbacks.Event(r.Context(), eventID)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	api.RespondWithJSONPayload(w, http.StatusOK, callbackEventResponse(event))
}

// HandleListPassCallbacks godoc
//
//	@Summary		List the callback notifications recorded for a pass
//	@Tags			Callbacks
//	@Produce		json
//	@Param			passTypeIdentifier	path		string							true	"Pass type identifier"
//	@Param			passNumber			path		string							true	"Pass number"
//	@Success		200					{object}	api.CallbackEventListResponse	"Recorded notifications, newest first"
//	@Router			/v1/passes/{passTypeIdentifier}/{passNumber}/callbacks [get]
func (h *CallbackHandler) HandleListPassCallbacks(w http.ResponseWriter, r *http.Request) {
	events, err := h.callbacks.EventsForPass(r.Context(),
		chi.URLParam(r, "passTypeIdentifier"),
		chi.URLParam(r, "passNumber"))
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	resp := api.CallbackEventListResponse{Events: make([]api.CallbackEventResponse, 0, len(events))}
	for _, event := range events {
		resp.Events = append(resp.Events, callbackEventResponse(event))
	}
	api.RespondWithJSONPayload(w, http.StatusOK, resp)
}

func callbackEventResponse(event services.CallbackEvent) api.CallbackEventResponse {
	return api.CallbackEventResponse{
		EventID:            event.EventID,
		EventType:          event.EventType,
		SceneType:          event.SceneType,
		PassTypeIdentifier: event.PassTypeIdentifier,
		PassNumber:         event.PassNumber,
		EventTime:          event.EventTime,
		Fields:             event.Fields,
		ReceivedAt:         event.ReceivedAt,
	}
}

// decodeError keeps body size errors distinct from malformed JSON.
// The error from a failed read is reported as malformed too.
func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return api.NewRequestTooLargeError(fmt.Sprintf("request body exceeds maximum allowed size (%d bytes)", maxBytesErr.Limit))
	}
	return api.WrapMalformedRequestError(err, "failed to decode request JSON")
}
