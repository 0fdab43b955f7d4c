package handlers

// envelopes.go implements the POST /v1/envelopes endpoint

import (
	"encoding/json"
	"net/http"

	"github.com/walletkit-demo/walletpass/internal/api"
	"github.com/walletkit-demo/walletpass/internal/services"
)

// EnvelopeHandler handles POST /v1/envelopes requests
type EnvelopeHandler struct {
	issuer *services.EnvelopeIssuer
}

func NewEnvelopeHandler(issuer *services.EnvelopeIssuer) *EnvelopeHandler {
	return &EnvelopeHandler{issuer: issuer}
}

// HandleIssueEnvelope godoc
//
//	@Summary		Issue a pass envelope
//	@Description	Seals a pass payload for the wallet server and returns the envelope with its save link.
//	@Description
//	@Description	Send either `instanceIds` (pass instances already created on the wallet server) or `instance`
//	@Description	(a complete pass instance that the wallet server creates when the user saves the pass).
//	@Description	The `iss` field is set to the configured app id.
//	@Tags			Envelopes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		api.IssueEnvelopeRequest	true	"Pass to seal"
//	@Success		201		{object}	api.IssueEnvelopeResponse	"Envelope created"
//	@Failure		400		{object}	api.ErrorResponse			"Invalid request"
//	@Failure		413		{object}	api.ErrorResponse			"Request too large"
//	@Failure		500		{object}	api.ErrorResponse			"Internal error"
//	@Router			/v1/envelopes [post]
func (h *EnvelopeHandler) HandleIssueEnvelope(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req api.IssueEnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondWithErrorResponse(w, r, decodeError(err))
		return
	}

	issued, err := h.issuer.Issue(r.Context(), services.IssueRequest{
		InstanceIDs: req.InstanceIDs,
		Instance:    req.Instance,
	})
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return
	}

	api.RespondWithJSONPayload(w, http.StatusCreated, api.IssueEnvelopeResponse{
		Envelope: issued.Envelope,
		SaveURL:  issued.SaveURL,
	})
}
