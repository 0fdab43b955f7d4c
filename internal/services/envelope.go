package services

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/logger"
	"github.com/walletkit-demo/walletpass/internal/walletkit"
)

// EnvelopeKeyProvider supplies the keys used to build envelopes
type EnvelopeKeyProvider interface {
	SigningKey() *rsa.PrivateKey
	RecipientKey() *rsa.PublicKey
}

// IssueRequest describes the pass to put in an envelope.
// Set exactly one of the fields.
type IssueRequest struct {
	// InstanceIDs binds pass instances already created on the wallet server
	InstanceIDs []string

	// Instance is a complete pass instance (JSON object) created when the user saves the pass
	Instance json.RawMessage
}

// IssuedEnvelope is the result of EnvelopeIssuer.Issue
type IssuedEnvelope struct {
	Envelope string
	SaveURL  string
}

// EnvelopeIssuer builds envelopes on behalf of one app
type EnvelopeIssuer struct {
	appID  string
	region walletkit.Region
	keys   EnvelopeKeyProvider
}

func NewEnvelopeIssuer(appID string, region walletkit.Region, keys EnvelopeKeyProvider) (*EnvelopeIssuer, error) {
	if appID == "" {
		return nil, fmt.Errorf("app id is required")
	}
	if _, err := walletkit.ParseRegion(string(region)); err != nil {
		return nil, err
	}
	return &EnvelopeIssuer{appID: appID, region: region, keys: keys}, nil
}

// Issue stamps the payload with the app id, seals it and returns the envelope with its save link.
func (e *EnvelopeIssuer) Issue(ctx context.Context, req IssueRequest) (*IssuedEnvelope, error) {
	var (
		payload []byte
		err     error
	)

	switch {
	case len(req.InstanceIDs) > 0 && len(req.Instance) > 0:
		return nil, fmt.Errorf("%w: set instanceIds or instance, not both", ErrInvalidRequest)
	case len(req.InstanceIDs) > 0:
		payload, err = walletkit.BindInstancesPayload(e.appID, req.InstanceIDs)
	case len(req.Instance) > 0:
		payload, err = walletkit.StampIssuer(req.Instance, e.appID)
	default:
		return nil, fmt.Errorf("%w: instanceIds or instance is required", ErrInvalidRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	envelope, err := crypto.BuildEnvelopeWithKeys(string(payload), e.keys.SigningKey(), e.keys.RecipientKey())
	if err != nil {
		return nil, err
	}

	sealed := envelope.String()
	saveURL, err := walletkit.SaveURL(e.region, sealed)
	if err != nil {
		return nil, crypto.WrapInternalError(err, "failed to build save url")
	}

	logger.ContextRequestLogger(ctx).Info("envelope issued",
		slog.Int("instance_ids", len(req.InstanceIDs)),
		slog.Int("payload_bytes", len(payload)),
		slog.Int("envelope_bytes", len(sealed)))

	return &IssuedEnvelope{Envelope: sealed, SaveURL: saveURL}, nil
}
