package services

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"time"

	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/logger"
)

// CallbackKeyProvider supplies the wallet server key that signs callback notifications
type CallbackKeyProvider interface {
	CallbackKey(ctx context.Context) (*rsa.PublicKey, error)
}

// CallbackResult reports what happened to a verified notification
type CallbackResult struct {
	EventID   string
	EventType string

	// Duplicate is true when the event id had already been recorded
	Duplicate bool
}

// CallbackService verifies and records wallet server callback notifications
type CallbackService struct {
	keys  CallbackKeyProvider
	store CallbackStore
	now   func() time.Time
}

func NewCallbackService(keys CallbackKeyProvider, store CallbackStore) *CallbackService {
	return &CallbackService{
		keys:  keys,
		store: store,
		now:   time.Now,
	}
}

// Receive verifies the HMSSign signature over the notification fields and records the event.
//
// The signature is checked before anything else is looked at: an unverified notification is never stored.
// A notification whose eventId has been seen before is reported as a duplicate and not stored again.
func (s *CallbackService) Receive(ctx context.Context, fields map[string]string, signature string) (*CallbackResult, error) {
	reqLogger := logger.ContextRequestLogger(ctx)

	if signature == "" {
		return nil, ErrMissingSignature
	}

	key, err := s.keys.CallbackKey(ctx)
	if err != nil {
		return nil, err
	}

	if err := crypto.VerifyCallbackWithPublicKey(fields, key, signature); err != nil {
		reqLogger.Warn("callback signature rejected",
			slog.String("event_id", fields["eventId"]),
			slog.String("error", err.Error()))
		return nil, err
	}

	event := newCallbackEvent(fields, s.now().UTC())
	if event.EventID == "" {
		return nil, fmt.Errorf("%w: eventId is required", ErrInvalidRequest)
	}

	logger.ContextWithLogAttrs(ctx,
		slog.String("event_id", event.EventID),
		slog.String("event_type", event.EventType),
	)

	inserted, err := s.store.Record(ctx, event)
	if err != nil {
		return nil, err
	}

	if inserted {
		reqLogger.Info("callback event recorded",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
			slog.String("pass_number", event.PassNumber))
	} else {
		reqLogger.Info("duplicate callback event ignored", slog.String("event_id", event.EventID))
	}

	return &CallbackResult{
		EventID:   event.EventID,
		EventType: event.EventType,
		Duplicate: !inserted,
	}, nil
}

// Event returns a recorded event
func (s *CallbackService) Event(ctx context.Context, eventID string) (CallbackEvent, error) {
	return s.store.Get(ctx, eventID)
}

// EventsForPass returns the recorded events for one pass, newest first
func (s *CallbackService) EventsForPass(ctx context.Context, passTypeIdentifier, passNumber string) ([]CallbackEvent, error) {
	if passTypeIdentifier == "" || passNumber == "" {
		return nil, fmt.Errorf("%w: pass type identifier and pass number are required", ErrInvalidRequest)
	}
	return s.store.ListForPass(ctx, passTypeIdentifier, passNumber)
}
