package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/walletkit-demo/walletpass/internal/database"
)

// CallbackEvent is a verified callback notification
type CallbackEvent struct {
	ID                 uuid.UUID
	EventID            string
	EventType          string
	SceneType          string
	PassTypeIdentifier string
	PassNumber         string
	EventTime          string

	// Fields holds every field of the notification as received
	Fields map[string]string

	ReceivedAt time.Time
}

// newCallbackEvent copies the well known fields out of a notification
func newCallbackEvent(fields map[string]string, receivedAt time.Time) CallbackEvent {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return CallbackEvent{
		ID:                 uuid.New(),
		EventID:            fields["eventId"],
		EventType:          fields["eventType"],
		SceneType:          fields["sceneType"],
		PassTypeIdentifier: fields["passTypeIdentifier"],
		PassNumber:         fields["passNumber"],
		EventTime:          fields["eventTime"],
		Fields:             copied,
		ReceivedAt:         receivedAt,
	}
}

// CallbackStore records verified callback events, keyed by event id.
type CallbackStore interface {
	// Record stores the event. It returns false (and stores nothing) when an event with the same id already exists.
	Record(ctx context.Context, event CallbackEvent) (inserted bool, err error)

	// Get returns the event with the given event id or ErrCallbackEventNotFound
	Get(ctx context.Context, eventID string) (CallbackEvent, error)

	// ListForPass returns the events for one pass, most recently received first
	ListForPass(ctx context.Context, passTypeIdentifier, passNumber string) ([]CallbackEvent, error)
}

// NewCallbackStore returns a Postgres store when queries is set, otherwise an in-memory store.
func NewCallbackStore(queries *database.Queries) CallbackStore {
	if queries == nil {
		return NewMemoryCallbackStore()
	}
	return &PostgresCallbackStore{queries: queries}
}

// MemoryCallbackStore keeps events in memory. Events are lost on restart.
type MemoryCallbackStore struct {
	mu     sync.RWMutex
	events map[string]CallbackEvent
}

func NewMemoryCallbackStore() *MemoryCallbackStore {
	return &MemoryCallbackStore{events: make(map[string]CallbackEvent)}
}

func (m *MemoryCallbackStore) Record(ctx context.Context, event CallbackEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.events[event.EventID]; exists {
		return false, nil
	}
	m.events[event.EventID] = event
	return true, nil
}

func (m *MemoryCallbackStore) Get(ctx context.Context, eventID string) (CallbackEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event, ok := m.events[eventID]
	if !ok {
		return CallbackEvent{}, ErrCallbackEventNotFound
	}
	return event, nil
}

func (m *MemoryCallbackStore) ListForPass(ctx context.Context, passTypeIdentifier, passNumber string) ([]CallbackEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]CallbackEvent, 0)
	for _, event := range m.events {
		if event.PassTypeIdentifier == passTypeIdentifier && event.PassNumber == passNumber {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ReceivedAt.After(events[j].ReceivedAt)
	})
	return events, nil
}

// PostgresCallbackStore keeps events in the callback_events table
type PostgresCallbackStore struct {
	queries *database.Queries
}

func (p *PostgresCallbackStore) Record(ctx context.Context, event CallbackEvent) (bool, error) {
	fields, err := json.Marshal(event.Fields)
	if err != nil {
		return false, fmt.Errorf("failed to marshal callback fields: %w", err)
	}

	rows, err := p.queries.InsertCallbackEvent(ctx, database.InsertCallbackEventParams{
		ID:                 event.ID,
		EventID:            event.EventID,
		EventType:          event.EventType,
		SceneType:          event.SceneType,
		PassTypeIdentifier: event.PassTypeIdentifier,
		PassNumber:         event.PassNumber,
		EventTime:          event.EventTime,
		Fields:             fields,
		ReceivedAt:         event.ReceivedAt,
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert callback event: %w", err)
	}
	return rows == 1, nil
}

func (p *PostgresCallbackStore) Get(ctx context.Context, eventID string) (CallbackEvent, error) {
	row, err := p.queries.GetCallbackEventByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallbackEvent{}, ErrCallbackEventNotFound
		}
		return CallbackEvent{}, fmt.Errorf("failed to get callback event: %w", err)
	}

	return callbackEventFromRow(row)
}

func (p *PostgresCallbackStore) ListForPass(ctx context.Context, passTypeIdentifier, passNumber string) ([]CallbackEvent, error) {
	rows, err := p.queries.ListCallbackEventsForPass(ctx, database.ListCallbackEventsForPassParams{
		PassTypeIdentifier: passTypeIdentifier,
		PassNumber:         passNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list callback events: %w", err)
	}

	events := make([]CallbackEvent, 0, len(rows))
	for _, row := range rows {
		event, err := callbackEventFromRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func callbackEventFromRow(row database.CallbackEvent) (CallbackEvent, error) {
	var fields map[string]string
	if err := json.Unmarshal(row.Fields, &fields); err != nil {
		return CallbackEvent{}, fmt.Errorf("failed to unmarshal callback fields: %w", err)
	}

	return CallbackEvent{
		ID:                 row.ID,
		EventID:            row.EventID,
		EventType:          row.EventType,
		SceneType:          row.SceneType,
		PassTypeIdentifier: row.PassTypeIdentifier,
		PassNumber:         row.PassNumber,
		EventTime:          row.EventTime,
		Fields:             fields,
		ReceivedAt:         row.ReceivedAt,
	}, nil
}
