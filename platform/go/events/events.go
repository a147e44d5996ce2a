// Package events publishes domain events (deletes, restores, RSVP changes, capacity alerts) to a broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeContentPageDeleted  = "content_page.deleted"
	TypeContentPageRestored = "content_page.restored"
	TypeEventDeleted        = "event.deleted"
	TypeEventRestored       = "event.restored"
	TypeActivityDeleted     = "activity.deleted"
	TypeActivityRestored    = "activity.restored"
	TypeRSVPCreated         = "rsvp.created"
	TypeRSVPUpdated         = "rsvp.updated"
	TypeRSVPDeleted         = "rsvp.deleted"
	TypeCapacityAlert       = "capacity.alert"
)

// Event is the JSON envelope written to the broker.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	EntityType string          `json:"entityType"`
	EntityID   uuid.UUID       `json:"entityId"`
	OccurredAt time.Time       `json:"occurredAt"`
	ActorID    *string         `json:"actorId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// New builds an event, encoding payload as JSON. A payload that cannot be encoded is dropped.
func New(eventType, entityType string, entityID uuid.UUID, at time.Time, actor *string, payload any) Event {
	evt := Event{
		ID:         uuid.New(),
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		OccurredAt: at.UTC(),
		ActorID:    actor,
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			evt.Payload = raw
		}
	}
	return evt
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// BestEffort wraps a publisher so failures are logged instead of returned.
type BestEffort struct {
	next   Publisher
	logger *zap.Logger
}

func NewBestEffort(next Publisher, logger *zap.Logger) *BestEffort {
	if next == nil {
		next = Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestEffort{next: next, logger: logger}
}

// Publish never returns an error.
func (b *BestEffort) Publish(ctx context.Context, evt Event) error {
	if err := b.next.Publish(ctx, evt); err != nil {
		b.logger.Warn("publish domain event failed",
			zap.String("event_type", evt.Type),
			zap.String("entity_id", evt.EntityID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (b *BestEffort) Close() error {
	return b.next.Close()
}
