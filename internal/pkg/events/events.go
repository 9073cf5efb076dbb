// internal/pkg/events/events.go
package events

import (
	"context"
	"time"
)

// Type represents the security event types emitted by the session lifecycle.
type Type string

const (
	TypeSessionCreated     Type = "session:created"
	TypeSessionRevoked     Type = "session:revoked"
	TypeSessionsRevokedAll Type = "session:revoked_all"
	TypeSuspiciousLocation Type = "session:suspicious_location"
)

// Event is one structured security event.
type Event struct {
	Type      Type                   `json:"type"`
	AccountID int64                  `json:"account_id"`
	SessionID string                 `json:"session_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// New creates an event stamped with the current time.
func New(t Type, accountID int64, sessionID string, data map[string]interface{}) *Event {
	return &Event{
		Type:      t,
		AccountID: accountID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Sink consumes security events. Emission is fire-and-forget: implementations
// must never block the primary flow and never return an error to it.
type Sink interface {
	Emit(ctx context.Context, ev *Event)
}

// Multi fans an event out to several sinks.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev *Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}
