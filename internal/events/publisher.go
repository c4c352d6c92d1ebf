package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/domcom/access-service/internal/models"
)

// Event types emitted by the admin mutation surface.
const (
	EventRoleUpdated   = "role.updated"
	EventUserBlocked   = "user.blocked"
	EventUserUnblocked = "user.unblocked"
)

const (
	eventSource  = "access-service"
	eventVersion = "1.0"
)

// Event is the envelope published to the notification transport. Delivery
// channels (email/Telegram/in-app) are the consumer's concern.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RoleUpdatedEvent notifies that a user's role set changed.
type RoleUpdatedEvent struct {
	UserID       string        `json:"user_id"`
	AddedRoles   []models.Role `json:"added_roles"`
	RemovedRoles []models.Role `json:"removed_roles"`
	ActorID      string        `json:"actor_id"`
}

// UserBlockedEvent notifies that a user was blocked.
type UserBlockedEvent struct {
	UserID        string               `json:"user_id"`
	Category      models.BlockCategory `json:"category"`
	ViolatedRules []models.RuleCode    `json:"violated_rules,omitempty"`
	Reason        string               `json:"reason,omitempty"`
	Message       string               `json:"message"`
	ActorID       string               `json:"actor_id"`
}

// UserUnblockedEvent notifies that a user's block was lifted.
type UserUnblockedEvent struct {
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

// EventPublisher is the outbound notification boundary. Publishing is
// best-effort: callers never propagate a publish failure to their own caller.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NewEvent builds an envelope with a fresh ID and timestamp.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
