package events

import (
	"context"
	"encoding/json"
	"time"
)

// EventType определяет тип события
type EventType string

const (
	EventProposalCreated       EventType = "proposal.created"
	EventProposalStatusChanged EventType = "proposal.status_changed"
	EventProposalDeleted       EventType = "proposal.deleted"
)

// Event представляет структуру уведомления для пользователя
type Event struct {
	Type       EventType       `json:"type"`
	UserID     string          `json:"user_id"`
	ProposalID string          `json:"proposal_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Publisher доставляет события пользователям
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
