package model

import (
	"time"
)

// Event types pushed to WebSocket subscribers.
const (
	EventTypeCommitted = "state_committed"
	EventTypeDeleted   = "state_deleted"
	EventTypePing      = "ping"
	EventTypePong      = "pong"
	EventTypeError     = "error"
)

// StateEvent describes a change to a state container.
type StateEvent struct {
	Type      string    `json:"type"`
	StateID   string    `json:"state_id,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Version   int64     `json:"version,omitempty"`
	Value     any       `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCommittedEvent creates an event for a mutation committed to s.
func NewCommittedEvent(s *State, operation string) StateEvent {
	return StateEvent{
		Type:      EventTypeCommitted,
		StateID:   s.ID,
		Operation: operation,
		Version:   s.Version,
		Value:     s.Value,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeletedEvent creates an event for a removed state container.
func NewDeletedEvent(id string) StateEvent {
	return StateEvent{
		Type:      EventTypeDeleted,
		StateID:   id,
		Timestamp: time.Now().UTC(),
	}
}
