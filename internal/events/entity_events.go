package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "training-admin"
	EventVersion = "1.0"
)

// EventType is "<entity>.<action>", e.g. "agents.created".
type EventType string

func NewEventType(entity, action string) EventType {
	return EventType(fmt.Sprintf("%s.%s", entity, action))
}

// DomainEvent is the envelope of every published event
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EntityChangedEvent is published after every create, update and delete.
type EntityChangedEvent struct {
	Entity   string `json:"entity"`
	EntityID string `json:"entityId"`
	Action   string `json:"action"`
	ActorID  string `json:"actorId"`
}

func NewEntityChangedEvent(entity, entityID, action, actorID string) *DomainEvent {
	return &DomainEvent{
		ID:        uuid.NewString(),
		Type:      NewEventType(entity, action),
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		Data: EntityChangedEvent{
			Entity:   entity,
			EntityID: entityID,
			Action:   action,
			ActorID:  actorID,
		},
	}
}
