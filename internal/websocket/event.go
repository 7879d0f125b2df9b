package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeDeleted EventType = "deleted"
	EventTypeResult  EventType = "result"
	EventTypeError   EventType = "error"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeQuote      EntityType = "quote"
	EntityTypeCalculator EntityType = "calculator"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, requestId, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`                // Combined type e.g. "quote.created"
	Entity    EntityType  `json:"entity"`              // Entity type e.g. "quote"
	RequestID string      `json:"requestId,omitempty"` // Echoed from the calculator request it answers
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// QuoteCreated creates a quote.created event
func QuoteCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeQuote, payload)
}

// QuoteDeleted creates a quote.deleted event
func QuoteDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeQuote, payload)
}

// CalculatorResult creates a calculator.result reply to a live calculator request
func CalculatorResult(requestID string, payload interface{}) Event {
	evt := NewEvent(EventTypeResult, EntityTypeCalculator, payload)
	evt.RequestID = requestID
	return evt
}

// CalculatorError creates a calculator.error reply for an unreadable calculator request
func CalculatorError(requestID string, message string) Event {
	evt := NewEvent(EventTypeError, EntityTypeCalculator, map[string]string{"message": message})
	evt.RequestID = requestID
	return evt
}
