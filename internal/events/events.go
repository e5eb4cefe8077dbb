// Package events models the lifecycle events the engine's Step raises
// into typed, JSON-serializable values suitable for publishing onto a
// message bus. It is the Go analogue of the gateway's domain/events
// package, narrowed to the message-slot vocabulary the engine
// actually has: no transaction, connector, or authorization business
// data crosses this boundary, because the core itself never decodes
// any of that.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

// Event is the common interface every typed event satisfies.
type Event interface {
	GetID() string
	GetType() EventType
	GetChargePointID() string
	GetTimestamp() time.Time
	GetSeverity() EventSeverity
	GetMetadata() Metadata
	GetPayload() interface{}
	ToJSON() ([]byte, error)
}

// BaseEvent carries the fields common to every event type.
type BaseEvent struct {
	ID            string        `json:"id"`
	Type          EventType     `json:"type"`
	ChargePointID string        `json:"charge_point_id"`
	Timestamp     time.Time     `json:"timestamp"`
	Severity      EventSeverity `json:"severity"`
	Metadata      Metadata      `json:"metadata"`
}

func (e *BaseEvent) GetID() string               { return e.ID }
func (e *BaseEvent) GetType() EventType           { return e.Type }
func (e *BaseEvent) GetChargePointID() string     { return e.ChargePointID }
func (e *BaseEvent) GetTimestamp() time.Time      { return e.Timestamp }
func (e *BaseEvent) GetSeverity() EventSeverity   { return e.Severity }
func (e *BaseEvent) GetMetadata() Metadata        { return e.Metadata }

// NewBaseEvent stamps a fresh id and timestamp, the way
// events.NewBaseEvent does for the gateway's business events.
func NewBaseEvent(t EventType, chargePointID string, severity EventSeverity, meta Metadata) *BaseEvent {
	return &BaseEvent{
		ID:            uuid.New().String(),
		Type:          t,
		ChargePointID: chargePointID,
		Timestamp:     time.Now().UTC(),
		Severity:      severity,
		Metadata:      meta,
	}
}

// MessageOutgoingEvent reports a single transmit attempt, win or
// lose; Attempts is the 1-based count including this attempt.
type MessageOutgoingEvent struct {
	*BaseEvent
	MessageID string             `json:"message_id"`
	Role      ocpp16.Role        `json:"role"`
	Type      ocpp16.MessageType `json:"message_type"`
	Attempts  int                `json:"attempts"`
}

func (e *MessageOutgoingEvent) GetPayload() interface{} {
	return map[string]interface{}{"message_id": e.MessageID, "role": e.Role, "type": e.Type, "attempts": e.Attempts}
}
func (e *MessageOutgoingEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// MessageIncomingEvent reports a received frame, either an inbound
// CALL or a response correlated against a pending request.
type MessageIncomingEvent struct {
	*BaseEvent
	MessageID string             `json:"message_id"`
	Role      ocpp16.Role        `json:"role"`
	Type      ocpp16.MessageType `json:"message_type"`
	Payload   json.RawMessage    `json:"payload,omitempty"`
}

func (e *MessageIncomingEvent) GetPayload() interface{} {
	return map[string]interface{}{"message_id": e.MessageID, "role": e.Role, "type": e.Type, "payload": e.Payload}
}
func (e *MessageIncomingEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// MessageFreedEvent reports a slot leaving circulation, regardless of
// whether it was delivered, dropped for exhausting its retry budget,
// or evicted to make room for a forced push.
type MessageFreedEvent struct {
	*BaseEvent
	MessageID string             `json:"message_id"`
	Role      ocpp16.Role        `json:"role"`
	Type      ocpp16.MessageType `json:"message_type"`
	Attempts  int                `json:"attempts"`
}

func (e *MessageFreedEvent) GetPayload() interface{} {
	return map[string]interface{}{"message_id": e.MessageID, "role": e.Role, "type": e.Type, "attempts": e.Attempts}
}
func (e *MessageFreedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// ProtocolErrorEvent reports a transport-level failure the engine
// could not otherwise classify: a receive error or an invalid wire
// role.
type ProtocolErrorEvent struct {
	*BaseEvent
	Description string `json:"description"`
}

func (e *ProtocolErrorEvent) GetPayload() interface{} {
	return map[string]interface{}{"description": e.Description}
}
func (e *ProtocolErrorEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// EventFactory centralizes event construction the way the gateway's
// EventFactory does, so every event gets a consistently stamped
// BaseEvent without each caller repeating NewBaseEvent.
type EventFactory struct{}

func NewEventFactory() *EventFactory { return &EventFactory{} }

func (f *EventFactory) CreateMessageOutgoingEvent(chargePointID, messageID string, role ocpp16.Role, t ocpp16.MessageType, attempts int, meta Metadata) *MessageOutgoingEvent {
	return &MessageOutgoingEvent{
		BaseEvent: NewBaseEvent(EventTypeMessageOutgoing, chargePointID, EventSeverityInfo, meta),
		MessageID: messageID,
		Role:      role,
		Type:      t,
		Attempts:  attempts,
	}
}

func (f *EventFactory) CreateMessageIncomingEvent(chargePointID, messageID string, role ocpp16.Role, t ocpp16.MessageType, payload []byte, meta Metadata) *MessageIncomingEvent {
	return &MessageIncomingEvent{
		BaseEvent: NewBaseEvent(EventTypeMessageIncoming, chargePointID, EventSeverityInfo, meta),
		MessageID: messageID,
		Role:      role,
		Type:      t,
		Payload:   json.RawMessage(payload),
	}
}

func (f *EventFactory) CreateMessageFreedEvent(chargePointID, messageID string, role ocpp16.Role, t ocpp16.MessageType, attempts int, meta Metadata) *MessageFreedEvent {
	return &MessageFreedEvent{
		BaseEvent: NewBaseEvent(EventTypeMessageFreed, chargePointID, EventSeverityInfo, meta),
		MessageID: messageID,
		Role:      role,
		Type:      t,
		Attempts:  attempts,
	}
}

func (f *EventFactory) CreateProtocolErrorEvent(chargePointID, description string, meta Metadata) *ProtocolErrorEvent {
	return &ProtocolErrorEvent{
		BaseEvent:   NewBaseEvent(EventTypeProtocolError, chargePointID, EventSeverityError, meta),
		Description: description,
	}
}
