package events

import (
	"github.com/libmcu/ocpp-session-core/internal/engine"
)

// Translator turns the engine's EventHandler callback arguments into
// typed domain events ready for the event bus, stamping every event
// with the charge point id and a fixed protocol-version tag the
// engine itself has no notion of.
type Translator struct {
	chargePointID string
	factory       *EventFactory
}

// NewTranslator builds a Translator bound to one charge point id.
func NewTranslator(chargePointID string) *Translator {
	return &Translator{chargePointID: chargePointID, factory: NewEventFactory()}
}

func (t *Translator) metadata() Metadata {
	return Metadata{Source: "ocpp-session-core", ProtocolVersion: "1.6"}
}

// Translate converts one EventHandler invocation into the matching
// domain event. Any non-nil err (step.go pairs its Event(-1) sentinel
// with one) becomes a ProtocolErrorEvent; an event code it does not
// know, arriving without an error, yields nil.
func (t *Translator) Translate(evt engine.Event, msg engine.Message, err error) Event {
	if err != nil {
		return t.factory.CreateProtocolErrorEvent(t.chargePointID, err.Error(), t.metadata())
	}

	switch evt {
	case engine.EventOutgoing:
		return t.factory.CreateMessageOutgoingEvent(t.chargePointID, msg.ID, msg.Role, msg.Type, msg.Attempts, t.metadata())
	case engine.EventIncoming:
		return t.factory.CreateMessageIncomingEvent(t.chargePointID, msg.ID, msg.Role, msg.Type, msg.Payload, t.metadata())
	case engine.EventFree:
		return t.factory.CreateMessageFreedEvent(t.chargePointID, msg.ID, msg.Role, msg.Type, msg.Attempts, t.metadata())
	default:
		return nil
	}
}
