package engine

import "github.com/libmcu/ocpp-session-core/internal/ocpp16"

// Event identifies what happened to a Message passed to an
// EventHandler. The numeric values match the original ocpp_event
// codes so logs and metrics dashboards built against the original
// protocol stay meaningful.
type Event int

const (
	// EventIncoming fires after a successful receive, whether the
	// frame was an inbound CALL or a response matched against wait.
	EventIncoming Event = 0
	// EventOutgoing fires once per transmit attempt, before the
	// transport call, regardless of whether that attempt ultimately
	// succeeds.
	EventOutgoing Event = 1
	// EventFree fires immediately before a slot is zeroed, regardless
	// of why it left the system (delivered, dropped, evicted).
	EventFree Event = 2
)

// Message is the host-facing, copy-safe view of a Slot. The engine
// never hands out a *Slot; by the time a callback runs the underlying
// slot may already be back in the free pool.
type Message struct {
	ID       string
	Role     ocpp16.Role
	Type     ocpp16.MessageType
	Payload  []byte
	Attempts int
}

func toMessage(s *Slot) Message {
	return Message{
		ID:       s.id,
		Role:     s.role,
		Type:     s.msgType,
		Payload:  s.payload,
		Attempts: s.attempts,
	}
}

// EventHandler receives every lifecycle transition the engine wants
// the host to know about. err is non-nil only for a failed receive
// that the engine could not otherwise classify (negative error codes
// in the original's vocabulary); evt is meaningless in that case and
// the caller should inspect err instead.
type EventHandler func(evt Event, msg Message, err error)
