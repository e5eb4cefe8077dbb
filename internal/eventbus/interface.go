// Package eventbus fans the engine's lifecycle events out onto Kafka
// and, in the other direction, turns remote-control commands consumed
// from Kafka into calls the host makes back into the engine. It never
// imports internal/engine directly — cmd/chargepointd wires a
// CommandHandler closure that does, keeping this package's Kafka
// plumbing testable without a running engine.
package eventbus

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/libmcu/ocpp-session-core/internal/events"
)

// EventProducer publishes a single domain event asynchronously.
type EventProducer interface {
	PublishEvent(event events.Event) error
	Close() error
}

// Command is a remote-control instruction or response delivered over
// the command topic: either a fresh outbound CALL the host should
// push through the engine, or a response payload to forward via
// push_response for an inbound CALL the central system sent, identified
// by MessageID.
type Command struct {
	ChargePointID string `json:"charge_point_id"`
	Action        string `json:"action"`
	MessageID     string `json:"message_id,omitempty"`
	Payload       []byte `json:"payload"`
	IsResponse    bool   `json:"is_response,omitempty"`
	IsError       bool   `json:"is_error,omitempty"`
}

// CommandHandler processes one decoded Command. Handlers are expected
// not to block the consumer loop for long; slow work should be handed
// off to a worker.
type CommandHandler func(cmd *Command)

// SaramaConsumerGroup is the subset of sarama.ConsumerGroup the
// consumer depends on, narrowed so tests can supply a fake instead of
// a live broker connection.
type SaramaConsumerGroup interface {
	Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error
	Errors() <-chan error
	Close() error
}
