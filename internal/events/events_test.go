package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

func TestBaseEvent_Implementation(t *testing.T) {
	meta := Metadata{Source: "test", ProtocolVersion: "1.6"}
	event := NewBaseEvent(EventTypeMessageFreed, "CP001", EventSeverityInfo, meta)

	assert.NotEmpty(t, event.GetID())
	assert.Equal(t, EventTypeMessageFreed, event.GetType())
	assert.Equal(t, "CP001", event.GetChargePointID())
	assert.Equal(t, EventSeverityInfo, event.GetSeverity())
	assert.Equal(t, meta, event.GetMetadata())
	assert.WithinDuration(t, time.Now(), event.GetTimestamp(), time.Second)
}

func TestMessageOutgoingEvent(t *testing.T) {
	factory := NewEventFactory()
	event := factory.CreateMessageOutgoingEvent("CP001", "id-1", ocpp16.RoleCall, ocpp16.MessageHeartbeat, 1, Metadata{Source: "test"})

	assert.Equal(t, EventTypeMessageOutgoing, event.GetType())
	assert.Equal(t, "CP001", event.GetChargePointID())

	b, err := event.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message_id":"id-1"`)
}

func TestMessageIncomingEvent_PayloadOpaque(t *testing.T) {
	factory := NewEventFactory()
	payload := []byte(`{"status":"Accepted"}`)
	event := factory.CreateMessageIncomingEvent("CP001", "id-2", ocpp16.RoleCallResult, ocpp16.MessageBootNotification, payload, Metadata{Source: "test"})

	b, err := event.ToJSON()
	require.NoError(t, err)
	// The event carries the payload verbatim; it never decodes it.
	assert.Contains(t, string(b), `"status":"Accepted"`)
}

func TestMessageFreedEvent(t *testing.T) {
	factory := NewEventFactory()
	event := factory.CreateMessageFreedEvent("CP001", "id-3", ocpp16.RoleCall, ocpp16.MessageDataTransfer, 2, Metadata{Source: "test"})

	payload, ok := event.GetPayload().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2, payload["attempts"])
}

func TestProtocolErrorEvent(t *testing.T) {
	factory := NewEventFactory()
	event := factory.CreateProtocolErrorEvent("CP001", "recv failed", Metadata{Source: "test"})

	assert.Equal(t, EventSeverityError, event.GetSeverity())
	assert.Equal(t, "recv failed", event.GetPayload().(map[string]interface{})["description"])
}
