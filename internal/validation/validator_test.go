package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

func TestValidateStruct_BootNotification(t *testing.T) {
	v := New()

	ok := ocpp16.BootNotificationRequest{ChargePointVendor: "Acme", ChargePointModel: "X1"}
	require.NoError(t, v.ValidateStruct(&ok))

	bad := ocpp16.BootNotificationRequest{ChargePointModel: "X1"}
	err := v.ValidateStruct(&bad)
	require.Error(t, err)

	ferrs, ok2 := err.(FieldErrors)
	require.True(t, ok2)
	require.Len(t, ferrs, 1)
	assert.Equal(t, "ChargePointVendor", ferrs[0].Field)
	assert.Equal(t, "required", ferrs[0].Tag)
}

func TestValidateFrame(t *testing.T) {
	v := New()

	require.NoError(t, v.ValidateFrame(2, "msg-1", "Heartbeat"))
	require.NoError(t, v.ValidateFrame(3, "msg-1", ""))

	assert.Error(t, v.ValidateFrame(5, "msg-1", ""), "wireCode outside 2..4 must fail")
	assert.Error(t, v.ValidateFrame(2, "", "Heartbeat"), "empty messageId must fail")
	assert.Error(t, v.ValidateFrame(2, "msg-1", ""), "Call frame without action must fail")

	longID := make([]byte, 37)
	for i := range longID {
		longID[i] = 'a'
	}
	assert.Error(t, v.ValidateFrame(3, string(longID), ""), "messageId over 36 chars must fail")
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{
		{Field: "A", Message: "A is required"},
		{Field: "B", Message: "B must not exceed 5 characters"},
	}
	assert.Equal(t, "A is required; B must not exceed 5 characters", errs.Error())
}
