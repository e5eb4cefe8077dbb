package ocpp16

import (
	"encoding/json"
	"fmt"
)

// SerializationError wraps a framing or payload encoding failure with
// the offending raw frame, following the teacher's
// internal/domain/serialization error shape.
type SerializationError struct {
	Reason string
	Raw    string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("ocpp16: %s: %s", e.Reason, e.Raw)
}

// EncodeCall renders a CALL frame: [2, uniqueId, action, payload].
func EncodeCall(id, action string, payload interface{}) ([]byte, error) {
	frame := []interface{}{int(WireCall), id, action, payload}
	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("ocpp16: encode call: %w", err)
	}
	return b, nil
}

// EncodeCallResult renders a CALLRESULT frame: [3, uniqueId, payload].
func EncodeCallResult(id string, payload interface{}) ([]byte, error) {
	frame := []interface{}{int(WireCallResult), id, payload}
	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("ocpp16: encode callresult: %w", err)
	}
	return b, nil
}

// CallError is the structured body of a CALLERROR frame.
type CallError struct {
	ID              string
	ErrorCode       string
	ErrorDescription string
	ErrorDetails    interface{}
}

// EncodeCallError renders a CALLERROR frame:
// [4, uniqueId, errorCode, errorDescription, errorDetails].
func EncodeCallError(e CallError) ([]byte, error) {
	details := e.ErrorDetails
	if details == nil {
		details = map[string]interface{}{}
	}
	frame := []interface{}{int(WireCallError), e.ID, e.ErrorCode, e.ErrorDescription, details}
	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("ocpp16: encode callerror: %w", err)
	}
	return b, nil
}

// DecodedFrame is the generic shape every inbound frame decodes into
// before the caller dispatches on Role. Payload is left as raw JSON so
// the caller can unmarshal it into the action-specific struct once the
// action/role is known.
type DecodedFrame struct {
	Role             Role
	ID               string
	Action           string
	Payload          json.RawMessage
	ErrorCode        string
	ErrorDescription string
	ErrorDetails     json.RawMessage
}

// Decode parses a raw OCPP-J frame and classifies its role from the
// leading message-type-id and element count, following
// deserializeJSON's array-length dispatch in the teacher's serializer.
func Decode(raw []byte) (DecodedFrame, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return DecodedFrame{}, &SerializationError{Reason: "not a json array", Raw: string(raw)}
	}
	if len(elems) < 3 {
		return DecodedFrame{}, &SerializationError{Reason: "frame too short", Raw: string(raw)}
	}

	var code int
	if err := json.Unmarshal(elems[0], &code); err != nil {
		return DecodedFrame{}, &SerializationError{Reason: "missing messageTypeId", Raw: string(raw)}
	}

	var id string
	if err := json.Unmarshal(elems[1], &id); err != nil {
		return DecodedFrame{}, &SerializationError{Reason: "missing messageId", Raw: string(raw)}
	}

	switch WireCode(code) {
	case WireCall:
		if len(elems) != 4 {
			return DecodedFrame{}, &SerializationError{Reason: "call frame must have 4 elements", Raw: string(raw)}
		}
		var action string
		if err := json.Unmarshal(elems[2], &action); err != nil {
			return DecodedFrame{}, &SerializationError{Reason: "missing action", Raw: string(raw)}
		}
		return DecodedFrame{Role: RoleCall, ID: id, Action: action, Payload: elems[3]}, nil

	case WireCallResult:
		if len(elems) != 3 {
			return DecodedFrame{}, &SerializationError{Reason: "callresult frame must have 3 elements", Raw: string(raw)}
		}
		return DecodedFrame{Role: RoleCallResult, ID: id, Payload: elems[2]}, nil

	case WireCallError:
		if len(elems) < 4 {
			return DecodedFrame{}, &SerializationError{Reason: "callerror frame must have at least 4 elements", Raw: string(raw)}
		}
		var errCode, errDesc string
		if err := json.Unmarshal(elems[2], &errCode); err != nil {
			return DecodedFrame{}, &SerializationError{Reason: "missing errorCode", Raw: string(raw)}
		}
		if err := json.Unmarshal(elems[3], &errDesc); err != nil {
			return DecodedFrame{}, &SerializationError{Reason: "missing errorDescription", Raw: string(raw)}
		}
		df := DecodedFrame{Role: RoleCallError, ID: id, ErrorCode: errCode, ErrorDescription: errDesc}
		if len(elems) >= 5 {
			df.ErrorDetails = elems[4]
		}
		return df, nil

	default:
		return DecodedFrame{}, &SerializationError{Reason: fmt.Sprintf("unknown messageTypeId %d", code), Raw: string(raw)}
	}
}

// DecodePayload unmarshals a decoded frame's payload into v.
func DecodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("ocpp16: decode payload: %w", err)
	}
	return nil
}
