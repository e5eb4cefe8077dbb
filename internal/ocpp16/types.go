// Package ocpp16 carries the closed OCPP 1.6 message vocabulary: the
// message type enum the engine classifies on, the JSON action names used
// on the wire, and the request/response payload shapes a host may want to
// validate before handing bytes to the engine. The engine itself never
// looks inside a payload; this package is for hosts and transports that
// do.
package ocpp16

import "time"

// MessageType enumerates every OCPP 1.6 message the session core can
// carry. Unlike the wire-level Action string, this is a closed, ordered
// set so the engine can classify by simple comparison instead of string
// matching.
type MessageType int

const (
	MessageUnknown MessageType = iota

	MessageAuthorize
	MessageBootNotification
	MessageChangeAvailability
	MessageChangeConfiguration
	MessageClearCache
	MessageDataTransfer
	MessageGetConfiguration
	MessageHeartbeat
	MessageMeterValues
	MessageRemoteStartTransaction
	MessageRemoteStopTransaction
	MessageReset
	MessageStartTransaction
	MessageStatusNotification
	MessageStopTransaction
	MessageUnlockConnector

	// Firmware Management Profile
	MessageGetDiagnostics
	MessageDiagnosticsStatusNotification
	MessageFirmwareStatusNotification
	MessageUpdateFirmware

	// Local Auth List Management Profile
	MessageGetLocalListVersion
	MessageSendLocalList

	// Reservation Profile
	MessageCancelReservation
	MessageReserveNow

	// Smart Charging Profile
	MessageClearChargingProfile
	MessageGetCompositeSchedule
	MessageSetChargingProfile

	// Remote Trigger Profile
	MessageTriggerMessage

	// Security Profile (OCPP 1.6 security whitepaper extensions)
	MessageCertificateSigned
	MessageDeleteCertificate
	MessageExtendedTriggerMessage
	MessageGetInstalledCertificateIds
	MessageGetLog
	MessageInstallCertificate
	MessageLogStatusNotification
	MessageSecurityEventNotification
	MessageSignCertificate
	MessageSignedFirmwareStatusNotification
	MessageSignedUpdateFirmware

	messageTypeCount
)

// Role identifies the direction/kind of a queued slot. NONE marks a free
// slot; ALLOC is a slot reserved but not yet filled in by push_*.
type Role int

const (
	RoleNone Role = iota
	RoleAlloc
	RoleCall
	RoleCallResult
	RoleCallError
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "NONE"
	case RoleAlloc:
		return "ALLOC"
	case RoleCall:
		return "CALL"
	case RoleCallResult:
		return "CALLRESULT"
	case RoleCallError:
		return "CALLERROR"
	default:
		return "UNKNOWN"
	}
}

// WireCode is the OCPP-J message-type-id carried in every frame.
type WireCode int

const (
	WireCall       WireCode = 2
	WireCallResult WireCode = 3
	WireCallError  WireCode = 4
)

var typeNames = [messageTypeCount]string{
	MessageAuthorize:                         "Authorize",
	MessageBootNotification:                  "BootNotification",
	MessageChangeAvailability:                "ChangeAvailability",
	MessageChangeConfiguration:                "ChangeConfiguration",
	MessageClearCache:                        "ClearCache",
	MessageDataTransfer:                      "DataTransfer",
	MessageGetConfiguration:                  "GetConfiguration",
	MessageHeartbeat:                         "Heartbeat",
	MessageMeterValues:                       "MeterValues",
	MessageRemoteStartTransaction:            "RemoteStartTransaction",
	MessageRemoteStopTransaction:             "RemoteStopTransaction",
	MessageReset:                             "Reset",
	MessageStartTransaction:                  "StartTransaction",
	MessageStatusNotification:                "StatusNotification",
	MessageStopTransaction:                   "StopTransaction",
	MessageUnlockConnector:                   "UnlockConnector",
	MessageGetDiagnostics:                    "GetDiagnostics",
	MessageDiagnosticsStatusNotification:      "DiagnosticsStatusNotification",
	MessageFirmwareStatusNotification:         "FirmwareStatusNotification",
	MessageUpdateFirmware:                    "UpdateFirmware",
	MessageGetLocalListVersion:                "GetLocalListVersion",
	MessageSendLocalList:                     "SendLocalList",
	MessageCancelReservation:                 "CancelReservation",
	MessageReserveNow:                        "ReserveNow",
	MessageClearChargingProfile:               "ClearChargingProfile",
	MessageGetCompositeSchedule:               "GetCompositeSchedule",
	MessageSetChargingProfile:                "SetChargingProfile",
	MessageTriggerMessage:                    "TriggerMessage",
	MessageCertificateSigned:                 "CertificateSigned",
	MessageDeleteCertificate:                 "DeleteCertificate",
	MessageExtendedTriggerMessage:             "ExtendedTriggerMessage",
	MessageGetInstalledCertificateIds:         "GetInstalledCertificateIds",
	MessageGetLog:                            "GetLog",
	MessageInstallCertificate:                "InstallCertificate",
	MessageLogStatusNotification:              "LogStatusNotification",
	MessageSecurityEventNotification:          "SecurityEventNotification",
	MessageSignCertificate:                   "SignCertificate",
	MessageSignedFirmwareStatusNotification:    "SignedFirmwareStatusNotification",
	MessageSignedUpdateFirmware:               "SignedUpdateFirmware",
}

// StringifyType renders a MessageType as its wire action name, or
// "UnknownMessage" for MessageUnknown / out-of-range values. Grounded on
// ocpp_stringify_type in the original implementation.
func StringifyType(t MessageType) string {
	if t <= MessageUnknown || t >= messageTypeCount {
		return "UnknownMessage"
	}
	name := typeNames[t]
	if name == "" {
		return "UnknownMessage"
	}
	return name
}

// TypeFromString is the inverse of StringifyType; it returns
// MessageUnknown if typestr is not a recognized action name.
func TypeFromString(typestr string) MessageType {
	for t := MessageType(1); t < messageTypeCount; t++ {
		if typeNames[t] == typestr {
			return t
		}
	}
	return MessageUnknown
}

// RegistrationStatus is the BootNotification.conf acceptance status.
type RegistrationStatus string

const (
	RegistrationAccepted RegistrationStatus = "Accepted"
	RegistrationPending  RegistrationStatus = "Pending"
	RegistrationRejected RegistrationStatus = "Rejected"
)

// AuthorizationStatus is the status carried in an IdTagInfo.
type AuthorizationStatus string

const (
	AuthorizationAccepted     AuthorizationStatus = "Accepted"
	AuthorizationBlocked      AuthorizationStatus = "Blocked"
	AuthorizationExpired      AuthorizationStatus = "Expired"
	AuthorizationInvalid      AuthorizationStatus = "Invalid"
	AuthorizationConcurrentTx AuthorizationStatus = "ConcurrentTx"
)

// ChargePointStatus is the StatusNotification connector status.
type ChargePointStatus string

const (
	StatusAvailable     ChargePointStatus = "Available"
	StatusPreparing     ChargePointStatus = "Preparing"
	StatusCharging      ChargePointStatus = "Charging"
	StatusSuspendedEVSE ChargePointStatus = "SuspendedEVSE"
	StatusSuspendedEV   ChargePointStatus = "SuspendedEV"
	StatusFinishing     ChargePointStatus = "Finishing"
	StatusReserved      ChargePointStatus = "Reserved"
	StatusUnavailable   ChargePointStatus = "Unavailable"
	StatusFaulted       ChargePointStatus = "Faulted"
)

// DateTime round-trips through RFC3339, matching the OCPP wire format.
type DateTime struct {
	time.Time
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.Time.UTC().Format(time.RFC3339) + `"`), nil
}

func (dt *DateTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	dt.Time = t
	return nil
}

// IdTagInfo accompanies Authorize/StartTransaction/StopTransaction
// responses.
type IdTagInfo struct {
	ExpiryDate  *DateTime           `json:"expiryDate,omitempty"`
	ParentIdTag *string             `json:"parentIdTag,omitempty" validate:"omitempty,max=20"`
	Status      AuthorizationStatus `json:"status" validate:"required"`
}

// MeterValue is one sampled reading bundle.
type MeterValue struct {
	Timestamp    DateTime       `json:"timestamp" validate:"required"`
	SampledValue []SampledValue `json:"sampledValue" validate:"required,min=1"`
}

// SampledValue is a single measurand sample.
type SampledValue struct {
	Value     string  `json:"value" validate:"required"`
	Context   *string `json:"context,omitempty"`
	Format    *string `json:"format,omitempty"`
	Measurand *string `json:"measurand,omitempty"`
	Phase     *string `json:"phase,omitempty"`
	Location  *string `json:"location,omitempty"`
	Unit      *string `json:"unit,omitempty"`
}
