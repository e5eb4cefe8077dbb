package ocpp16

// Envelope is the generic three/four-element OCPP-J frame shape used by
// the serializer. The engine never sees this directly — it only ever
// handles typed Slots with opaque payload bytes — but transports and
// hosts encode/decode against it.
type Envelope struct {
	WireCode  WireCode    `json:"messageTypeId"`
	ID        string      `json:"messageId"`
	Action    string      `json:"action,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// BootNotificationRequest is sent once at session start.
type BootNotificationRequest struct {
	ChargePointVendor       string  `json:"chargePointVendor" validate:"required,max=20"`
	ChargePointModel        string  `json:"chargePointModel" validate:"required,max=20"`
	ChargePointSerialNumber *string `json:"chargePointSerialNumber,omitempty" validate:"omitempty,max=25"`
	ChargeBoxSerialNumber   *string `json:"chargeBoxSerialNumber,omitempty" validate:"omitempty,max=25"`
	FirmwareVersion         *string `json:"firmwareVersion,omitempty" validate:"omitempty,max=50"`
	Iccid                   *string `json:"iccid,omitempty" validate:"omitempty,max=20"`
	Imsi                    *string `json:"imsi,omitempty" validate:"omitempty,max=20"`
	MeterType               *string `json:"meterType,omitempty" validate:"omitempty,max=25"`
	MeterSerialNumber       *string `json:"meterSerialNumber,omitempty" validate:"omitempty,max=25"`
}

// BootNotificationResponse carries the registration decision that gates
// heartbeats (see SPEC_FULL.md §4 boot-acceptance note).
type BootNotificationResponse struct {
	Status      RegistrationStatus `json:"status" validate:"required"`
	CurrentTime DateTime           `json:"currentTime" validate:"required"`
	Interval    int                `json:"interval" validate:"required,min=0"`
}

// HeartbeatRequest has no fields; Heartbeat.req is a no-op ping.
type HeartbeatRequest struct{}

// HeartbeatResponse carries the central system's clock.
type HeartbeatResponse struct {
	CurrentTime DateTime `json:"currentTime" validate:"required"`
}

// StatusNotificationRequest reports a connector's current state.
type StatusNotificationRequest struct {
	ConnectorId     int               `json:"connectorId" validate:"min=0"`
	ErrorCode       string            `json:"errorCode" validate:"required"`
	Info            *string           `json:"info,omitempty" validate:"omitempty,max=50"`
	Status          ChargePointStatus `json:"status" validate:"required"`
	Timestamp       *DateTime         `json:"timestamp,omitempty"`
	VendorId        *string           `json:"vendorId,omitempty" validate:"omitempty,max=255"`
	VendorErrorCode *string           `json:"vendorErrorCode,omitempty" validate:"omitempty,max=50"`
}

// StatusNotificationResponse is empty per the OCPP 1.6 spec.
type StatusNotificationResponse struct{}

// AuthorizeRequest asks whether an idTag may start a session.
type AuthorizeRequest struct {
	IdTag string `json:"idTag" validate:"required,max=20"`
}

// AuthorizeResponse carries the authorization decision.
type AuthorizeResponse struct {
	IdTagInfo IdTagInfo `json:"idTagInfo" validate:"required"`
}

// StartTransactionRequest opens a billing session.
type StartTransactionRequest struct {
	ConnectorId   int      `json:"connectorId" validate:"required,min=1"`
	IdTag         string   `json:"idTag" validate:"required,max=20"`
	MeterStart    int      `json:"meterStart" validate:"min=0"`
	ReservationId *int     `json:"reservationId,omitempty"`
	Timestamp     DateTime `json:"timestamp" validate:"required"`
}

// StartTransactionResponse carries the server-assigned transaction id.
type StartTransactionResponse struct {
	IdTagInfo     IdTagInfo `json:"idTagInfo" validate:"required"`
	TransactionId int       `json:"transactionId"`
}

// StopTransactionRequest closes a billing session.
type StopTransactionRequest struct {
	IdTag           *string      `json:"idTag,omitempty" validate:"omitempty,max=20"`
	MeterStop       int          `json:"meterStop" validate:"min=0"`
	Timestamp       DateTime     `json:"timestamp" validate:"required"`
	TransactionId   int          `json:"transactionId"`
	Reason          *string      `json:"reason,omitempty"`
	TransactionData []MeterValue `json:"transactionData,omitempty"`
}

// StopTransactionResponse optionally re-authorizes the idTag.
type StopTransactionResponse struct {
	IdTagInfo *IdTagInfo `json:"idTagInfo,omitempty"`
}

// MeterValuesRequest reports one or more metered samples.
type MeterValuesRequest struct {
	ConnectorId   int          `json:"connectorId" validate:"min=0"`
	TransactionId *int         `json:"transactionId,omitempty"`
	MeterValue    []MeterValue `json:"meterValue" validate:"required,min=1"`
}

// MeterValuesResponse is empty per the OCPP 1.6 spec.
type MeterValuesResponse struct{}

// DataTransferRequest is the vendor-extension escape hatch.
type DataTransferRequest struct {
	VendorId  string  `json:"vendorId" validate:"required,max=255"`
	MessageId *string `json:"messageId,omitempty" validate:"omitempty,max=50"`
	Data      *string `json:"data,omitempty"`
}

// DataTransferResponse carries the vendor's reply status.
type DataTransferResponse struct {
	Status string  `json:"status" validate:"required"`
	Data   *string `json:"data,omitempty"`
}

// RemoteStartTransactionRequest is a central-system-initiated start.
type RemoteStartTransactionRequest struct {
	ConnectorId *int   `json:"connectorId,omitempty"`
	IdTag       string `json:"idTag" validate:"required,max=20"`
}

// RemoteStartTransactionResponse acknowledges a remote start.
type RemoteStartTransactionResponse struct {
	Status string `json:"status" validate:"required"`
}

// RemoteStopTransactionRequest is a central-system-initiated stop.
type RemoteStopTransactionRequest struct {
	TransactionId int `json:"transactionId"`
}

// RemoteStopTransactionResponse acknowledges a remote stop.
type RemoteStopTransactionResponse struct {
	Status string `json:"status" validate:"required"`
}

// ResetRequest asks the charge point to reboot.
type ResetRequest struct {
	Type string `json:"type" validate:"required"`
}

// ResetResponse acknowledges a reset request.
type ResetResponse struct {
	Status string `json:"status" validate:"required"`
}

// ChangeAvailabilityRequest asks the charge point to change a
// connector's operative state.
type ChangeAvailabilityRequest struct {
	ConnectorId int    `json:"connectorId" validate:"min=0"`
	Type        string `json:"type" validate:"required"`
}

// ChangeAvailabilityResponse carries the acceptance decision.
type ChangeAvailabilityResponse struct {
	Status string `json:"status" validate:"required"`
}

// ChangeConfigurationRequest writes one configuration key.
type ChangeConfigurationRequest struct {
	Key   string `json:"key" validate:"required,max=50"`
	Value string `json:"value" validate:"max=500"`
}

// ChangeConfigurationResponse carries the write outcome.
type ChangeConfigurationResponse struct {
	Status string `json:"status" validate:"required"`
}

// GetConfigurationRequest asks for one or more configuration keys.
type GetConfigurationRequest struct {
	Key []string `json:"key,omitempty"`
}

// KeyValue is one configuration entry as reported to the server.
type KeyValue struct {
	Key      string  `json:"key" validate:"required,max=50"`
	Readonly bool    `json:"readonly"`
	Value    *string `json:"value,omitempty" validate:"omitempty,max=500"`
}

// GetConfigurationResponse lists known and unknown keys.
type GetConfigurationResponse struct {
	ConfigurationKey []KeyValue `json:"configurationKey,omitempty"`
	UnknownKey       []string   `json:"unknownKey,omitempty"`
}

// ClearCacheRequest asks the charge point to drop its local auth cache.
type ClearCacheRequest struct{}

// ClearCacheResponse carries the acceptance decision.
type ClearCacheResponse struct {
	Status string `json:"status" validate:"required"`
}

// UnlockConnectorRequest asks the charge point to release a connector.
type UnlockConnectorRequest struct {
	ConnectorId int `json:"connectorId" validate:"required,min=1"`
}

// UnlockConnectorResponse carries the unlock outcome.
type UnlockConnectorResponse struct {
	Status string `json:"status" validate:"required"`
}
