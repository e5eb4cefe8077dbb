// Package wsclient is the charge-point side of the wire: a single
// outbound WebSocket connection to the central system, implementing
// engine.Transport over OCPP-J's CALL/CALLRESULT/CALLERROR JSON array
// framing. Unlike the teacher's transport/websocket, which is an
// inbound server fanning one Manager out across many connections,
// there is exactly one connection here because a charge point dials
// exactly one central system.
package wsclient

import "time"

// Subprotocol is the OCPP-J WebSocket subprotocol name negotiated at
// handshake time.
const Subprotocol = "ocpp1.6"

// Config describes the outbound dial and the keepalive cadence kept
// on top of it.
type Config struct {
	URL              string
	ChargePointID    string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
}

// DefaultConfig mirrors the teacher's transport/websocket.DefaultConfig
// cadence, narrowed to the one-connection case.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   1 << 20,
	}
}
