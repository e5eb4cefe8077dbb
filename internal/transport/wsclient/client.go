package wsclient

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/libmcu/ocpp-session-core/internal/engine"
	"github.com/libmcu/ocpp-session-core/internal/logger"
	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
	"github.com/libmcu/ocpp-session-core/internal/validation"
)

// Client is a single outbound WebSocket connection implementing
// engine.Transport. Reads happen on a background goroutine into a
// buffered channel so Recv can stay the non-blocking poll the engine
// expects; writes go straight out on the calling goroutine, guarded by
// a mutex the way the teacher's sendRoutine serializes writes through
// one channel per connection.
type Client struct {
	conn *websocket.Conn
	cfg  Config
	log  *logger.Logger
	v    *validation.Validator

	writeMu sync.Mutex

	recvCh chan engine.InboundFrame
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// Dial opens the connection, negotiates the OCPP-J subprotocol and
// starts the receive and ping/keepalive loops.
func Dial(cfg Config, log *logger.Logger) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Subprotocols:     []string{Subprotocol},
	}

	conn, resp, err := dialer.Dial(cfg.URL, nil)
	if err != nil {
		detail := ""
		if resp != nil {
			detail = fmt.Sprintf(" (http status %d)", resp.StatusCode)
		}
		return nil, fmt.Errorf("wsclient: dial %s%s: %w", cfg.URL, detail, err)
	}

	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	c := &Client{
		conn:   conn,
		cfg:    cfg,
		log:    log,
		v:      validation.New(),
		recvCh: make(chan engine.InboundFrame, 256),
		done:   make(chan struct{}),
	}

	c.wg.Add(2)
	go c.receiveLoop()
	go c.pingLoop()

	return c, nil
}

// Send implements engine.Transport. The wire shape is chosen from
// msg.Role; for RoleCallError, msg.Payload is expected to already hold
// the JSON-encoded ocpp16.CallError (minus ID, which comes from
// msg.ID) — the engine itself never interprets it, this is purely a
// convention between the host that calls PushResponse and this
// transport.
func (c *Client) Send(msg engine.Message) error {
	data, err := c.encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("wsclient: send %s %s: %w", msg.Role, ocpp16.StringifyType(msg.Type), err)
	}
	return nil
}

func (c *Client) encode(msg engine.Message) ([]byte, error) {
	action := ""
	if msg.Role == ocpp16.RoleCall {
		action = ocpp16.StringifyType(msg.Type)
	}
	if err := c.v.ValidateFrame(int(wireCodeFor(msg.Role)), msg.ID, action); err != nil {
		return nil, fmt.Errorf("wsclient: outgoing frame for %s failed validation: %w", msg.ID, err)
	}

	switch msg.Role {
	case ocpp16.RoleCall:
		var payload json.RawMessage = msg.Payload
		return ocpp16.EncodeCall(msg.ID, action, payload)

	case ocpp16.RoleCallResult:
		var payload json.RawMessage = msg.Payload
		return ocpp16.EncodeCallResult(msg.ID, payload)

	case ocpp16.RoleCallError:
		var body ocpp16.CallError
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &body); err != nil {
				return nil, fmt.Errorf("wsclient: decode callerror payload for %s: %w", msg.ID, err)
			}
		}
		body.ID = msg.ID
		return ocpp16.EncodeCallError(body)

	default:
		return nil, fmt.Errorf("wsclient: cannot send message with role %s", msg.Role)
	}
}

// wireCodeFor maps a slot's role back to the OCPP-J messageTypeId it
// will be framed with, the inverse of the switch ocpp16.Decode runs.
func wireCodeFor(role ocpp16.Role) ocpp16.WireCode {
	switch role {
	case ocpp16.RoleCall:
		return ocpp16.WireCall
	case ocpp16.RoleCallResult:
		return ocpp16.WireCallResult
	case ocpp16.RoleCallError:
		return ocpp16.WireCallError
	default:
		return 0
	}
}

// Recv implements engine.Transport. It never blocks: if no frame has
// arrived since the last call, it returns engine.ErrNoMessage.
func (c *Client) Recv() (engine.InboundFrame, error) {
	select {
	case frame := <-c.recvCh:
		return frame, nil
	default:
		return engine.InboundFrame{}, engine.ErrNoMessage
	}
}

func (c *Client) receiveLoop() {
	defer c.wg.Done()
	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.log != nil && !isExpectedClose(err) {
				c.log.Errorf("wsclient: read from %s: %v", c.cfg.ChargePointID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		frame, err := c.decode(raw)
		if err != nil {
			if c.log != nil {
				c.log.Warnf("wsclient: malformed frame from %s: %v", c.cfg.ChargePointID, err)
			}
			continue
		}

		select {
		case c.recvCh <- frame:
		case <-c.done:
			return
		}
	}
}

func (c *Client) decode(raw []byte) (engine.InboundFrame, error) {
	df, err := ocpp16.Decode(raw)
	if err != nil {
		return engine.InboundFrame{}, err
	}
	if err := c.v.ValidateFrame(int(wireCodeFor(df.Role)), df.ID, df.Action); err != nil {
		return engine.InboundFrame{}, fmt.Errorf("wsclient: inbound frame failed validation: %w", err)
	}

	frame := engine.InboundFrame{
		Message: engine.Message{
			ID:      df.ID,
			Role:    df.Role,
			Payload: df.Payload,
		},
		ErrorCode:        df.ErrorCode,
		ErrorDescription: df.ErrorDescription,
	}
	if df.Role == ocpp16.RoleCall {
		frame.Type = ocpp16.TypeFromString(df.Action)
	}
	return frame, nil
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
	)
}

// pingLoop is the teacher's GlobalPingService narrowed from "many
// connections fanned out from one ticker" to "one connection, its own
// ticker" — there is no sync.Map of connections to range over because
// there is only ever one.
func (c *Client) pingLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				if c.log != nil {
					c.log.Warnf("wsclient: ping to %s failed: %v", c.cfg.ChargePointID, err)
				}
				return
			}
		}
	}
}

// Close closes the connection and stops the background loops. It is
// safe to call more than once.
func (c *Client) Close() error {
	var closeErr error
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		closeErr = c.conn.Close()
	})
	c.wg.Wait()
	return closeErr
}
