package engine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

// snapshotMagic and snapshotVersion identify the header every snapshot
// blob carries ahead of its body, so RestoreSnapshot can reject a
// blob from an incompatible build instead of misinterpreting it.
const (
	snapshotMagic   uint32 = 0x4f435050 // "OCPP"
	snapshotVersion uint16 = 1
)

type snapshotHeader struct {
	Magic   uint32
	Version uint16
	Length  uint32
}

const snapshotHeaderSize = 4 + 2 + 4

// listName identifies which of the three lists a snapshotted slot
// belonged to, so RestoreSnapshot can relink it into the right one.
type listName string

const (
	listReady listName = "ready"
	listWait  listName = "wait"
	listTimer listName = "timer"
)

type slotSnapshot struct {
	List     listName           `json:"list"`
	ID       string              `json:"id"`
	Role     ocpp16.Role         `json:"role"`
	Type     ocpp16.MessageType  `json:"type"`
	Payload  []byte              `json:"payload,omitempty"`
	Expiry   int64               `json:"expiry"`
	Attempts int                 `json:"attempts"`
}

type snapshotBody struct {
	PoolSize     int            `json:"poolSize"`
	TxTimeoutSec int64          `json:"txTimeoutSec"`
	TxRetries    int            `json:"txRetries"`
	TxTS         int64          `json:"txTs"`
	RxTS         int64          `json:"rxTs"`
	BootAccepted bool           `json:"bootAccepted"`
	Slots        []slotSnapshot `json:"slots"`
}

// ComputeSnapshotSize returns the byte length SaveSnapshot would
// currently produce, so a host can size its buffer ahead of time.
func (e *Engine) ComputeSnapshotSize() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	body, err := e.marshalBodyLocked()
	if err != nil {
		return 0, err
	}
	return snapshotHeaderSize + len(body), nil
}

// SaveSnapshot captures the full engine state — pool contents, all
// three lists, both timestamps and the boot-acceptance flag — into an
// opaque, versioned byte blob.
func (e *Engine) SaveSnapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	body, err := e.marshalBodyLocked()
	if err != nil {
		return nil, err
	}

	hdr := snapshotHeader{Magic: snapshotMagic, Version: snapshotVersion, Length: uint32(len(body))}
	buf := make([]byte, snapshotHeaderSize+len(body))
	binary.BigEndian.PutUint32(buf[0:4], hdr.Magic)
	binary.BigEndian.PutUint16(buf[4:6], hdr.Version)
	binary.BigEndian.PutUint32(buf[6:10], hdr.Length)
	copy(buf[snapshotHeaderSize:], body)
	return buf, nil
}

func (e *Engine) marshalBodyLocked() ([]byte, error) {
	body := snapshotBody{
		PoolSize:     len(e.pool.slots),
		TxTimeoutSec: e.txTimeoutSec,
		TxRetries:    e.txRetries,
		TxTS:         e.txTS,
		RxTS:         e.rxTS,
		BootAccepted: e.bootAccepted,
	}
	for _, pair := range []struct {
		l    *slotList
		name listName
	}{
		{e.ready, listReady},
		{e.wait, listWait},
		{e.timer, listTimer},
	} {
		pair.l.forEach(func(s *Slot) bool {
			body.Slots = append(body.Slots, slotSnapshot{
				List:     pair.name,
				ID:       s.id,
				Role:     s.role,
				Type:     s.msgType,
				Payload:  s.payload,
				Expiry:   s.expiry,
				Attempts: s.attempts,
			})
			return true
		})
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("engine: marshal snapshot: %w", err)
	}
	return b, nil
}

// RestoreSnapshot validates buf's header and, on success, replaces the
// engine's entire state with the snapshotted one — equivalent to Init
// followed by relinking every snapshotted slot into its original
// list. MESSAGE_FREE is not emitted for slots that existed before the
// call; restore is a wholesale state swap, not a sequence of drops.
func (e *Engine) RestoreSnapshot(buf []byte) error {
	if len(buf) < snapshotHeaderSize {
		return fmt.Errorf("engine: snapshot too short")
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	version := binary.BigEndian.Uint16(buf[4:6])
	length := binary.BigEndian.Uint32(buf[6:10])
	if magic != snapshotMagic {
		return fmt.Errorf("engine: snapshot magic mismatch")
	}
	if version != snapshotVersion {
		return fmt.Errorf("engine: snapshot version mismatch: got %d want %d", version, snapshotVersion)
	}
	body := buf[snapshotHeaderSize:]
	if uint32(len(body)) != length {
		return fmt.Errorf("engine: snapshot length mismatch: header says %d, got %d", length, len(body))
	}

	var decoded snapshotBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("engine: unmarshal snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	if decoded.PoolSize > 0 {
		e.pool = newPool(decoded.PoolSize)
	}
	e.txTimeoutSec = decoded.TxTimeoutSec
	e.txRetries = decoded.TxRetries
	e.txTS = decoded.TxTS
	e.rxTS = decoded.RxTS
	e.bootAccepted = decoded.BootAccepted

	for _, ss := range decoded.Slots {
		s, err := e.pool.alloc()
		if err != nil {
			return fmt.Errorf("engine: restore snapshot: pool too small for %d slots", len(decoded.Slots))
		}
		s.id = ss.ID
		s.role = ss.Role
		s.msgType = ss.Type
		s.payload = ss.Payload
		s.expiry = ss.Expiry
		s.attempts = ss.Attempts

		switch ss.List {
		case listReady:
			e.ready.pushTail(s)
		case listWait:
			e.wait.pushTail(s)
		case listTimer:
			e.timer.pushTail(s)
		default:
			return fmt.Errorf("engine: restore snapshot: unknown list %q", ss.List)
		}
	}
	return nil
}
