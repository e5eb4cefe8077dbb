// Package engine implements the message-lifecycle engine: the bounded
// message pool, the three-list queue discipline, class-aware retry and
// drop policy, correlation by identifier, heartbeat synthesis, overflow
// eviction, and the single-step scheduler that ties them together. The
// engine never inspects payload bytes or interprets OCPP business
// semantics; it only classifies by ocpp16.MessageType.
package engine

import (
	"sync"

	"github.com/libmcu/ocpp-session-core/internal/config"
	"github.com/libmcu/ocpp-session-core/internal/idgen"
	"github.com/libmcu/ocpp-session-core/internal/logger"
	"github.com/libmcu/ocpp-session-core/internal/metrics"
	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

// Engine is a single charge-point session's message-lifecycle state
// machine. It is safe for concurrent use by multiple goroutines; every
// public method takes the engine's own lock, released around
// Transport calls and EventHandler dispatch so a host may re-enter the
// engine from within a callback without deadlocking.
type Engine struct {
	mu sync.Mutex

	clock     Clock
	ids       idgen.Generator
	transport Transport
	store     *config.Store
	log       *logger.Logger
	onEvent   EventHandler

	txTimeoutSec int64
	txRetries    int

	pool  *pool
	ready *slotList
	wait  *slotList
	timer *slotList

	txTS         int64
	rxTS         int64
	bootAccepted bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the wall-clock source. Defaults to a Clock the
// caller must supply; there is no hidden time.Now() fallback because
// the engine's whole timing model depends on the host driving now
// itself.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithIDGenerator overrides the identifier generator. Defaults to
// idgen.UUIDGenerator.
func WithIDGenerator(g idgen.Generator) Option { return func(e *Engine) { e.ids = g } }

// WithTransport sets the send/recv primitives. Required; Step panics
// with a nil-pointer if this is never set, since every step polls Recv.
func WithTransport(t Transport) Option { return func(e *Engine) { e.transport = t } }

// WithConfigStore sets the engine-facing configuration store the
// engine reads HeartbeatInterval/TransactionMessageRetryInterval/
// TransactionMessageAttempts from. Required.
func WithConfigStore(s *config.Store) Option { return func(e *Engine) { e.store = s } }

// WithLogger sets the structured logger. Defaults to a nil logger,
// which disables logging entirely (all methods on *logger.Logger are
// called through a nil-safe helper).
func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithEventHandler sets the lifecycle callback. Optional; if unset,
// lifecycle events are simply not delivered anywhere.
func WithEventHandler(h EventHandler) Option { return func(e *Engine) { e.onEvent = h } }

// WithPoolSize overrides the pool's slab capacity. Defaults to
// DefaultPoolSize.
func WithPoolSize(n int) Option { return func(e *Engine) { e.pool = newPool(n) } }

// WithTXTimeoutSec overrides the fixed retry deadline applied to every
// slot in wait. Defaults to DefaultTXTimeoutSec.
func WithTXTimeoutSec(sec int64) Option { return func(e *Engine) { e.txTimeoutSec = sec } }

// WithTXRetries overrides the droppable-message attempt budget.
// Defaults to DefaultTXRetries.
func WithTXRetries(n int) Option { return func(e *Engine) { e.txRetries = n } }

// New constructs an Engine and runs Init against the given Clock. The
// engine requires a Clock, Transport and config.Store to function;
// Step will panic on a nil Transport or Store, mirroring the original
// engine's undefined behavior when called before ocpp_init.
func New(opts ...Option) *Engine {
	e := &Engine{
		ids:          idgen.UUIDGenerator{},
		txTimeoutSec: DefaultTXTimeoutSec,
		txRetries:    DefaultTXRetries,
		pool:         newPool(DefaultPoolSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ready = newSlotList()
	e.wait = newSlotList()
	e.timer = newSlotList()
	if e.clock != nil {
		now := e.clock.Now()
		e.txTS = now
		e.rxTS = now
	}
	return e
}

// Init resets the engine to an empty pool with fresh timestamps,
// dropping every in-flight slot without emitting MESSAGE_FREE for any
// of them — the same "pool goes away" semantics restore_snapshot
// relies on to replace a running engine's state wholesale.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	return nil
}

func (e *Engine) resetLocked() {
	size := len(e.pool.slots)
	e.pool = newPool(size)
	e.ready = newSlotList()
	e.wait = newSlotList()
	e.timer = newSlotList()
	e.bootAccepted = false
	if e.clock != nil {
		now := e.clock.Now()
		e.txTS = now
		e.rxTS = now
	}
}

func (e *Engine) logf(level string, format string, args ...interface{}) {
	if e.log == nil {
		return
	}
	switch level {
	case "debug":
		e.log.Debugf(format, args...)
	case "info":
		e.log.Infof(format, args...)
	case "warn":
		e.log.Warnf(format, args...)
	case "error":
		e.log.Errorf(format, args...)
	}
}

// dispatch invokes the event handler with the engine lock released,
// then reacquires it before returning, so a handler may call back
// into the engine (e.g. push a response from within an EventIncoming
// callback for an inbound CALL) without deadlocking.
func (e *Engine) dispatch(evt Event, msg Message, err error) {
	if e.onEvent == nil {
		return
	}
	e.mu.Unlock()
	e.onEvent(evt, msg, err)
	e.mu.Lock()
}

// freeSlot removes a slot from circulation: emits EventFree with the
// lock released, then zeroes it. Callers must have already unlinked
// the slot from whichever list held it.
func (e *Engine) freeSlot(s *Slot) {
	msg := toMessage(s)
	e.dispatch(EventFree, msg, nil)
	metrics.PoolOccupancy.Set(float64(e.pool.occupancy() - 1))
	e.pool.free(s)
}

// PushRequest allocates a CALL slot of the given type and pushes it to
// the tail of ready. If the pool is full and force is true, it evicts
// the oldest evictable ready slot and retries allocation exactly once.
func (e *Engine) PushRequest(t ocpp16.MessageType, payload []byte, force bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.allocOrEvict(force)
	if err != nil {
		return "", err
	}
	id := e.ids.Generate()
	s.id = id
	s.role = ocpp16.RoleCall
	s.msgType = t
	s.payload = payload
	e.ready.pushTail(s)
	metrics.PoolOccupancy.Set(float64(e.pool.occupancy()))
	return id, nil
}

// PushRequestDefer behaves like PushRequest, except if timerSec > 0
// the slot is parked in timer with expiry = now + timerSec instead of
// going straight to ready.
func (e *Engine) PushRequestDefer(t ocpp16.MessageType, payload []byte, force bool, timerSec int64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.allocOrEvict(force)
	if err != nil {
		return "", err
	}
	id := e.ids.Generate()
	s.id = id
	s.role = ocpp16.RoleCall
	s.msgType = t
	s.payload = payload

	if timerSec <= 0 {
		e.ready.pushTail(s)
	} else {
		s.expiry = e.clock.Now() + timerSec
		e.timer.pushTail(s)
	}
	metrics.PoolOccupancy.Set(float64(e.pool.occupancy()))
	return id, nil
}

// PushResponse allocates a CALLRESULT or CALLERROR slot carrying the
// id of the request it answers and pushes it to ready's tail.
func (e *Engine) PushResponse(requestID string, t ocpp16.MessageType, payload []byte, isError bool, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.allocOrEvict(force)
	if err != nil {
		return err
	}
	s.id = requestID
	s.msgType = t
	s.payload = payload
	if isError {
		s.role = ocpp16.RoleCallError
	} else {
		s.role = ocpp16.RoleCallResult
	}
	e.ready.pushTail(s)
	metrics.PoolOccupancy.Set(float64(e.pool.occupancy()))
	return nil
}

// allocOrEvict tries pool.alloc once; on failure, if force is set, it
// evicts the oldest evictable ready slot and retries exactly once.
func (e *Engine) allocOrEvict(force bool) (*Slot, error) {
	s, err := e.pool.alloc()
	if err == nil {
		return s, nil
	}
	if !force {
		return nil, err
	}
	if !e.evictOldest() {
		return nil, ErrOutOfMemory
	}
	return e.pool.alloc()
}

// evictOldest walks ready from the head and frees the first slot whose
// type is evictable, returning true iff one was freed. Grounded on
// remove_oldest in the original implementation, which exempts
// BootNotification, StartTransaction and StopTransaction — note that
// MeterValues, despite being transaction-related and non-droppable,
// remains evictable.
func (e *Engine) evictOldest() bool {
	var victim *Slot
	e.ready.forEach(func(s *Slot) bool {
		if ocpp16.IsEvictable(s.msgType) {
			victim = s
			return false
		}
		return true
	})
	if victim == nil {
		return false
	}
	e.ready.remove(victim)
	metrics.MessagesEvicted.WithLabelValues(ocpp16.StringifyType(victim.msgType)).Inc()
	e.freeSlot(victim)
	return true
}

// CountPendingRequests returns the combined size of ready, wait and
// timer.
func (e *Engine) CountPendingRequests() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready.size + e.wait.size + e.timer.size
}

// DropPendingType scans all three lists and frees every slot of type
// t, returning how many were dropped. Unlike the attempt-budget drop
// path, this bypasses class exemptions entirely — it is an explicit
// host request, not policy-driven.
func (e *Engine) DropPendingType(t ocpp16.MessageType) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, l := range []*slotList{e.ready, e.wait, e.timer} {
		var matched []*Slot
		l.forEach(func(s *Slot) bool {
			if s.msgType == t {
				matched = append(matched, s)
			}
			return true
		})
		for _, s := range matched {
			l.remove(s)
			e.freeSlot(s)
			n++
		}
	}
	return n
}

// TypeFromIDStr looks up the message type of whichever slot in wait
// currently carries idstr as its id, returning ocpp16.MessageUnknown
// if none matches. Grounded on ocpp_get_type_from_idstr.
func (e *Engine) TypeFromIDStr(idstr string) ocpp16.MessageType {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.wait.findByIDPrefix(idstr); s != nil {
		return s.msgType
	}
	return ocpp16.MessageUnknown
}

// BootAccepted reports whether the host has signaled acceptance via
// SetBootAccepted.
func (e *Engine) BootAccepted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bootAccepted
}

// SetBootAccepted records the host's BootNotification acceptance
// decision. The engine payload stays opaque to the core by design, so
// it cannot itself read the "status" field of a BootNotification
// CALLRESULT; the host decodes that response at the transport layer
// (where it is EventIncoming'd with Type == ocpp16.MessageBootNotification)
// and reports the outcome here. Heartbeat synthesis requires this flag
// in addition to the elapsed-time check — see synthesizeHeartbeat.
func (e *Engine) SetBootAccepted(accepted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bootAccepted = accepted
}
