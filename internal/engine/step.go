package engine

import (
	"errors"
	"time"

	"github.com/libmcu/ocpp-session-core/internal/metrics"
	"github.com/libmcu/ocpp-session-core/internal/ocpp16"
)

// Step runs one scheduling tick: wait-timeout handling, at most one
// transmit, one inbound poll, heartbeat synthesis, and timer
// promotion, in that order, under the engine's lock (released around
// Transport calls and EventHandler dispatch). now must be
// non-decreasing across calls; the engine does not otherwise depend on
// its granularity or precision.
func (e *Engine) Step(now int64) error {
	start := time.Now()
	defer func() { metrics.StepDuration.Observe(time.Since(start).Seconds()) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.processWaitTimeouts(now)
	e.transmit(now)
	e.receive(now)
	e.synthesizeHeartbeat(now)
	e.promoteTimers(now)
	return nil
}

// processWaitTimeouts requeues or drops every wait slot whose retry
// deadline has passed. Requeued slots jump to the head of ready so a
// retry is not overtaken by a fresh push of the same or another type.
func (e *Engine) processWaitTimeouts(now int64) {
	var expired []*Slot
	e.wait.forEach(func(s *Slot) bool {
		if s.expiry <= now {
			expired = append(expired, s)
		}
		return true
	})
	for _, s := range expired {
		e.wait.remove(s)
		if e.shouldDrop(s) {
			e.logf("debug", "engine: dropping %s after %d attempts", ocpp16.StringifyType(s.msgType), s.attempts)
			metrics.MessagesDropped.WithLabelValues(ocpp16.StringifyType(s.msgType)).Inc()
			e.freeSlot(s)
			continue
		}
		e.ready.pushHead(s)
	}
}

// transmit sends at most one ready message, provided wait is empty
// (at-most-one-in-flight). A synthesized heartbeat calls this again
// directly after pushing its own slot to ready.
func (e *Engine) transmit(now int64) {
	if e.wait.size > 0 {
		return
	}
	s := e.ready.popHead()
	if s == nil {
		return
	}

	s.attempts++
	s.expiry = retryDeadline(now, e.txTimeoutSec)

	msg := toMessage(s)
	e.dispatch(EventOutgoing, msg, nil)
	e.mu.Unlock()
	err := e.transport.Send(msg)
	e.mu.Lock()

	switch {
	case err == nil && s.role == ocpp16.RoleCall:
		e.wait.pushTail(s)
	case err == nil:
		// A CALLRESULT/CALLERROR was accepted by the transport: the
		// response has been delivered, nothing left to track.
		e.freeSlot(s)
	default:
		// A failed send does not by itself decide drop-vs-retry: the
		// slot goes back to wait regardless of class or budget, and
		// the next wait-timeout's shouldDrop call is the sole place
		// that decision is made (see processWaitTimeouts). This keeps
		// exactly one drop authority instead of two paths that could
		// disagree on when a droppable message has exhausted its
		// budget.
		e.wait.pushTail(s)
	}

	if err == nil {
		metrics.MessagesSent.WithLabelValues(ocpp16.StringifyType(s.msgType)).Inc()
	}
}

// receive polls the transport once and, on a match, correlates the
// inbound frame to its waiting request by id prefix.
func (e *Engine) receive(now int64) {
	e.mu.Unlock()
	in, err := e.transport.Recv()
	e.mu.Lock()

	if err != nil {
		if errors.Is(err, ErrNoMessage) {
			return
		}
		e.dispatch(Event(-1), Message{}, err)
		return
	}

	switch in.Role {
	case ocpp16.RoleCall:
		e.rxTS = now
		e.dispatch(EventIncoming, in.Message, nil)

	case ocpp16.RoleCallResult, ocpp16.RoleCallError:
		s := e.wait.findByIDPrefix(in.ID)
		if s == nil {
			e.logf("warn", "engine: no correlation for inbound id %s", in.ID)
			metrics.CorrelationMisses.Inc()
			return
		}
		e.wait.remove(s)
		e.rxTS = now
		e.txTS = now
		msg := Message{
			ID:       s.id,
			Role:     in.Role,
			Type:     s.msgType,
			Payload:  in.Payload,
			Attempts: s.attempts,
		}
		e.dispatch(EventIncoming, msg, nil)

		if in.Role == ocpp16.RoleCallError && ocpp16.IsTransactionRelated(s.msgType) {
			budget := e.store.TransactionMessageAttempts()
			if s.attempts < budget {
				s.expiry = e.nextSendPeriod(now, s.msgType, s.attempts)
				e.wait.pushTail(s)
				return
			}
		}
		e.freeSlot(s)

	default:
		e.logf("warn", "engine: inbound frame with invalid role for id %s", in.ID)
		e.dispatch(Event(-1), Message{}, ErrInvalidRole)
	}
}

// synthesizeHeartbeat allocates and transmits a Heartbeat CALL when
// the link has been idle past HeartbeatInterval with nothing else
// pending. Gated on BootAccepted, a strict tightening of the
// tx_ts-only predicate that keeps the engine from pinging a central
// system that has not yet accepted this session.
func (e *Engine) synthesizeHeartbeat(now int64) {
	interval := int64(e.store.HeartbeatInterval().Seconds())
	if interval <= 0 {
		return
	}
	if e.ready.size != 0 || e.wait.size != 0 {
		return
	}
	if !e.bootAccepted {
		return
	}
	if now-e.txTS < interval {
		return
	}

	s, err := e.pool.alloc()
	if err != nil {
		return
	}
	s.id = e.ids.Generate()
	s.role = ocpp16.RoleCall
	s.msgType = ocpp16.MessageHeartbeat
	e.ready.pushTail(s)
	metrics.HeartbeatsSynthesized.Inc()

	e.transmit(now)
}

// promoteTimers moves every timer slot whose expiry has passed to the
// tail of ready.
func (e *Engine) promoteTimers(now int64) {
	var due []*Slot
	e.timer.forEach(func(s *Slot) bool {
		if s.expiry <= now {
			due = append(due, s)
		}
		return true
	})
	for _, s := range due {
		e.timer.remove(s)
		e.ready.pushTail(s)
	}
}
