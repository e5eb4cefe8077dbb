package engine

import "github.com/libmcu/ocpp-session-core/internal/ocpp16"

// DefaultTXTimeoutSec is the retry deadline applied to every slot that
// enters wait, regardless of class: a slot sitting in wait longer than
// this without a matching response is requeued or dropped.
const DefaultTXTimeoutSec = 10

// DefaultTXRetries is the attempt budget for droppable messages,
// configurable at construction the way the original makes it a
// build-time constant.
const DefaultTXRetries = 1

// retryDeadline is the absolute expiry a slot gets when it moves into
// wait: now + the fixed TX timeout, independent of message class.
func retryDeadline(now int64, timeoutSec int64) int64 {
	return now + timeoutSec
}

// nextSendPeriod computes the expiry used when a transaction-related
// slot is requeued after a CALLERROR, or (conceptually) when spacing
// out BootNotification/Heartbeat retries: arithmetic backoff in units
// of attempts for transaction messages, the heartbeat cadence for
// BootNotification/Heartbeat, the fixed timeout for everything else.
func (e *Engine) nextSendPeriod(now int64, t ocpp16.MessageType, attempts int) int64 {
	switch {
	case ocpp16.IsTransactionRelated(t):
		interval := int64(e.store.TransactionMessageRetryInterval().Seconds())
		return now + interval*int64(attempts)
	case t == ocpp16.MessageBootNotification || t == ocpp16.MessageHeartbeat:
		interval := int64(e.store.HeartbeatInterval().Seconds())
		return now + interval
	default:
		return now + e.txTimeoutSec
	}
}

// attemptBudget returns the number of send attempts a slot of type t
// may exhaust before shouldDrop reports true. Transaction-related
// slots use the config store's TransactionMessageAttempts; everything
// else uses the engine's fixed droppable-attempt budget.
func (e *Engine) attemptBudget(t ocpp16.MessageType) int {
	if ocpp16.IsTransactionRelated(t) {
		return e.store.TransactionMessageAttempts()
	}
	return e.txRetries
}

// shouldDrop reports whether a slot that just timed out of wait
// should be freed outright rather than requeued. BootNotification and
// transaction-related slots are never droppable by policy; only
// ordinary messages are, and only once they have exhausted their
// attempt budget.
func (e *Engine) shouldDrop(s *Slot) bool {
	if !ocpp16.IsDroppable(s.msgType) {
		return false
	}
	return s.attempts >= e.attemptBudget(s.msgType)
}
