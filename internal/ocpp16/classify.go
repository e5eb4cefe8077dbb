package ocpp16

// IsTransactionRelated reports whether t is one of the three billing
// messages the engine must never silently drop: StartTransaction,
// StopTransaction, MeterValues. Grounded on is_transaction_related in
// the original implementation.
func IsTransactionRelated(t MessageType) bool {
	switch t {
	case MessageStartTransaction, MessageStopTransaction, MessageMeterValues:
		return true
	default:
		return false
	}
}

// IsDroppable reports whether t may be discarded once its retry budget
// is exhausted. Everything is droppable except BootNotification and the
// transaction-related set, which retry indefinitely. Grounded on
// is_droppable in the original implementation.
func IsDroppable(t MessageType) bool {
	if t == MessageBootNotification {
		return false
	}
	return !IsTransactionRelated(t)
}

// IsEvictable reports whether t may be selected as the victim when the
// message pool overflows. BootNotification, StartTransaction and
// StopTransaction are exempt; MeterValues is NOT exempt even though it
// is transaction-related and non-droppable — a deliberate asymmetry
// carried from remove_oldest in the original implementation.
func IsEvictable(t MessageType) bool {
	switch t {
	case MessageBootNotification, MessageStartTransaction, MessageStopTransaction:
		return false
	default:
		return true
	}
}
