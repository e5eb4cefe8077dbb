package engine

import "github.com/libmcu/ocpp-session-core/internal/ocpp16"

// Slot is one message record in the fixed pool. A free slot has
// role == ocpp16.RoleNone and is not a member of any list; everything
// else is reached exclusively through the ready/wait/timer lists that
// thread through the pool via prev/next, the same intrusive-list shape
// the original engine builds on top of its container_of-based lists.
type Slot struct {
	id       string
	role     ocpp16.Role
	msgType  ocpp16.MessageType
	payload  []byte
	expiry   int64
	attempts int

	prev, next *Slot
}

// slotList is a sentinel-headed doubly linked list over Slot, mirroring
// the head/tail sentinel shape the cache package uses for its LRU
// list, generalized to the three queues (ready/wait/timer) the engine
// needs.
type slotList struct {
	head, tail *Slot
	size       int
}

func newSlotList() *slotList {
	head := &Slot{}
	tail := &Slot{}
	head.next = tail
	tail.prev = head
	return &slotList{head: head, tail: tail}
}

// pushTail appends s at the back of the list (FIFO order).
func (l *slotList) pushTail(s *Slot) {
	s.prev = l.tail.prev
	s.next = l.tail
	l.tail.prev.next = s
	l.tail.prev = s
	l.size++
}

// pushHead inserts s at the front, used only when a wait-timeout
// retry requeues a slot ahead of fresh pushes.
func (l *slotList) pushHead(s *Slot) {
	s.next = l.head.next
	s.prev = l.head
	l.head.next.prev = s
	l.head.next = s
	l.size++
}

// remove detaches s from whichever list it is currently linked into.
// It is a no-op if s is not linked (prev/next both nil).
func (l *slotList) remove(s *Slot) {
	if s.prev == nil && s.next == nil {
		return
	}
	s.prev.next = s.next
	s.next.prev = s.prev
	s.prev = nil
	s.next = nil
	l.size--
}

// popHead removes and returns the front slot, or nil if empty.
func (l *slotList) popHead() *Slot {
	if l.size == 0 {
		return nil
	}
	s := l.head.next
	l.remove(s)
	return s
}

// forEach walks the list head to tail, stopping early if fn returns
// false.
func (l *slotList) forEach(fn func(*Slot) bool) {
	for s := l.head.next; s != l.tail; s = s.next {
		if !fn(s) {
			return
		}
	}
}

// findByIDPrefix scans the list for a slot whose id has idstr as a
// prefix, mirroring find_msg_by_idstr's memcmp-up-to-strlen(idstr)
// comparison in the original implementation. Uniqueness of matching
// ids within the list is the caller's responsibility (enforced by the
// id generator, not by this search).
func (l *slotList) findByIDPrefix(idstr string) *Slot {
	var found *Slot
	l.forEach(func(s *Slot) bool {
		if len(s.id) >= len(idstr) && s.id[:len(idstr)] == idstr {
			found = s
			return false
		}
		return true
	})
	return found
}
