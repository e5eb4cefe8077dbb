package engine

import "github.com/libmcu/ocpp-session-core/internal/ocpp16"

// DefaultPoolSize is the default slab capacity, matching the
// original's TX_POOL_LEN.
const DefaultPoolSize = 8

// pool is the fixed-capacity slab of slots. It is sized once at
// construction and never grown; allocation is slot-scan, deallocation
// is slot-zero, exactly the model described for the message pool.
type pool struct {
	slots []Slot
}

func newPool(size int) *pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &pool{slots: make([]Slot, size)}
}

// alloc scans for the first free slot, marks it ALLOC and returns its
// stable address. It returns ErrOutOfMemory if none is free.
func (p *pool) alloc() (*Slot, error) {
	for i := range p.slots {
		if p.slots[i].role == ocpp16.RoleNone {
			p.slots[i].role = ocpp16.RoleAlloc
			return &p.slots[i], nil
		}
	}
	return nil, ErrOutOfMemory
}

// free zeroes s in place. Because Role's zero value is RoleNone, this
// alone marks the slot free again.
func (p *pool) free(s *Slot) {
	*s = Slot{}
}

// occupancy reports how many slots are currently allocated, for the
// pool-occupancy gauge.
func (p *pool) occupancy() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].role != ocpp16.RoleNone {
			n++
		}
	}
	return n
}
