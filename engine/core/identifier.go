package core

import (
	"fmt"
	"sync"
)

// IdentifierPool hands out small integer ids, reusing released slots.
// Id 0 is never handed out so it can serve as the null id.
type IdentifierPool struct {
	mu     sync.Mutex
	owners []interface{}
}

func NewIdentifierPool(capacity int) *IdentifierPool {
	if capacity < 1 {
		capacity = 100
	}
	return &IdentifierPool{
		// Slot 0 is reserved.
		owners: make([]interface{}, 1, capacity+1),
	}
}

// Acquire returns a new id owned by owner. owner must not be nil.
func (p *IdentifierPool) Acquire(owner interface{}) (uint32, error) {
	if owner == nil {
		return 0, fmt.Errorf("identifier_acquire: nil owner")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	length := uint32(len(p.owners))
	for i := uint32(1); i < length; i++ {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return i, nil
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners)) - 1, nil
}

// Release frees id so it can be handed out again.
func (p *IdentifierPool) Release(id uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	length := uint32(len(p.owners))
	if id == 0 || id >= length {
		return fmt.Errorf("identifier_release: id '%d' out of range (max=%d). Nothing was done", id, length-1)
	}
	if p.owners[id] == nil {
		return fmt.Errorf("identifier_release: id '%d' is not in use. Nothing was done", id)
	}

	// Just zero out the entry, making it available for use.
	p.owners[id] = nil
	return nil
}

// Owner returns the owner registered for id, if any.
func (p *IdentifierPool) Owner(id uint32) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == 0 || id >= uint32(len(p.owners)) {
		return nil, false
	}
	o := p.owners[id]
	return o, o != nil
}
