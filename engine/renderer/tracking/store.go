package tracking

import (
	"fmt"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

// DefaultStateSupplier decides the state a resource is in when a recording
// session first touches it.
type DefaultStateSupplier interface {
	DefaultState(h metadata.ResourceHandle) metadata.ResourceState
}

// DefaultStateFunc adapts a function to DefaultStateSupplier.
type DefaultStateFunc func(h metadata.ResourceHandle) metadata.ResourceState

func (f DefaultStateFunc) DefaultState(h metadata.ResourceHandle) metadata.ResourceState {
	return f(h)
}

// StateStore holds the state records of one recording session.
// It is not safe for concurrent use; each session owns its own store.
type StateStore struct {
	records  map[metadata.ResourceHandle]*StateRecord
	defaults DefaultStateSupplier
}

func NewStateStore(defaults DefaultStateSupplier) *StateStore {
	if defaults == nil {
		defaults = DefaultStateFunc(func(metadata.ResourceHandle) metadata.ResourceState {
			return metadata.ResourceStateCommon
		})
	}
	return &StateStore{
		records:  make(map[metadata.ResourceHandle]*StateRecord),
		defaults: defaults,
	}
}

// Get returns the record of h, creating it from the default state supplier
// on first use.
func (s *StateStore) Get(h metadata.ResourceHandle) (*StateRecord, error) {
	if !h.IsValid() {
		return nil, fmt.Errorf("state store get: %w", core.ErrInvalidHandle)
	}
	if r, ok := s.records[h]; ok {
		return r, nil
	}
	r := NewStateRecord(s.defaults.DefaultState(h))
	s.records[h] = r
	return r, nil
}

// DefaultState returns the state h starts in, without tracking it.
func (s *StateStore) DefaultState(h metadata.ResourceHandle) metadata.ResourceState {
	return s.defaults.DefaultState(h)
}

// Lookup returns the record of h without creating one.
func (s *StateStore) Lookup(h metadata.ResourceHandle) (*StateRecord, bool) {
	r, ok := s.records[h]
	return r, ok
}

// Forget drops the record of h. Forgetting an untracked resource is a no-op.
func (s *StateStore) Forget(h metadata.ResourceHandle) error {
	if !h.IsValid() {
		return fmt.Errorf("state store forget: %w", core.ErrInvalidHandle)
	}
	delete(s.records, h)
	return nil
}

// Reset drops every record.
func (s *StateStore) Reset() {
	clear(s.records)
}

func (s *StateStore) Len() int {
	return len(s.records)
}

// Handles returns the tracked handles in no particular order.
func (s *StateStore) Handles() []metadata.ResourceHandle {
	out := make([]metadata.ResourceHandle, 0, len(s.records))
	for h := range s.records {
		out = append(out, h)
	}
	return out
}
