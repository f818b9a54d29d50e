package tracking

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

// MaxSubresourceOverrides is the number of subresources of one resource that
// may be in a state different from the resource's default state at once.
const MaxSubresourceOverrides = 15

// Override records that one subresource is not in the record's default state.
type Override struct {
	Subresource metadata.Subresource
	State       metadata.ResourceState
}

// StateRecord is the believed usage state of one resource. All subresources
// share defaultState unless listed in overrides.
//
// Overrides occupy slots [0, count) in the order they were first written.
// The slot at index count is the first free slot; nothing lives past it.
// No override carries the default state and no subresource appears twice.
type StateRecord struct {
	defaultState metadata.ResourceState
	overrides    [MaxSubresourceOverrides]Override
	count        int
}

// NewStateRecord returns a record with every subresource in state.
func NewStateRecord(state metadata.ResourceState) *StateRecord {
	return &StateRecord{defaultState: state}
}

// DefaultState returns the state shared by all subresources without an override.
func (r *StateRecord) DefaultState() metadata.ResourceState {
	return r.defaultState
}

// IsMixed reports whether any subresource differs from the default state.
func (r *StateRecord) IsMixed() bool {
	return r.count > 0
}

// OverrideCount returns the number of occupied override slots.
func (r *StateRecord) OverrideCount() int {
	return r.count
}

// Overrides returns a copy of the overrides in encounter order.
func (r *StateRecord) Overrides() []Override {
	out := make([]Override, r.count)
	copy(out, r.overrides[:r.count])
	return out
}

// Query returns the state of sub. Querying AllSubresources on a mixed record
// fails with core.ErrAmbiguousQuery.
func (r *StateRecord) Query(sub metadata.Subresource) (metadata.ResourceState, error) {
	if sub == metadata.AllSubresources {
		if r.IsMixed() {
			return r.defaultState, fmt.Errorf("query all subresources with %d override(s): %w", r.count, core.ErrAmbiguousQuery)
		}
		return r.defaultState, nil
	}
	i, err := r.find(sub)
	if err != nil {
		return r.defaultState, err
	}
	if i >= 0 {
		return r.overrides[i].State, nil
	}
	return r.defaultState, nil
}

// Apply records that sub is now in state. Applying to AllSubresources drops
// every override. On error the record is left unmodified.
func (r *StateRecord) Apply(state metadata.ResourceState, sub metadata.Subresource) error {
	if sub == metadata.AllSubresources {
		r.clearOverrides()
		r.defaultState = state
		return nil
	}

	i, err := r.find(sub)
	if err != nil {
		return err
	}

	if i >= 0 {
		if state == r.defaultState {
			r.remove(i)
		} else {
			r.overrides[i].State = state
		}
		return nil
	}

	if state == r.defaultState {
		return nil
	}
	if r.count == MaxSubresourceOverrides {
		return fmt.Errorf("override subresource %s to %s: all %d slots in use: %w",
			sub, state, MaxSubresourceOverrides, core.ErrCapacityExceeded)
	}
	r.overrides[r.count] = Override{Subresource: sub, State: state}
	r.count++
	return nil
}

// find returns the slot holding sub, or -1. It also validates the slot layout.
func (r *StateRecord) find(sub metadata.Subresource) (int, error) {
	if r.count < 0 || r.count > MaxSubresourceOverrides {
		return -1, fmt.Errorf("override count %d outside [0, %d]: %w", r.count, MaxSubresourceOverrides, core.ErrInternalInvariant)
	}
	found := -1
	for i := 0; i < r.count; i++ {
		o := r.overrides[i]
		if o.Subresource == metadata.AllSubresources || o.State == r.defaultState {
			return -1, fmt.Errorf("slot %d holds %s=%s with default %s: %w",
				i, o.Subresource, o.State, r.defaultState, core.ErrInternalInvariant)
		}
		if o.Subresource == sub {
			if found >= 0 {
				return -1, fmt.Errorf("subresource %s in slots %d and %d: %w", sub, found, i, core.ErrInternalInvariant)
			}
			found = i
		}
	}
	return found, nil
}

// remove deletes slot i, shifting later slots down to keep encounter order.
func (r *StateRecord) remove(i int) {
	copy(r.overrides[i:r.count], r.overrides[i+1:r.count])
	r.count--
	r.overrides[r.count] = Override{}
}

func (r *StateRecord) clearOverrides() {
	for i := 0; i < r.count; i++ {
		r.overrides[i] = Override{}
	}
	r.count = 0
}

func (r *StateRecord) String() string {
	if !r.IsMixed() {
		return r.defaultState.String()
	}
	var sb strings.Builder
	sb.WriteString(r.defaultState.String())
	sb.WriteString(" {")
	for i := 0; i < r.count; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s:%s", r.overrides[i].Subresource, r.overrides[i].State)
	}
	sb.WriteString("}")
	return sb.String()
}
