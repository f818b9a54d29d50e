package tracking

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

// BarrierRecorder issues barriers into a command list.
type BarrierRecorder interface {
	// RecordBarriers is called once per non-empty commit with the pending
	// barriers in request order. The slice must not be retained.
	RecordBarriers(barriers []metadata.Barrier) error
}

// BarrierBatch accumulates the barriers a recording session needs and hands
// them to the recorder in one go on Commit. The state store only advances
// on Commit.
type BarrierBatch struct {
	store    *StateStore
	recorder BarrierRecorder
	metrics  *core.BarrierMetrics
	pending  []metadata.Barrier
}

type BatchOption func(*BarrierBatch)

// WithMetrics makes the batch report its requests and commits to m.
func WithMetrics(m *core.BarrierMetrics) BatchOption {
	return func(b *BarrierBatch) {
		b.metrics = m
	}
}

func NewBarrierBatch(store *StateStore, recorder BarrierRecorder, opts ...BatchOption) *BarrierBatch {
	b := &BarrierBatch{
		store:    store,
		recorder: recorder,
		pending:  make([]metadata.Barrier, 0, 16),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetRecorder replaces the recorder used by subsequent commits.
func (b *BarrierBatch) SetRecorder(recorder BarrierRecorder) {
	b.recorder = recorder
}

// Transition requests that sub of h be in state desired once the batch is
// committed. Earlier pending requests made irrelevant by this one are
// dropped first, so repeated requests collapse to the latest one.
func (b *BarrierBatch) Transition(h metadata.ResourceHandle, desired metadata.ResourceState, sub metadata.Subresource, flags metadata.BarrierFlags) error {
	if !h.IsValid() {
		return fmt.Errorf("transition to %s: %w", desired, core.ErrInvalidHandle)
	}

	b.pending = slices.DeleteFunc(b.pending, func(p metadata.Barrier) bool {
		if p.Type != metadata.BarrierTypeTransition || p.Transition.Resource != h {
			return false
		}
		return sub == metadata.AllSubresources || p.Transition.Subresource == sub
	})

	record, err := b.store.Get(h)
	if err != nil {
		return err
	}

	before := len(b.pending)
	switch {
	case sub == metadata.AllSubresources && record.IsMixed():
		// A whole-resource barrier cannot start from mixed states, so bring
		// every diverging subresource back to the default state first.
		base := record.DefaultState()
		for _, o := range record.Overrides() {
			if o.State != base {
				b.pending = append(b.pending, metadata.NewTransitionBarrier(h, o.Subresource, o.State, base, flags))
			}
		}
		if base != desired {
			b.pending = append(b.pending, metadata.NewTransitionBarrier(h, metadata.AllSubresources, base, desired, flags))
		}
	default:
		current, err := record.Query(sub)
		if err != nil {
			return err
		}
		if current != desired {
			b.pending = append(b.pending, metadata.NewTransitionBarrier(h, sub, current, desired, flags))
		}
	}

	if b.metrics != nil {
		b.metrics.RecordRequest(len(b.pending) == before)
	}
	return nil
}

// Cancel drops every pending transition of h. Aliasing and UAV barriers
// naming h are kept.
func (b *BarrierBatch) Cancel(h metadata.ResourceHandle) {
	b.pending = slices.DeleteFunc(b.pending, func(p metadata.Barrier) bool {
		return p.Type == metadata.BarrierTypeTransition && p.Transition.Resource == h
	})
}

// Aliasing appends an aliasing barrier between before and after.
func (b *BarrierBatch) Aliasing(before, after metadata.ResourceHandle) {
	b.pending = append(b.pending, metadata.NewAliasingBarrier(before, after))
}

// UAV appends an unordered-access barrier on h.
func (b *BarrierBatch) UAV(h metadata.ResourceHandle) {
	b.pending = append(b.pending, metadata.NewUAVBarrier(h))
}

// Commit records the pending barriers and advances the state store.
// The begin half of a split transition does not move the tracked state; the
// end half does.
//
// If the recorder fails nothing is applied and the barriers stay pending.
// If folding a transition into the store fails the remaining transitions are
// not applied; the pending list is cleared either way since the barriers
// were already recorded.
func (b *BarrierBatch) Commit() error {
	if len(b.pending) == 0 {
		return nil
	}
	if b.recorder == nil {
		return fmt.Errorf("commit %d barrier(s): no recorder", len(b.pending))
	}

	if err := b.recorder.RecordBarriers(b.pending); err != nil {
		return fmt.Errorf("record %d barrier(s): %w", len(b.pending), err)
	}
	if b.metrics != nil {
		b.metrics.RecordCommit(len(b.pending))
	}

	defer b.clear()
	for _, p := range b.pending {
		if p.Type != metadata.BarrierTypeTransition || p.Flags == metadata.BarrierFlagsBeginOnly {
			continue
		}
		t := p.Transition
		record, err := b.store.Get(t.Resource)
		if err != nil {
			return err
		}
		if err := record.Apply(t.StateAfter, t.Subresource); err != nil {
			return fmt.Errorf("apply resource #%d: %w", t.Resource, err)
		}
	}
	return nil
}

// Discard drops the pending barriers without recording them.
func (b *BarrierBatch) Discard() {
	b.clear()
}

// Pending returns a copy of the pending barriers.
func (b *BarrierBatch) Pending() []metadata.Barrier {
	out := make([]metadata.Barrier, len(b.pending))
	copy(out, b.pending)
	return out
}

func (b *BarrierBatch) Len() int {
	return len(b.pending)
}

func (b *BarrierBatch) clear() {
	clear(b.pending)
	b.pending = b.pending[:0]
}
