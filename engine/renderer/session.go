package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
	"github.com/spaghettifunk/statetrack/engine/renderer/tracking"
)

type SessionState int

const (
	SessionStateIdle SessionState = iota
	SessionStateRecording
	SessionStateEnded
)

func (s SessionState) String() string {
	switch s {
	case SessionStateIdle:
		return "idle"
	case SessionStateRecording:
		return "recording"
	case SessionStateEnded:
		return "ended"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// RecordingSession is the recording of one command list. It owns the state
// store and barrier batch for that list and must only be used by the
// goroutine recording it.
type RecordingSession struct {
	ID    uuid.UUID
	state SessionState

	store *tracking.StateStore
	batch *tracking.BarrierBatch
}

func NewRecordingSession(defaults tracking.DefaultStateSupplier, metrics *core.BarrierMetrics) *RecordingSession {
	store := tracking.NewStateStore(defaults)
	var opts []tracking.BatchOption
	if metrics != nil {
		opts = append(opts, tracking.WithMetrics(metrics))
	}
	return &RecordingSession{
		ID:    uuid.New(),
		state: SessionStateIdle,
		store: store,
		batch: tracking.NewBarrierBatch(store, nil, opts...),
	}
}

func (s *RecordingSession) State() SessionState {
	return s.state
}

// Begin starts recording into recorder. Every resource is assumed to be in
// its default state.
func (s *RecordingSession) Begin(recorder CommandRecorder) error {
	if s.state == SessionStateRecording {
		return fmt.Errorf("session %s: begin while recording", s.ID)
	}
	if recorder == nil {
		return fmt.Errorf("session %s: begin with nil recorder", s.ID)
	}
	s.store.Reset()
	s.batch.Discard()
	s.batch.SetRecorder(recorder)
	s.state = SessionStateRecording
	return nil
}

// Transition requests every subresource of h in state.
func (s *RecordingSession) Transition(h metadata.ResourceHandle, state metadata.ResourceState) error {
	return s.TransitionSubresource(h, state, metadata.AllSubresources, metadata.BarrierFlagsNone)
}

func (s *RecordingSession) TransitionSubresource(h metadata.ResourceHandle, state metadata.ResourceState, sub metadata.Subresource, flags metadata.BarrierFlags) error {
	if err := s.checkRecording(); err != nil {
		return err
	}
	if err := s.batch.Transition(h, state, sub, flags); err != nil {
		core.LogError("session %s: %s", s.ID, err)
		return err
	}
	return nil
}

func (s *RecordingSession) Aliasing(before, after metadata.ResourceHandle) error {
	if err := s.checkRecording(); err != nil {
		return err
	}
	s.batch.Aliasing(before, after)
	return nil
}

func (s *RecordingSession) UAV(h metadata.ResourceHandle) error {
	if err := s.checkRecording(); err != nil {
		return err
	}
	s.batch.UAV(h)
	return nil
}

// Flush commits the pending barriers. Call it before recording a command
// that depends on the requested states.
func (s *RecordingSession) Flush() error {
	if err := s.checkRecording(); err != nil {
		return err
	}
	if err := s.batch.Commit(); err != nil {
		core.LogError("session %s: %s", s.ID, err)
		return err
	}
	return nil
}

// Forget stops tracking h, e.g. because it was destroyed mid-recording.
// Pending transitions of h are dropped with it.
func (s *RecordingSession) Forget(h metadata.ResourceHandle) error {
	if err := s.checkRecording(); err != nil {
		return err
	}
	if err := s.store.Forget(h); err != nil {
		return err
	}
	s.batch.Cancel(h)
	return nil
}

// ResourceState returns the tracked state of sub of h as of the last flush.
// Resources the session has not touched report their default state and stay
// untracked.
func (s *RecordingSession) ResourceState(h metadata.ResourceHandle, sub metadata.Subresource) (metadata.ResourceState, error) {
	if !h.IsValid() {
		return metadata.ResourceStateCommon, fmt.Errorf("session %s: %w", s.ID, core.ErrInvalidHandle)
	}
	r, ok := s.store.Lookup(h)
	if !ok {
		return s.store.DefaultState(h), nil
	}
	return r.Query(sub)
}

// Record returns the tracked record of h, if the session touched it.
func (s *RecordingSession) Record(h metadata.ResourceHandle) (*tracking.StateRecord, bool) {
	return s.store.Lookup(h)
}

// Tracked returns the handles touched by the session.
func (s *RecordingSession) Tracked() []metadata.ResourceHandle {
	return s.store.Handles()
}

func (s *RecordingSession) Pending() int {
	return s.batch.Len()
}

// End flushes what is left and stops recording.
func (s *RecordingSession) End() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.state = SessionStateEnded
	return nil
}

// Reset drops all tracked state so the session can be reused.
func (s *RecordingSession) Reset() {
	s.store.Reset()
	s.batch.Discard()
	s.batch.SetRecorder(nil)
	s.state = SessionStateIdle
}

func (s *RecordingSession) checkRecording() error {
	if s.state != SessionStateRecording {
		return fmt.Errorf("session %s is %s: %w", s.ID, s.state, core.ErrSessionNotRecording)
	}
	return nil
}
