package renderer

import (
	"sync"

	"github.com/spaghettifunk/statetrack/engine/containers"
	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/tracking"
)

// SessionPool recycles recording sessions. Safe for concurrent use; the
// sessions it hands out are not.
type SessionPool struct {
	defaults tracking.DefaultStateSupplier
	metrics  *core.BarrierMetrics

	mu   sync.Mutex
	free *containers.RingQueue[*RecordingSession]
}

func NewSessionPool(size int, defaults tracking.DefaultStateSupplier, metrics *core.BarrierMetrics) *SessionPool {
	if size < 1 {
		size = 1
	}
	return &SessionPool{
		defaults: defaults,
		metrics:  metrics,
		free:     containers.NewRingQueue[*RecordingSession](size),
	}
}

// Acquire returns an idle session with no tracked state.
func (p *SessionPool) Acquire() *RecordingSession {
	p.mu.Lock()
	s, err := p.free.Dequeue()
	p.mu.Unlock()
	if err != nil {
		return NewRecordingSession(p.defaults, p.metrics)
	}
	return s
}

// Release resets s and keeps it for reuse. Sessions beyond the pool size
// are dropped.
func (p *SessionPool) Release(s *RecordingSession) {
	if s == nil {
		return
	}
	s.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.free.Enqueue(s); err != nil {
		core.LogDebug("session pool full, dropping session %s", s.ID)
	}
}

func (p *SessionPool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Len()
}

func (p *SessionPool) Metrics() *core.BarrierMetrics {
	return p.metrics
}
