package renderer

import (
	"sync"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
	"github.com/spaghettifunk/statetrack/engine/renderer/tracking"
)

// CommandRecorder receives the barriers of a recording session. The Vulkan
// backend implements it on top of a command buffer.
type CommandRecorder = tracking.BarrierRecorder

// LogRecorder is a CommandRecorder that logs every barrier and keeps a copy.
// Used when replaying traces without a device.
type LogRecorder struct {
	Name string

	mu       sync.Mutex
	batches  int
	barriers []metadata.Barrier
}

func NewLogRecorder(name string) *LogRecorder {
	return &LogRecorder{Name: name}
}

func (r *LogRecorder) RecordBarriers(barriers []metadata.Barrier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches++
	for _, b := range barriers {
		core.LogDebug("[%s] batch %d: %s", r.Name, r.batches, b)
	}
	r.barriers = append(r.barriers, barriers...)
	return nil
}

// Barriers returns every barrier recorded so far.
func (r *LogRecorder) Barriers() []metadata.Barrier {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]metadata.Barrier, len(r.barriers))
	copy(out, r.barriers)
	return out
}

// Batches returns the number of RecordBarriers calls.
func (r *LogRecorder) Batches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}
