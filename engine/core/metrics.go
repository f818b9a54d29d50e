package core

import "sync"

const AVG_COUNT uint8 = 30

// BarrierMetrics accumulates barrier statistics across commits. It may be
// shared by sessions recording on different goroutines.
type BarrierMetrics struct {
	mu sync.Mutex

	commitAVGCounter uint8
	perCommit        [AVG_COUNT]float64
	avgPerCommit     float64

	commits   uint64
	requested uint64
	emitted   uint64
	elided    uint64
}

// MetricsSnapshot is a point-in-time copy of BarrierMetrics.
type MetricsSnapshot struct {
	Commits   uint64
	Requested uint64
	Emitted   uint64
	Elided    uint64
	// Rolling average of barriers per commit over the last AVG_COUNT commits.
	AvgPerCommit float64
}

func NewBarrierMetrics() *BarrierMetrics {
	return &BarrierMetrics{}
}

// RecordRequest counts one transition request and whether it produced no barrier.
func (m *BarrierMetrics) RecordRequest(elided bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requested++
	if elided {
		m.elided++
	}
}

// RecordCommit counts one non-empty commit of barrierCount barriers.
func (m *BarrierMetrics) RecordCommit(barrierCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commits++
	m.emitted += uint64(barrierCount)

	m.perCommit[m.commitAVGCounter] = float64(barrierCount)
	if m.commitAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += m.perCommit[i]
		}
		m.avgPerCommit = sum / float64(AVG_COUNT)
	}
	m.commitAVGCounter++
	m.commitAVGCounter %= AVG_COUNT
}

func (m *BarrierMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MetricsSnapshot{
		Commits:      m.commits,
		Requested:    m.requested,
		Emitted:      m.emitted,
		Elided:       m.elided,
		AvgPerCommit: m.avgPerCommit,
	}
}
