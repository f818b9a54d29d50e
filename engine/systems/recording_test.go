package systems

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

func newRecordingSystem(t *testing.T) (*RecordingSystem, *core.BarrierMetrics) {
	t.Helper()
	metrics := core.NewBarrierMetrics()
	pool := renderer.NewSessionPool(2, nil, metrics)
	rs, err := NewRecordingSystem(&RecordingSystemConfig{Workers: 3, QueueSize: 1, PoolSize: 2}, pool)
	if err != nil {
		t.Fatalf("NewRecordingSystem: unexpected error:\n%v", err)
	}
	t.Cleanup(func() { rs.Shutdown() })
	return rs, metrics
}

// Every list drives the same resource handles through its own session.
func TestRecordingSystemIndependentLists(t *testing.T) {
	rs, metrics := newRecordingSystem(t)

	const n = 8
	recorders := make([]*renderer.LogRecorder, n)
	jobs := make([]RecordingJob, n)
	for i := range jobs {
		recorders[i] = renderer.NewLogRecorder(fmt.Sprintf("list-%d", i))
		target := metadata.ResourceStateRenderTarget
		if i%2 == 1 {
			target = metadata.ResourceStateCopyDest
		}
		jobs[i] = RecordingJob{
			Name:     recorders[i].Name,
			Recorder: recorders[i],
			Record: func(s *renderer.RecordingSession) error {
				if err := s.Transition(1, target); err != nil {
					return err
				}
				if err := s.Flush(); err != nil {
					return err
				}
				return s.Transition(2, metadata.ResourceStateShaderResource)
			},
		}
	}

	results := rs.Record(context.Background(), jobs)
	if len(results) != n {
		t.Fatalf("Record: have %d results, want %d", len(results), n)
	}
	for i, res := range results {
		if res.Name != jobs[i].Name {
			t.Fatalf("results[%d].Name:\nhave %s\nwant %s", i, res.Name, jobs[i].Name)
		}
		if res.Err != nil {
			t.Fatalf("results[%d]: unexpected error:\n%v", i, res.Err)
		}
		if res.Tracked != 2 {
			t.Fatalf("results[%d].Tracked:\nhave %d\nwant 2", i, res.Tracked)
		}
		// Sessions never see each other's state, so every list starts from common.
		have := recorders[i].Barriers()
		if len(have) != 2 || have[0].Transition.StateBefore != metadata.ResourceStateCommon {
			t.Fatalf("list %d barriers: unexpected %v", i, have)
		}
		if b := recorders[i].Batches(); b != 2 {
			t.Fatalf("list %d batches:\nhave %d\nwant 2", i, b)
		}
	}

	if s := metrics.Snapshot(); s.Commits != 2*n || s.Emitted != 2*n {
		t.Fatalf("Snapshot: unexpected %+v", s)
	}
}

func TestRecordingSystemReportsErrors(t *testing.T) {
	rs, _ := newRecordingSystem(t)

	jobs := []RecordingJob{
		{
			Name:     "bad-handle",
			Recorder: renderer.NewLogRecorder("bad-handle"),
			Record: func(s *renderer.RecordingSession) error {
				return s.Transition(metadata.InvalidResourceHandle, metadata.ResourceStateRenderTarget)
			},
		},
		{
			Name:     "no-recorder",
			Recorder: nil,
			Record:   func(*renderer.RecordingSession) error { return nil },
		},
		{
			Name:     "ok",
			Recorder: renderer.NewLogRecorder("ok"),
			Record:   func(*renderer.RecordingSession) error { return nil },
		},
	}

	results := rs.Record(context.Background(), jobs)
	if !errors.Is(results[0].Err, core.ErrInvalidHandle) {
		t.Fatalf("results[0].Err:\nhave %v\nwant %v", results[0].Err, core.ErrInvalidHandle)
	}
	if results[1].Err == nil {
		t.Fatal("results[1].Err: want error for a nil recorder")
	}
	if results[2].Err != nil {
		t.Fatalf("results[2]: unexpected error:\n%v", results[2].Err)
	}
}

func TestRecordingSystemCancelled(t *testing.T) {
	rs, _ := newRecordingSystem(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := rs.Record(ctx, []RecordingJob{{
		Name:     "late",
		Recorder: renderer.NewLogRecorder("late"),
		Record: func(*renderer.RecordingSession) error {
			t.Error("Record called after cancellation")
			return nil
		},
	}})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Fatalf("results[0].Err:\nhave %v\nwant %v", results[0].Err, context.Canceled)
	}
}
