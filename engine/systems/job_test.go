package systems

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestJobSystemConfig(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Fatalf("NewJobSystem(0, 1):\nhave %v\nwant %v", err, ErrNoWorkers)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Fatalf("NewJobSystem(1, -1):\nhave %v\nwant %v", err, ErrNegativeChannelSize)
	}
}

func TestJobSystemRunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(4, 2)
	if err != nil {
		t.Fatalf("NewJobSystem: unexpected error:\n%v", err)
	}

	var ok, failed atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 20; i++ {
		fail := i%5 == 0
		err := js.Submit(JobTask{
			Name: "job",
			Run: func() error {
				if fail {
					return boom
				}
				return nil
			},
			OnComplete: func() { ok.Add(1) },
			OnFailure: func(err error) {
				if errors.Is(err, boom) {
					failed.Add(1)
				}
			},
		})
		if err != nil {
			t.Fatalf("Submit: unexpected error:\n%v", err)
		}
	}
	if err := js.Shutdown(); err != nil {
		t.Fatalf("Shutdown: unexpected error:\n%v", err)
	}

	if ok.Load() != 16 || failed.Load() != 4 {
		t.Fatalf("completed/failed:\nhave %d/%d\nwant 16/4", ok.Load(), failed.Load())
	}
	if err := js.Submit(JobTask{Run: func() error { return nil }}); !errors.Is(err, ErrJobSystemClosed) {
		t.Fatalf("Submit after Shutdown:\nhave %v\nwant %v", err, ErrJobSystemClosed)
	}
	if err := js.Shutdown(); err != nil {
		t.Fatalf("Shutdown twice: unexpected error:\n%v", err)
	}
}
