package systems

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer"
)

type RecordingSystemConfig struct {
	Workers   int
	QueueSize int
	PoolSize  int
}

// RecordingJob records one command list.
type RecordingJob struct {
	Name     string
	Recorder renderer.CommandRecorder
	Record   func(session *renderer.RecordingSession) error
}

type RecordingResult struct {
	Name string
	// Resource states tracked by the session when it ended.
	Tracked int
	Err     error
}

// RecordingSystem records command lists in parallel, each in its own session.
type RecordingSystem struct {
	jobs *JobSystem
	pool *renderer.SessionPool
}

func NewRecordingSystem(config *RecordingSystemConfig, pool *renderer.SessionPool) (*RecordingSystem, error) {
	js, err := NewJobSystem(config.Workers, config.QueueSize)
	if err != nil {
		return nil, err
	}
	return &RecordingSystem{
		jobs: js,
		pool: pool,
	}, nil
}

// Record runs every job and returns their results in input order. Jobs that
// have not started when ctx is done fail with ctx's error.
func (rs *RecordingSystem) Record(ctx context.Context, jobs []RecordingJob) []RecordingResult {
	results := make([]RecordingResult, len(jobs))
	var wg sync.WaitGroup

	for i := range jobs {
		job := jobs[i]
		res := &results[i]
		res.Name = job.Name

		wg.Add(1)
		err := rs.jobs.Submit(JobTask{
			Name: job.Name,
			Run: func() error {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					res.Err = err
					return err
				}
				res.Tracked, res.Err = rs.record(job)
				return res.Err
			},
		})
		if err != nil {
			wg.Done()
			res.Err = err
		}
	}

	wg.Wait()
	return results
}

func (rs *RecordingSystem) record(job RecordingJob) (int, error) {
	session := rs.pool.Acquire()
	defer rs.pool.Release(session)

	if err := session.Begin(job.Recorder); err != nil {
		return 0, err
	}
	if err := job.Record(session); err != nil {
		return len(session.Tracked()), fmt.Errorf("list %q: %w", job.Name, err)
	}
	if err := session.End(); err != nil {
		return len(session.Tracked()), fmt.Errorf("list %q: %w", job.Name, err)
	}
	core.LogDebug("list %q recorded in session %s", job.Name, session.ID)
	return len(session.Tracked()), nil
}

func (rs *RecordingSystem) Shutdown() error {
	return rs.jobs.Shutdown()
}
