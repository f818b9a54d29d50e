package replay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/statetrack/engine/config"
	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
	"github.com/spaghettifunk/statetrack/engine/systems"
)

// ErrExpectationFailed is returned when an expect command sees another state.
var ErrExpectationFailed = fmt.Errorf("expectation failed")

type ListReport struct {
	Name     string
	Barriers []metadata.Barrier
	Batches  int
	Tracked  int
	Err      error
}

type ResourceSummary struct {
	Name        string
	Transitions int
}

type Report struct {
	Trace     string
	Lists     []ListReport
	Resources []ResourceSummary
	Metrics   core.MetricsSnapshot
	Elapsed   time.Duration
}

// Failed returns the lists that did not record cleanly.
func (r *Report) Failed() []ListReport {
	var out []ListReport
	for _, l := range r.Lists {
		if l.Err != nil {
			out = append(out, l)
		}
	}
	return out
}

func (r *Report) Log() {
	core.LogInfo("trace %q: %d list(s) in %s", r.Trace, len(r.Lists), r.Elapsed)
	for _, l := range r.Lists {
		if l.Err != nil {
			core.LogError("  %s: %s", l.Name, l.Err)
			continue
		}
		core.LogInfo("  %s: %d barrier(s) in %d batch(es), %d resource(s) tracked", l.Name, len(l.Barriers), l.Batches, l.Tracked)
	}
	for _, s := range r.Resources {
		core.LogInfo("  %-24s %d transition(s)", s.Name, s.Transitions)
	}
	m := r.Metrics
	core.LogInfo("requested=%d elided=%d emitted=%d commits=%d avg/commit=%.2f",
		m.Requested, m.Elided, m.Emitted, m.Commits, m.AvgPerCommit)
}

// Replayer records traces without a device, through LogRecorders.
type Replayer struct {
	config *config.Config
}

func NewReplayer(cfg *config.Config) *Replayer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Replayer{config: cfg}
}

// Run registers the trace's resources and records every list in parallel.
// The returned error covers setup only; per-list failures are in the report.
func (rp *Replayer) Run(ctx context.Context, tr *Trace) (*Report, error) {
	clock := core.NewClock()
	clock.Start()

	registry := renderer.NewResourceRegistry(rp.config.RegistryConfig())
	handles := make(map[string]metadata.ResourceHandle, len(tr.Resources))
	names := make(map[metadata.ResourceHandle]string, len(tr.Resources))
	for _, res := range tr.Resources {
		h, err := registry.Create(metadata.ResourceDescription{
			Name:         res.Name,
			Kind:         res.Kind,
			MipLevels:    res.MipLevels,
			ArrayLayers:  res.ArrayLayers,
			InitialState: res.InitialState,
		})
		if err != nil {
			return nil, err
		}
		handles[res.Name] = h
		names[h] = res.Name
	}

	jobs := make([]systems.RecordingJob, len(tr.Lists))
	recorders := make([]*renderer.LogRecorder, len(tr.Lists))
	for i, l := range tr.Lists {
		steps, err := compile(l, registry, handles)
		if err != nil {
			return nil, err
		}
		recorders[i] = renderer.NewLogRecorder(l.Name)
		jobs[i] = systems.RecordingJob{
			Name:     l.Name,
			Recorder: recorders[i],
			Record: func(s *renderer.RecordingSession) error {
				for n, st := range steps {
					if err := st(s); err != nil {
						return fmt.Errorf("command %d: %w", n, err)
					}
				}
				return nil
			},
		}
	}

	metrics := core.NewBarrierMetrics()
	pool := renderer.NewSessionPool(rp.config.Recording.PoolSize, registry, metrics)
	rs, err := systems.NewRecordingSystem(rp.config.RecordingSystemConfig(), pool)
	if err != nil {
		return nil, err
	}
	results := rs.Record(ctx, jobs)
	if err := rs.Shutdown(); err != nil {
		return nil, err
	}

	report := &Report{Trace: tr.Name}
	transitions := make(map[string]int)
	for i, res := range results {
		barriers := recorders[i].Barriers()
		report.Lists = append(report.Lists, ListReport{
			Name:     res.Name,
			Barriers: barriers,
			Batches:  recorders[i].Batches(),
			Tracked:  res.Tracked,
			Err:      res.Err,
		})
		for _, b := range barriers {
			if b.Type == metadata.BarrierTypeTransition {
				transitions[names[b.Transition.Resource]]++
			}
		}
	}
	for name, n := range transitions {
		report.Resources = append(report.Resources, ResourceSummary{Name: name, Transitions: n})
	}
	slices.SortFunc(report.Resources, func(a, b ResourceSummary) int {
		if a.Transitions != b.Transitions {
			return b.Transitions - a.Transitions
		}
		return strings.Compare(a.Name, b.Name)
	})

	report.Metrics = metrics.Snapshot()
	clock.Stop()
	report.Elapsed = clock.Elapsed()
	return report, nil
}

type step func(s *renderer.RecordingSession) error

// compile resolves names and subresources up front so recording only
// touches the session.
func compile(l CommandList, registry *renderer.ResourceRegistry, handles map[string]metadata.ResourceHandle) ([]step, error) {
	steps := make([]step, 0, len(l.Commands))
	for i, c := range l.Commands {
		wrap := func(err error) error {
			return fmt.Errorf("list %q command %d: %w", l.Name, i, err)
		}

		h, ok := handles[c.Resource]
		if !ok && c.Op != OpCommit {
			return nil, wrap(fmt.Errorf("resource %q: %w", c.Resource, core.ErrUnknownResource))
		}

		switch c.Op {
		case OpTransition, OpExpect:
			desc, _ := registry.Describe(h)
			sub, err := c.subresource(desc)
			if err != nil {
				return nil, wrap(err)
			}
			if c.Op == OpTransition {
				steps = append(steps, func(s *renderer.RecordingSession) error {
					return s.TransitionSubresource(h, c.State, sub, c.Flags)
				})
				continue
			}
			steps = append(steps, func(s *renderer.RecordingSession) error {
				have, err := s.ResourceState(h, sub)
				if err != nil {
					return err
				}
				if have != c.State {
					return fmt.Errorf("%s[%v] is %s, want %s: %w", c.Resource, sub, have, c.State, ErrExpectationFailed)
				}
				return nil
			})
		case OpAliasing:
			after, ok := handles[c.After]
			if !ok {
				return nil, wrap(fmt.Errorf("resource %q: %w", c.After, core.ErrUnknownResource))
			}
			steps = append(steps, func(s *renderer.RecordingSession) error {
				return s.Aliasing(h, after)
			})
		case OpUAV:
			steps = append(steps, func(s *renderer.RecordingSession) error {
				return s.UAV(h)
			})
		case OpForget:
			steps = append(steps, func(s *renderer.RecordingSession) error {
				return s.Forget(h)
			})
		case OpCommit:
			steps = append(steps, func(s *renderer.RecordingSession) error {
				return s.Flush()
			})
		default:
			return nil, wrap(fmt.Errorf("unknown op %q", c.Op))
		}
	}
	return steps, nil
}
