package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/statetrack/engine/config"
	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

const deferredTrace = `
name = "deferred"

[[resources]]
name = "gbuffer"
kind = "render_target"
mip_levels = 1
array_layers = 4

[[resources]]
name = "shadow"
kind = "depth_stencil"

[[resources]]
name = "scratch"
kind = "buffer"

[[lists]]
name = "geometry"

  [[lists.commands]]
  op = "expect"
  resource = "gbuffer"
  state = "render_target"

  [[lists.commands]]
  op = "transition"
  resource = "gbuffer"
  state = "shader_resource"
  layer = 2

  [[lists.commands]]
  op = "commit"

  [[lists.commands]]
  op = "expect"
  resource = "gbuffer"
  state = "shader_resource"
  subresource = 2

  [[lists.commands]]
  op = "transition"
  resource = "gbuffer"
  state = "copy_source"

  [[lists.commands]]
  op = "uav"
  resource = "scratch"

[[lists]]
name = "shadows"

  [[lists.commands]]
  op = "transition"
  resource = "shadow"
  state = "shader_resource"

  [[lists.commands]]
  op = "aliasing"
  resource = "scratch"
  after = "shadow"
`

func TestParseTrace(t *testing.T) {
	tr, err := ParseTrace([]byte(deferredTrace))
	if err != nil {
		t.Fatalf("ParseTrace: unexpected error:\n%v", err)
	}
	if tr.Name != "deferred" || len(tr.Resources) != 3 || len(tr.Lists) != 2 {
		t.Fatalf("ParseTrace: unexpected %+v", tr)
	}
	if k := tr.Resources[1].Kind; k != metadata.ResourceKindDepthStencil {
		t.Fatalf("Resources[1].Kind:\nhave %v\nwant %v", k, metadata.ResourceKindDepthStencil)
	}
	c := tr.Lists[0].Commands[1]
	if c.Op != OpTransition || c.State != metadata.ResourceStateShaderResource || c.Layer == nil || *c.Layer != 2 {
		t.Fatalf("Lists[0].Commands[1]: unexpected %+v", c)
	}
}

func TestParseTraceErrors(t *testing.T) {
	for _, src := range []string{
		"[[resources]]\nkind = \"texture\"\n",
		"[[resources]]\nname = \"a\"\n[[resources]]\nname = \"a\"\n",
		"[[lists]]\nname = \"l\"\n[[lists.commands]]\nop = \"transition\"\nresource = \"ghost\"\n",
		"[[resources]]\nname = \"a\"\n[[lists]]\nname = \"l\"\n[[lists.commands]]\nop = \"jump\"\nresource = \"a\"\n",
		"[[resources]]\nname = \"a\"\n[[lists]]\nname = \"l\"\n[[lists.commands]]\nop = \"transition\"\nresource = \"a\"\nsubresource = 1\nmip = 0\n",
		"[[resources]]\nname = \"a\"\n[[lists]]\nname = \"l\"\n[[lists.commands]]\nop = \"transition\"\nresource = \"a\"\nsubresource = -2\n",
		"[[resources]]\nname = \"a\"\nstate = \"common\"\n",
	} {
		if _, err := ParseTrace([]byte(src)); !errors.Is(err, ErrInvalidTrace) {
			t.Fatalf("ParseTrace(%q):\nhave %v\nwant %v", src, err, ErrInvalidTrace)
		}
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Recording = config.RecordingConfig{Workers: 2, QueueSize: 1, PoolSize: 2}
	return cfg
}

func TestReplayerRun(t *testing.T) {
	tr, err := ParseTrace([]byte(deferredTrace))
	if err != nil {
		t.Fatalf("ParseTrace: unexpected error:\n%v", err)
	}
	report, err := NewReplayer(testConfig()).Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run: unexpected error:\n%v", err)
	}
	if failed := report.Failed(); len(failed) != 0 {
		t.Fatalf("Failed: unexpected %+v", failed)
	}

	geometry := report.Lists[0]
	if geometry.Name != "geometry" || geometry.Batches != 2 {
		t.Fatalf("geometry: unexpected %+v", geometry)
	}
	// layer 2 back to the default, then the whole image to copy_source, then the UAV barrier.
	const rt, srv, cs = metadata.ResourceStateRenderTarget, metadata.ResourceStateShaderResource, metadata.ResourceStateCopySource
	want := []metadata.Barrier{
		metadata.NewTransitionBarrier(1, 2, rt, srv, metadata.BarrierFlagsNone),
		metadata.NewTransitionBarrier(1, 2, srv, rt, metadata.BarrierFlagsNone),
		metadata.NewTransitionBarrier(1, metadata.AllSubresources, rt, cs, metadata.BarrierFlagsNone),
		metadata.NewUAVBarrier(3),
	}
	if len(geometry.Barriers) != len(want) {
		t.Fatalf("geometry barriers:\nhave %v\nwant %v", geometry.Barriers, want)
	}
	for i := range want {
		if geometry.Barriers[i] != want[i] {
			t.Fatalf("geometry barriers[%d]:\nhave %v\nwant %v", i, geometry.Barriers[i], want[i])
		}
	}

	shadows := report.Lists[1]
	if len(shadows.Barriers) != 2 || shadows.Barriers[0].Transition.StateBefore != metadata.ResourceStateDepthWrite {
		t.Fatalf("shadows barriers: unexpected %v", shadows.Barriers)
	}

	wantSummary := []ResourceSummary{{"gbuffer", 3}, {"shadow", 1}}
	if len(report.Resources) != len(wantSummary) {
		t.Fatalf("Resources:\nhave %v\nwant %v", report.Resources, wantSummary)
	}
	for i := range wantSummary {
		if report.Resources[i] != wantSummary[i] {
			t.Fatalf("Resources:\nhave %v\nwant %v", report.Resources, wantSummary)
		}
	}
	if report.Metrics.Emitted != 6 {
		t.Fatalf("Metrics.Emitted:\nhave %d\nwant 6", report.Metrics.Emitted)
	}
	report.Log()
}

func TestReplayerExpectationFailure(t *testing.T) {
	tr, err := ParseTrace([]byte(`
[[resources]]
name = "tex"
kind = "texture"
mip_levels = 2

[[lists]]
name = "wrong"

  [[lists.commands]]
  op = "transition"
  resource = "tex"
  state = "copy_dest"

  [[lists.commands]]
  op = "expect"
  resource = "tex"
  state = "copy_dest"
`))
	if err != nil {
		t.Fatalf("ParseTrace: unexpected error:\n%v", err)
	}
	report, err := NewReplayer(testConfig()).Run(context.Background(), tr)
	if err != nil {
		t.Fatalf("Run: unexpected error:\n%v", err)
	}
	// The transition is still pending, so the expectation sees the default.
	failed := report.Failed()
	if len(failed) != 1 || !errors.Is(failed[0].Err, ErrExpectationFailed) {
		t.Fatalf("Failed: unexpected %+v", failed)
	}
}

func TestReplayerCompileErrors(t *testing.T) {
	tr := &Trace{
		Resources: []ResourceSpec{{Name: "tex", Kind: metadata.ResourceKindTexture, MipLevels: 2}},
		Lists: []CommandList{{
			Name:     "l",
			Commands: []Command{{Op: OpTransition, Resource: "tex", State: metadata.ResourceStateCopyDest, Mip: new(uint32)}},
		}},
	}
	*tr.Lists[0].Commands[0].Mip = 2
	if _, err := NewReplayer(testConfig()).Run(context.Background(), tr); err == nil {
		t.Fatal("Run with out-of-range mip: want error")
	}

	tr.Lists[0].Commands[0] = Command{Op: OpForget, Resource: "ghost"}
	if _, err := NewReplayer(testConfig()).Run(context.Background(), tr); !errors.Is(err, core.ErrUnknownResource) {
		t.Fatalf("Run with unknown resource:\nhave %v\nwant %v", err, core.ErrUnknownResource)
	}
}

func TestLoadTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.toml")
	if err := os.WriteFile(path, []byte("[[resources]]\nname = \"a\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := LoadTrace(path)
	if err != nil {
		t.Fatalf("LoadTrace: unexpected error:\n%v", err)
	}
	if tr.Name != path {
		t.Fatalf("Name:\nhave %s\nwant %s", tr.Name, path)
	}
}

func TestSampleTraces(t *testing.T) {
	cfg, err := config.Load("../../assets/config.toml")
	if err != nil {
		t.Fatalf("config.Load: unexpected error:\n%v", err)
	}
	paths, err := filepath.Glob("../../assets/traces/*.toml")
	if err != nil || len(paths) == 0 {
		t.Fatalf("no sample traces (%v)", err)
	}
	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			tr, err := LoadTrace(p)
			if err != nil {
				t.Fatalf("LoadTrace: unexpected error:\n%v", err)
			}
			report, err := NewReplayer(cfg).Run(context.Background(), tr)
			if err != nil {
				t.Fatalf("Run: unexpected error:\n%v", err)
			}
			if failed := report.Failed(); len(failed) != 0 {
				t.Fatalf("Failed: unexpected %+v", failed)
			}
		})
	}
}
