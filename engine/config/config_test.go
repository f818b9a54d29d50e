package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/statetrack/engine/renderer"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate: unexpected error:\n%v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[logging]
level = "debug"

[recording]
workers = 2
queue_size = 0
pool_size = 3

[resources]
max_resource_count = 16

[resources.defaults]
texture = "shader_resource"
`))
	if err != nil {
		t.Fatalf("Parse: unexpected error:\n%v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.ReportCaller {
		t.Fatalf("Logging: unexpected %+v", cfg.Logging)
	}
	if cfg.Recording != (RecordingConfig{Workers: 2, QueueSize: 0, PoolSize: 3}) {
		t.Fatalf("Recording: unexpected %+v", cfg.Recording)
	}

	rc := cfg.RegistryConfig()
	if rc.MaxResourceCount != 16 {
		t.Fatalf("MaxResourceCount:\nhave %d\nwant 16", rc.MaxResourceCount)
	}
	if s := rc.KindDefaults[metadata.ResourceKindTexture]; s != metadata.ResourceStateShaderResource {
		t.Fatalf("KindDefaults[texture]:\nhave %v\nwant %v", s, metadata.ResourceStateShaderResource)
	}

	reg := renderer.NewResourceRegistry(rc)
	h, err := reg.Create(metadata.ResourceDescription{Name: "albedo", Kind: metadata.ResourceKindTexture, MipLevels: 4, ArrayLayers: 1})
	if err != nil {
		t.Fatalf("Create: unexpected error:\n%v", err)
	}
	if s := reg.DefaultState(h); s != metadata.ResourceStateShaderResource {
		t.Fatalf("DefaultState:\nhave %v\nwant %v", s, metadata.ResourceStateShaderResource)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"[recording]\nworkers = 0\n",
		"[recording]\npool_size = 0\n",
		"[resources]\nmax_resource_count = 0\n",
		"[resources.defaults]\nmesh = \"common\"\n",
		"[resources.defaults]\ntexture = \"sideways\"\n",
		"[recording]\nthreads = 4\n",
		"[recording\n",
	} {
		if _, err := Parse([]byte(src)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("Parse(%q):\nhave %v\nwant %v", src, err, ErrInvalidConfig)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Recording.Workers = 7
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: unexpected error:\n%v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Encode()): unexpected error:\n%v\n%s", err, data)
	}
	if back.Recording.Workers != 7 {
		t.Fatalf("Recording.Workers:\nhave %d\nwant 7", back.Recording.Workers)
	}
	if s := back.Resources.Defaults["depth_stencil"]; s != metadata.ResourceStateDepthWrite {
		t.Fatalf("Defaults[depth_stencil]:\nhave %v\nwant %v", s, metadata.ResourceStateDepthWrite)
	}
}

func TestLoadAndWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[recording]\nworkers = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error:\n%v", err)
	}
	if cfg.Recording.Workers != 1 {
		t.Fatalf("Recording.Workers:\nhave %d\nwant 1", cfg.Recording.Workers)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("Load(missing): want error")
	}

	changed := make(chan string, 8)
	w, err := NewWatcher(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: unexpected error:\n%v", err)
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		t.Fatalf("Add: unexpected error:\n%v", err)
	}

	// Files next to the watched one are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[recording]\nworkers = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		if p != abs {
			t.Fatalf("changed:\nhave %s\nwant %s", p, abs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}
