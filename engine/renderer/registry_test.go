package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

func statePtr(s metadata.ResourceState) *metadata.ResourceState {
	return &s
}

func TestRegistryDefaults(t *testing.T) {
	rr := NewResourceRegistry(&ResourceRegistryConfig{
		KindDefaults: map[metadata.ResourceKind]metadata.ResourceState{
			metadata.ResourceKindRenderTarget: metadata.ResourceStateRenderTarget,
			metadata.ResourceKindDepthStencil: metadata.ResourceStateDepthWrite,
		},
	})

	cases := []struct {
		desc metadata.ResourceDescription
		want metadata.ResourceState
	}{
		{metadata.ResourceDescription{Name: "vb", Kind: metadata.ResourceKindBuffer}, metadata.ResourceStateCommon},
		{metadata.ResourceDescription{Name: "albedo", Kind: metadata.ResourceKindRenderTarget}, metadata.ResourceStateRenderTarget},
		{metadata.ResourceDescription{Name: "depth", Kind: metadata.ResourceKindDepthStencil}, metadata.ResourceStateDepthWrite},
		{metadata.ResourceDescription{Name: "backbuffer", Kind: metadata.ResourceKindRenderTarget, InitialState: statePtr(metadata.ResourceStatePresent)}, metadata.ResourceStatePresent},
	}
	for _, c := range cases {
		h, err := rr.Create(c.desc)
		if err != nil {
			t.Fatalf("Create(%q): unexpected error:\n%v", c.desc.Name, err)
		}
		if s := rr.DefaultState(h); s != c.want {
			t.Fatalf("DefaultState(%q):\nhave %v\nwant %v", c.desc.Name, s, c.want)
		}
		if got, ok := rr.Lookup(c.desc.Name); !ok || got != h {
			t.Fatalf("Lookup(%q):\nhave %d, %t\nwant %d, true", c.desc.Name, got, ok, h)
		}
	}

	if s := rr.DefaultState(99); s != metadata.ResourceStateCommon {
		t.Fatalf("DefaultState(unregistered):\nhave %v\nwant %v", s, metadata.ResourceStateCommon)
	}
}

func TestRegistryCreateDestroy(t *testing.T) {
	rr := NewResourceRegistry(&ResourceRegistryConfig{MaxResourceCount: 2})

	a, err := rr.Create(metadata.ResourceDescription{Name: "a"})
	if err != nil {
		t.Fatalf("Create(a): unexpected error:\n%v", err)
	}
	if _, err := rr.Create(metadata.ResourceDescription{Name: "a"}); err == nil {
		t.Fatal("Create(a) twice: unexpected success")
	}
	if _, err := rr.Create(metadata.ResourceDescription{Name: "b"}); err != nil {
		t.Fatalf("Create(b): unexpected error:\n%v", err)
	}
	if _, err := rr.Create(metadata.ResourceDescription{Name: "c"}); err == nil {
		t.Fatal("Create(c) past MaxResourceCount: unexpected success")
	}
	if _, err := rr.Create(metadata.ResourceDescription{Name: "bad", InitialState: statePtr(metadata.ResourceState(250))}); err == nil {
		t.Fatal("Create with invalid initial state: unexpected success")
	}

	if err := rr.Destroy(a); err != nil {
		t.Fatalf("Destroy(a): unexpected error:\n%v", err)
	}
	if _, ok := rr.Describe(a); ok {
		t.Fatal("Describe(a): still registered")
	}
	if err := rr.Destroy(a); !errors.Is(err, core.ErrUnknownResource) {
		t.Fatalf("Destroy(a) twice:\nhave %v\nwant %v", err, core.ErrUnknownResource)
	}
	if err := rr.Destroy(metadata.InvalidResourceHandle); !errors.Is(err, core.ErrInvalidHandle) {
		t.Fatalf("Destroy(0):\nhave %v\nwant %v", err, core.ErrInvalidHandle)
	}

	// Name and slot are free again.
	if _, err := rr.Create(metadata.ResourceDescription{Name: "a"}); err != nil {
		t.Fatalf("Create(a) after Destroy: unexpected error:\n%v", err)
	}
	if n := rr.Len(); n != 2 {
		t.Fatalf("Len:\nhave %d\nwant 2", n)
	}
}
