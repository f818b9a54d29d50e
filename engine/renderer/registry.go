package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

type ResourceRegistryConfig struct {
	MaxResourceCount int
	// State a resource of the given kind starts every recording in, unless
	// its description names one.
	KindDefaults map[metadata.ResourceKind]metadata.ResourceState
}

// ResourceRegistry knows every live resource and decides the default state
// recording sessions assume for it. Safe for concurrent use.
type ResourceRegistry struct {
	config *ResourceRegistryConfig
	ids    *core.IdentifierPool

	mu        sync.RWMutex
	resources map[metadata.ResourceHandle]metadata.ResourceDescription
	names     map[string]metadata.ResourceHandle
}

func NewResourceRegistry(config *ResourceRegistryConfig) *ResourceRegistry {
	if config == nil {
		config = &ResourceRegistryConfig{}
	}
	return &ResourceRegistry{
		config:    config,
		ids:       core.NewIdentifierPool(config.MaxResourceCount),
		resources: make(map[metadata.ResourceHandle]metadata.ResourceDescription),
		names:     make(map[string]metadata.ResourceHandle),
	}
}

// Create registers desc and returns its handle. Names must be unique when set.
func (rr *ResourceRegistry) Create(desc metadata.ResourceDescription) (metadata.ResourceHandle, error) {
	if desc.InitialState != nil && !desc.InitialState.IsValid() {
		err := fmt.Errorf("resource %q has invalid initial state %v", desc.Name, *desc.InitialState)
		core.LogError(err.Error())
		return metadata.InvalidResourceHandle, err
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	if desc.Name != "" {
		if _, ok := rr.names[desc.Name]; ok {
			err := fmt.Errorf("resource %q already registered", desc.Name)
			core.LogError(err.Error())
			return metadata.InvalidResourceHandle, err
		}
	}
	if limit := rr.config.MaxResourceCount; limit > 0 && len(rr.resources) >= limit {
		err := fmt.Errorf("resource registry is full (max=%d)", limit)
		core.LogError(err.Error())
		return metadata.InvalidResourceHandle, err
	}

	id, err := rr.ids.Acquire(desc.Name)
	if err != nil {
		return metadata.InvalidResourceHandle, err
	}
	h := metadata.ResourceHandle(id)
	rr.resources[h] = desc
	if desc.Name != "" {
		rr.names[desc.Name] = h
	}
	core.LogDebug("registered resource %q (%s) as #%d", desc.Name, desc.Kind, h)
	return h, nil
}

// Destroy unregisters h. Sessions that still track h must Forget it.
func (rr *ResourceRegistry) Destroy(h metadata.ResourceHandle) error {
	if !h.IsValid() {
		return fmt.Errorf("destroy: %w", core.ErrInvalidHandle)
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	desc, ok := rr.resources[h]
	if !ok {
		return fmt.Errorf("destroy #%d: %w", h, core.ErrUnknownResource)
	}
	delete(rr.resources, h)
	if desc.Name != "" {
		delete(rr.names, desc.Name)
	}
	return rr.ids.Release(uint32(h))
}

func (rr *ResourceRegistry) Describe(h metadata.ResourceHandle) (metadata.ResourceDescription, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	desc, ok := rr.resources[h]
	return desc, ok
}

func (rr *ResourceRegistry) Lookup(name string) (metadata.ResourceHandle, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	h, ok := rr.names[name]
	return h, ok
}

func (rr *ResourceRegistry) Len() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.resources)
}

// DefaultState implements tracking.DefaultStateSupplier.
func (rr *ResourceRegistry) DefaultState(h metadata.ResourceHandle) metadata.ResourceState {
	desc, ok := rr.Describe(h)
	if !ok {
		core.LogWarn("default state requested for unregistered resource #%d, assuming %s", h, metadata.ResourceStateCommon)
		return metadata.ResourceStateCommon
	}
	if desc.InitialState != nil {
		return *desc.InitialState
	}
	if s, ok := rr.config.KindDefaults[desc.Kind]; ok {
		return s
	}
	return metadata.ResourceStateCommon
}
