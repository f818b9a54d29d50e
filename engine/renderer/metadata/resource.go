package metadata

import (
	"fmt"
	"math"
)

/**
 * @brief Opaque identity of a GPU resource. Compared by value, which is
 * identity since handles are handed out uniquely by the resource registry.
 */
type ResourceHandle uint32

/** @brief The null handle. Never refers to a resource. */
const InvalidResourceHandle ResourceHandle = 0

func (h ResourceHandle) IsValid() bool {
	return h != InvalidResourceHandle
}

/**
 * @brief Index of an independently stateable part of a resource. For textures
 * this is mip + layer*mipLevels.
 */
type Subresource uint32

/** @brief Addresses every subresource of a resource at once. */
const AllSubresources Subresource = math.MaxUint32

func (s Subresource) String() string {
	if s == AllSubresources {
		return "all"
	}
	return fmt.Sprintf("%d", uint32(s))
}

type ResourceKind int

/** @brief Pre-defined resource kinds. */
const (
	ResourceKindBuffer ResourceKind = iota
	ResourceKindTexture
	ResourceKindRenderTarget
	ResourceKindDepthStencil
)

var resourceKindNames = map[ResourceKind]string{
	ResourceKindBuffer:       "buffer",
	ResourceKindTexture:      "texture",
	ResourceKindRenderTarget: "render_target",
	ResourceKindDepthStencil: "depth_stencil",
}

func (k ResourceKind) String() string {
	if n, ok := resourceKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

func (k ResourceKind) MarshalText() ([]byte, error) {
	n, ok := resourceKindNames[k]
	if !ok {
		return nil, fmt.Errorf("invalid resource kind %d", int(k))
	}
	return []byte(n), nil
}

func (k *ResourceKind) UnmarshalText(text []byte) error {
	for kind, n := range resourceKindNames {
		if n == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown resource kind %q", string(text))
}

/**
 * @brief Describes a resource known to the renderer.
 */
type ResourceDescription struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The kind of resource. */
	Kind ResourceKind
	/** @brief Number of mip levels. 0 is treated as 1. */
	MipLevels uint32
	/** @brief Number of array layers. 0 is treated as 1. */
	ArrayLayers uint32
	/** @brief State the resource starts every recording in. nil defers to the per-kind default. */
	InitialState *ResourceState
}

func (d *ResourceDescription) mipLevels() uint32 {
	if d.MipLevels == 0 {
		return 1
	}
	return d.MipLevels
}

func (d *ResourceDescription) arrayLayers() uint32 {
	if d.ArrayLayers == 0 {
		return 1
	}
	return d.ArrayLayers
}

/**
 * @brief Number of independently stateable subresources. Buffers have one.
 */
func (d *ResourceDescription) SubresourceCount() uint32 {
	if d.Kind == ResourceKindBuffer {
		return 1
	}
	return d.mipLevels() * d.arrayLayers()
}

/**
 * @brief Returns the subresource index of the given mip level and array layer.
 */
func (d *ResourceDescription) SubresourceIndex(mip, layer uint32) (Subresource, error) {
	if mip >= d.mipLevels() || layer >= d.arrayLayers() {
		return 0, fmt.Errorf("subresource (mip=%d, layer=%d) out of range for %q (mips=%d, layers=%d)",
			mip, layer, d.Name, d.mipLevels(), d.arrayLayers())
	}
	return Subresource(mip + layer*d.mipLevels()), nil
}

/**
 * @brief Inverse of SubresourceIndex.
 */
func (d *ResourceDescription) MipAndLayer(sub Subresource) (mip, layer uint32) {
	levels := d.mipLevels()
	return uint32(sub) % levels, uint32(sub) / levels
}
