package vulkan

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	// Number of mip levels and array layers. 0 is treated as 1.
	MipLevels   uint32
	ArrayLayers uint32
	// Aspects covered by barriers on this image. 0 means color.
	Aspect vk.ImageAspectFlags
}

func (img *VulkanImage) mipLevels() uint32 {
	if img.MipLevels == 0 {
		return 1
	}
	return img.MipLevels
}

func (img *VulkanImage) arrayLayers() uint32 {
	if img.ArrayLayers == 0 {
		return 1
	}
	return img.ArrayLayers
}

func (img *VulkanImage) aspect() vk.ImageAspectFlags {
	if img.Aspect == 0 {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	return img.Aspect
}

// SubresourceRange returns the range addressed by sub. Subresource indices
// are mip + layer*MipLevels.
func (img *VulkanImage) SubresourceRange(sub metadata.Subresource) (vk.ImageSubresourceRange, error) {
	if sub == metadata.AllSubresources {
		return vk.ImageSubresourceRange{
			AspectMask:     img.aspect(),
			BaseMipLevel:   0,
			LevelCount:     img.mipLevels(),
			BaseArrayLayer: 0,
			LayerCount:     img.arrayLayers(),
		}, nil
	}
	levels := img.mipLevels()
	mip, layer := uint32(sub)%levels, uint32(sub)/levels
	if layer >= img.arrayLayers() {
		return vk.ImageSubresourceRange{}, fmt.Errorf("subresource %d out of range (mips=%d, layers=%d)", sub, levels, img.arrayLayers())
	}
	return vk.ImageSubresourceRange{
		AspectMask:     img.aspect(),
		BaseMipLevel:   mip,
		LevelCount:     1,
		BaseArrayLayer: layer,
		LayerCount:     1,
	}, nil
}

type VulkanBuffer struct {
	Handle vk.Buffer
	Size   uint64
}

// VulkanResourceTable maps resource handles to the Vulkan objects backing
// them. Safe for concurrent use.
type VulkanResourceTable struct {
	mu      sync.RWMutex
	images  map[metadata.ResourceHandle]*VulkanImage
	buffers map[metadata.ResourceHandle]*VulkanBuffer
}

func NewVulkanResourceTable() *VulkanResourceTable {
	return &VulkanResourceTable{
		images:  make(map[metadata.ResourceHandle]*VulkanImage),
		buffers: make(map[metadata.ResourceHandle]*VulkanBuffer),
	}
}

func (t *VulkanResourceTable) RegisterImage(h metadata.ResourceHandle, img *VulkanImage) error {
	if !h.IsValid() || img == nil {
		return fmt.Errorf("register image #%d: %w", h, core.ErrInvalidHandle)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.buffers, h)
	t.images[h] = img
	return nil
}

func (t *VulkanResourceTable) RegisterBuffer(h metadata.ResourceHandle, buf *VulkanBuffer) error {
	if !h.IsValid() || buf == nil {
		return fmt.Errorf("register buffer #%d: %w", h, core.ErrInvalidHandle)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.images, h)
	t.buffers[h] = buf
	return nil
}

func (t *VulkanResourceTable) Unregister(h metadata.ResourceHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.images, h)
	delete(t.buffers, h)
}

// Resolve returns the image or the buffer registered for h.
func (t *VulkanResourceTable) Resolve(h metadata.ResourceHandle) (*VulkanImage, *VulkanBuffer, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if img, ok := t.images[h]; ok {
		return img, nil, nil
	}
	if buf, ok := t.buffers[h]; ok {
		return nil, buf, nil
	}
	return nil, nil, fmt.Errorf("resource #%d: %w", h, core.ErrUnknownResource)
}
