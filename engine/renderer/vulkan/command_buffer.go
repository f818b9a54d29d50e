package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/statetrack/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

// WrapVulkanCommandBuffer wraps a command buffer allocated elsewhere.
func WrapVulkanCommandBuffer(handle vk.CommandBuffer) *VulkanCommandBuffer {
	state := COMMAND_BUFFER_STATE_READY
	if handle == nil {
		state = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	return &VulkanCommandBuffer{
		Handle: handle,
		State:  state,
	}
}

func (v *VulkanCommandBuffer) Begin(
	is_single_use,
	is_renderpass_continue,
	is_simultaneous_use bool) error {

	if v.State != COMMAND_BUFFER_STATE_READY {
		err := fmt.Errorf("cannot begin command buffer in state %d", v.State)
		core.LogError(err.Error())
		return err
	}

	vBeginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}

	if is_single_use {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if is_renderpass_continue {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if is_simultaneous_use {
		vBeginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, vBeginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin command buffer with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING

	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if v.State != COMMAND_BUFFER_STATE_RECORDING {
		err := fmt.Errorf("cannot end command buffer in state %d", v.State)
		core.LogError(err.Error())
		return err
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		err := fmt.Errorf("failed to end command buffer with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// Reset marks the command buffer ready for a new recording. Buffers that
// were never allocated stay unallocated.
func (v *VulkanCommandBuffer) Reset() {
	if v.Handle == nil {
		v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
		return
	}
	v.State = COMMAND_BUFFER_STATE_READY
}
