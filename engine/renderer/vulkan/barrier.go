package vulkan

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

var ErrCommandBufferNotRecording = errors.New("command buffer is not recording")

// pipelineBarrier holds the arguments of one vkCmdPipelineBarrier call.
type pipelineBarrier struct {
	srcStages vk.PipelineStageFlags
	dstStages vk.PipelineStageFlags
	memory    []vk.MemoryBarrier
	buffers   []vk.BufferMemoryBarrier
	images    []vk.ImageMemoryBarrier
}

func (pb *pipelineBarrier) empty() bool {
	return len(pb.memory) == 0 && len(pb.buffers) == 0 && len(pb.images) == 0
}

// VulkanBarrierRecorder records barrier batches into a command buffer.
type VulkanBarrierRecorder struct {
	CommandBuffer *VulkanCommandBuffer
	resources     *VulkanResourceTable
}

func NewVulkanBarrierRecorder(cb *VulkanCommandBuffer, resources *VulkanResourceTable) *VulkanBarrierRecorder {
	return &VulkanBarrierRecorder{
		CommandBuffer: cb,
		resources:     resources,
	}
}

// RecordBarriers emits barriers as a single vkCmdPipelineBarrier.
func (r *VulkanBarrierRecorder) RecordBarriers(barriers []metadata.Barrier) error {
	if r.CommandBuffer == nil || r.CommandBuffer.State != COMMAND_BUFFER_STATE_RECORDING {
		core.LogError(ErrCommandBufferNotRecording.Error())
		return ErrCommandBufferNotRecording
	}

	pb, err := buildPipelineBarrier(barriers, r.resources)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	if pb.empty() {
		return nil
	}

	vk.CmdPipelineBarrier(
		r.CommandBuffer.Handle,
		pb.srcStages,
		pb.dstStages,
		0,
		uint32(len(pb.memory)), pb.memory,
		uint32(len(pb.buffers)), pb.buffers,
		uint32(len(pb.images)), pb.images,
	)
	return nil
}

func buildPipelineBarrier(barriers []metadata.Barrier, resources *VulkanResourceTable) (*pipelineBarrier, error) {
	pb := &pipelineBarrier{}
	for _, b := range barriers {
		// Vulkan has no split pipeline barrier. The begin half is dropped and
		// the end half carries the whole transition.
		if b.Flags == metadata.BarrierFlagsBeginOnly {
			continue
		}

		switch b.Type {
		case metadata.BarrierTypeTransition:
			if err := pb.addTransition(b.Transition, resources); err != nil {
				return nil, err
			}
		case metadata.BarrierTypeAliasing:
			// No aliasing barrier in Vulkan: make every prior write visible to
			// every later access.
			pb.addMemory(
				vk.AccessFlags(vk.AccessMemoryWriteBit),
				vk.AccessFlags(vk.AccessMemoryReadBit|vk.AccessMemoryWriteBit),
				vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
				vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
			)
		case metadata.BarrierTypeUAV:
			pb.addMemory(
				vk.AccessFlags(vk.AccessShaderWriteBit),
				vk.AccessFlags(vk.AccessShaderReadBit|vk.AccessShaderWriteBit),
				vk.PipelineStageFlags(shaderStages),
				vk.PipelineStageFlags(shaderStages),
			)
		default:
			return nil, fmt.Errorf("unsupported barrier type %v", b.Type)
		}
	}

	if pb.srcStages == 0 {
		pb.srcStages = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	if pb.dstStages == 0 {
		pb.dstStages = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	return pb, nil
}

func (pb *pipelineBarrier) addMemory(src, dst vk.AccessFlags, srcStages, dstStages vk.PipelineStageFlags) {
	pb.memory = append(pb.memory, vk.MemoryBarrier{
		SType:         vk.StructureTypeMemoryBarrier,
		SrcAccessMask: src,
		DstAccessMask: dst,
	})
	pb.srcStages |= srcStages
	pb.dstStages |= dstStages
}

func (pb *pipelineBarrier) addTransition(t metadata.TransitionBarrier, resources *VulkanResourceTable) error {
	if resources == nil {
		return fmt.Errorf("resource #%d: %w", t.Resource, core.ErrUnknownResource)
	}
	img, buf, err := resources.Resolve(t.Resource)
	if err != nil {
		return err
	}

	pb.srcStages |= StateStages(t.StateBefore)
	pb.dstStages |= StateStages(t.StateAfter)

	if buf != nil {
		pb.buffers = append(pb.buffers, vk.BufferMemoryBarrier{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       StateAccess(t.StateBefore),
			DstAccessMask:       StateAccess(t.StateAfter),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              buf.Handle,
			Offset:              0,
			Size:                vk.DeviceSize(vk.WholeSize),
		})
		return nil
	}

	subresourceRange, err := img.SubresourceRange(t.Subresource)
	if err != nil {
		return fmt.Errorf("resource #%d: %w", t.Resource, err)
	}
	pb.images = append(pb.images, vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       StateAccess(t.StateBefore),
		DstAccessMask:       StateAccess(t.StateAfter),
		OldLayout:           StateLayout(t.StateBefore),
		NewLayout:           StateLayout(t.StateAfter),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange:    subresourceRange,
	})
	return nil
}
