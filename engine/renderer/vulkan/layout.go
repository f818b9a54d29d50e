package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

type stateInfo struct {
	layout vk.ImageLayout
	access vk.AccessFlagBits
	stages vk.PipelineStageFlagBits
}

const shaderStages = vk.PipelineStageVertexShaderBit | vk.PipelineStageFragmentShaderBit | vk.PipelineStageComputeShaderBit

var stateInfos = map[metadata.ResourceState]stateInfo{
	metadata.ResourceStateCommon: {
		layout: vk.ImageLayoutGeneral,
		access: vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit,
		stages: vk.PipelineStageAllCommandsBit,
	},
	metadata.ResourceStateVertexAndConstantBuffer: {
		layout: vk.ImageLayoutGeneral,
		access: vk.AccessVertexAttributeReadBit | vk.AccessUniformReadBit,
		stages: vk.PipelineStageVertexInputBit | shaderStages,
	},
	metadata.ResourceStateIndexBuffer: {
		layout: vk.ImageLayoutGeneral,
		access: vk.AccessIndexReadBit,
		stages: vk.PipelineStageVertexInputBit,
	},
	metadata.ResourceStateRenderTarget: {
		layout: vk.ImageLayoutColorAttachmentOptimal,
		access: vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit,
		stages: vk.PipelineStageColorAttachmentOutputBit,
	},
	metadata.ResourceStateUnorderedAccess: {
		layout: vk.ImageLayoutGeneral,
		access: vk.AccessShaderReadBit | vk.AccessShaderWriteBit,
		stages: shaderStages,
	},
	metadata.ResourceStateDepthWrite: {
		layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		access: vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit,
		stages: vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit,
	},
	metadata.ResourceStateDepthRead: {
		layout: vk.ImageLayoutDepthStencilReadOnlyOptimal,
		access: vk.AccessDepthStencilAttachmentReadBit | vk.AccessShaderReadBit,
		stages: vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit | vk.PipelineStageFragmentShaderBit,
	},
	metadata.ResourceStateNonPixelShaderResource: {
		layout: vk.ImageLayoutShaderReadOnlyOptimal,
		access: vk.AccessShaderReadBit,
		stages: vk.PipelineStageVertexShaderBit | vk.PipelineStageComputeShaderBit,
	},
	metadata.ResourceStatePixelShaderResource: {
		layout: vk.ImageLayoutShaderReadOnlyOptimal,
		access: vk.AccessShaderReadBit,
		stages: vk.PipelineStageFragmentShaderBit,
	},
	metadata.ResourceStateShaderResource: {
		layout: vk.ImageLayoutShaderReadOnlyOptimal,
		access: vk.AccessShaderReadBit,
		stages: shaderStages,
	},
	metadata.ResourceStateIndirectArgument: {
		layout: vk.ImageLayoutGeneral,
		access: vk.AccessIndirectCommandReadBit,
		stages: vk.PipelineStageDrawIndirectBit,
	},
	metadata.ResourceStateCopyDest: {
		layout: vk.ImageLayoutTransferDstOptimal,
		access: vk.AccessTransferWriteBit,
		stages: vk.PipelineStageTransferBit,
	},
	metadata.ResourceStateCopySource: {
		layout: vk.ImageLayoutTransferSrcOptimal,
		access: vk.AccessTransferReadBit,
		stages: vk.PipelineStageTransferBit,
	},
	metadata.ResourceStateResolveDest: {
		layout: vk.ImageLayoutTransferDstOptimal,
		access: vk.AccessTransferWriteBit,
		stages: vk.PipelineStageTransferBit,
	},
	metadata.ResourceStateResolveSource: {
		layout: vk.ImageLayoutTransferSrcOptimal,
		access: vk.AccessTransferReadBit,
		stages: vk.PipelineStageTransferBit,
	},
	metadata.ResourceStatePresent: {
		layout: vk.ImageLayoutPresentSrc,
		access: 0,
		stages: vk.PipelineStageBottomOfPipeBit,
	},
}

func lookupState(state metadata.ResourceState) stateInfo {
	if info, ok := stateInfos[state]; ok {
		return info
	}
	return stateInfos[metadata.ResourceStateCommon]
}

// StateLayout returns the image layout used for state.
func StateLayout(state metadata.ResourceState) vk.ImageLayout {
	return lookupState(state).layout
}

// StateAccess returns the memory accesses performed in state.
func StateAccess(state metadata.ResourceState) vk.AccessFlags {
	return vk.AccessFlags(lookupState(state).access)
}

// StateStages returns the pipeline stages that access a resource in state.
func StateStages(state metadata.ResourceState) vk.PipelineStageFlags {
	return vk.PipelineStageFlags(lookupState(state).stages)
}
