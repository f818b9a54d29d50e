package metadata

import "fmt"

/**
 * @brief The usage state a resource (or one of its subresources) is in.
 * Only equality is meaningful to the state tracker; the backend maps each
 * value to its own notion of layout/access.
 */
type ResourceState uint8

const (
	/** @brief The common state. Default for most resources. */
	ResourceStateCommon ResourceState = iota
	ResourceStateVertexAndConstantBuffer
	ResourceStateIndexBuffer
	ResourceStateRenderTarget
	ResourceStateUnorderedAccess
	ResourceStateDepthWrite
	ResourceStateDepthRead
	ResourceStateNonPixelShaderResource
	ResourceStatePixelShaderResource
	/** @brief Readable from any shader stage. */
	ResourceStateShaderResource
	ResourceStateIndirectArgument
	ResourceStateCopyDest
	ResourceStateCopySource
	ResourceStateResolveDest
	ResourceStateResolveSource
	/** @brief Ready to be handed to the presentation engine. */
	ResourceStatePresent

	resourceStateCount
)

var resourceStateNames = [resourceStateCount]string{
	ResourceStateCommon:                  "common",
	ResourceStateVertexAndConstantBuffer: "vertex_and_constant_buffer",
	ResourceStateIndexBuffer:             "index_buffer",
	ResourceStateRenderTarget:            "render_target",
	ResourceStateUnorderedAccess:         "unordered_access",
	ResourceStateDepthWrite:              "depth_write",
	ResourceStateDepthRead:               "depth_read",
	ResourceStateNonPixelShaderResource:  "non_pixel_shader_resource",
	ResourceStatePixelShaderResource:     "pixel_shader_resource",
	ResourceStateShaderResource:          "shader_resource",
	ResourceStateIndirectArgument:        "indirect_argument",
	ResourceStateCopyDest:                "copy_dest",
	ResourceStateCopySource:              "copy_source",
	ResourceStateResolveDest:             "resolve_dest",
	ResourceStateResolveSource:           "resolve_source",
	ResourceStatePresent:                 "present",
}

func (s ResourceState) IsValid() bool {
	return s < resourceStateCount
}

func (s ResourceState) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("ResourceState(%d)", uint8(s))
	}
	return resourceStateNames[s]
}

func (s ResourceState) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid resource state %d", uint8(s))
	}
	return []byte(resourceStateNames[s]), nil
}

func (s *ResourceState) UnmarshalText(text []byte) error {
	v, err := ParseResourceState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

/**
 * @brief Parses the snake_case name of a resource state.
 */
func ParseResourceState(name string) (ResourceState, error) {
	for i, n := range resourceStateNames {
		if n == name {
			return ResourceState(i), nil
		}
	}
	return ResourceStateCommon, fmt.Errorf("unknown resource state %q", name)
}
