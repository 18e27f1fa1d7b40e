package pipeline

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Descriptor is the full logical description of a pipeline: shader keys,
// primitive state, depth state, blend state, and target formats. The renderer
// caches pipelines by the hash of a normalized descriptor, so two descriptors
// that differ only in fields irrelevant to their pipeline type resolve to the
// same GPU pipeline.
//
// Construct render descriptors with DefaultRenderDescriptor and compute
// descriptors with DefaultComputeDescriptor so unset fields carry the engine
// defaults rather than Go zero values.
type Descriptor struct {
	// Type selects render or compute. Compute descriptors ignore all render state.
	Type PipelineType

	// VertexShaderKey and FragmentShaderKey identify the shader pair of a
	// render pipeline, including the fragment variant key.
	VertexShaderKey   string
	FragmentShaderKey string

	// ComputeShaderKey identifies the shader of a compute pipeline.
	ComputeShaderKey string

	Topology  wgpu.PrimitiveTopology
	CullMode  wgpu.CullMode
	FrontFace wgpu.FrontFace

	DepthTestEnabled    bool
	DepthWriteEnabled   bool
	DepthBias           int32
	DepthBiasSlopeScale float32

	BlendEnabled bool
	// BlendState is the blend configuration when BlendEnabled is set. A nil
	// BlendState with blending enabled normalizes to standard alpha blending.
	BlendState *wgpu.BlendState

	WriteMask wgpu.ColorWriteMask

	// ColorFormat is the color target format. TextureFormatUndefined means
	// the surface format, which is the default for the main pass.
	ColorFormat wgpu.TextureFormat

	// DepthFormat is the depth attachment format of the main pass.
	DepthFormat wgpu.TextureFormat

	// SampleCount is the MSAA sample count of the target.
	SampleCount uint32
}

// standardAlphaBlend is the blend preset applied when blending is enabled
// without an explicit blend state. Matches the NewPipeline default.
func standardAlphaBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// DefaultRenderDescriptor creates a render descriptor with the engine's
// default state: triangle list, no culling, CCW front face, depth test and
// write enabled, no blending, full write mask, surface color format,
// Depth24Plus, one sample.
//
// Parameters:
//   - vertexKey: the vertex shader key
//   - fragmentKey: the fragment shader key including the variant key
//
// Returns:
//   - Descriptor: the render descriptor
func DefaultRenderDescriptor(vertexKey, fragmentKey string) Descriptor {
	return Descriptor{
		Type:              PipelineTypeRender,
		VertexShaderKey:   vertexKey,
		FragmentShaderKey: fragmentKey,
		Topology:          wgpu.PrimitiveTopologyTriangleList,
		CullMode:          wgpu.CullModeNone,
		FrontFace:         wgpu.FrontFaceCCW,
		DepthTestEnabled:  true,
		DepthWriteEnabled: true,
		WriteMask:         wgpu.ColorWriteMaskAll,
		ColorFormat:       wgpu.TextureFormatUndefined,
		DepthFormat:       wgpu.TextureFormatDepth24Plus,
		SampleCount:       1,
	}
}

// DefaultComputeDescriptor creates a compute descriptor. Compute pipelines
// carry no render state.
//
// Parameters:
//   - computeKey: the compute shader key
//
// Returns:
//   - Descriptor: the compute descriptor
func DefaultComputeDescriptor(computeKey string) Descriptor {
	return Descriptor{
		Type:             PipelineTypeCompute,
		ComputeShaderKey: computeKey,
	}
}

// Normalize returns a copy of the descriptor with every field that cannot
// affect the resulting GPU pipeline forced to its default, so that logically
// identical descriptors hash identically. Compute descriptors drop all render
// state; disabled depth testing drops bias terms; disabled blending drops the
// blend state, and enabled blending without a state gets the alpha preset.
//
// Returns:
//   - Descriptor: the normalized copy
func (d Descriptor) Normalize() Descriptor {
	n := d

	if n.Type == PipelineTypeCompute {
		return Descriptor{
			Type:             PipelineTypeCompute,
			ComputeShaderKey: n.ComputeShaderKey,
		}
	}

	n.ComputeShaderKey = ""

	if !n.DepthTestEnabled {
		n.DepthBias = 0
		n.DepthBiasSlopeScale = 0
	}

	if !n.BlendEnabled {
		n.BlendState = nil
	} else if n.BlendState == nil {
		n.BlendState = standardAlphaBlend()
	}

	if n.SampleCount == 0 {
		n.SampleCount = 1
	}

	return n
}

// Canonical renders the normalized descriptor as a deterministic string.
// Fields holding their default value are omitted, so descriptors that spell
// the defaults explicitly and descriptors that leave them implicit produce
// the same canonical form.
//
// Returns:
//   - string: the canonical descriptor string
func (d Descriptor) Canonical() string {
	n := d.Normalize()
	var sb strings.Builder

	if n.Type == PipelineTypeCompute {
		fmt.Fprintf(&sb, "type=compute;cs=%s;", n.ComputeShaderKey)
		return sb.String()
	}

	fmt.Fprintf(&sb, "type=render;vs=%s;fs=%s;", n.VertexShaderKey, n.FragmentShaderKey)

	if n.Topology != wgpu.PrimitiveTopologyTriangleList {
		fmt.Fprintf(&sb, "topo=%d;", n.Topology)
	}
	if n.CullMode != wgpu.CullModeNone {
		fmt.Fprintf(&sb, "cull=%d;", n.CullMode)
	}
	if n.FrontFace != wgpu.FrontFaceCCW {
		fmt.Fprintf(&sb, "face=%d;", n.FrontFace)
	}
	if !n.DepthTestEnabled {
		sb.WriteString("depth_test=0;")
	}
	if !n.DepthWriteEnabled {
		sb.WriteString("depth_write=0;")
	}
	if n.DepthBias != 0 {
		fmt.Fprintf(&sb, "depth_bias=%d;", n.DepthBias)
	}
	if n.DepthBiasSlopeScale != 0 {
		fmt.Fprintf(&sb, "depth_slope=%g;", n.DepthBiasSlopeScale)
	}
	if n.BlendEnabled {
		bs := n.BlendState
		fmt.Fprintf(&sb, "blend=%d,%d,%d,%d,%d,%d;",
			bs.Color.SrcFactor, bs.Color.DstFactor, bs.Color.Operation,
			bs.Alpha.SrcFactor, bs.Alpha.DstFactor, bs.Alpha.Operation)
	}
	if n.WriteMask != wgpu.ColorWriteMaskAll {
		fmt.Fprintf(&sb, "mask=%d;", n.WriteMask)
	}
	if n.ColorFormat != wgpu.TextureFormatUndefined {
		fmt.Fprintf(&sb, "color=%d;", n.ColorFormat)
	}
	if n.DepthFormat != wgpu.TextureFormatDepth24Plus {
		fmt.Fprintf(&sb, "depth=%d;", n.DepthFormat)
	}
	if n.SampleCount != 1 {
		fmt.Fprintf(&sb, "samples=%d;", n.SampleCount)
	}

	return sb.String()
}

// Hash returns the FNV-1a hash of the canonical descriptor string. This is
// the pipeline cache key: descriptors that normalize to the same state hash
// to the same value.
//
// Returns:
//   - uint64: the descriptor hash
func (d Descriptor) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(d.Canonical()))
	return h.Sum64()
}

// Key returns the descriptor hash formatted as a pipeline cache key string.
//
// Returns:
//   - string: the cache key, e.g. "pl:a1b2c3d4e5f60718"
func (d Descriptor) Key() string {
	return fmt.Sprintf("pl:%016x", d.Hash())
}
