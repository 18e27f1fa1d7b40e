package shader

import (
	_ "embed"
	"fmt"
)

// PBRVertexSource is the annotated WGSL source for the clustered forward
// vertex stage. The vertex stage is variant-independent: every mesh uploads
// the full vertex layout with defaults in unused streams.
//
//go:embed assets/pbr_vert.wgsl
var PBRVertexSource string

// PBRFragmentSource is the annotated WGSL source for the clustered forward
// fragment stage. It contains //#if blocks for every variant flag; pass a
// Variant's defines to Process to compile a concrete variant.
//
//go:embed assets/pbr_frag.wgsl
var PBRFragmentSource string

// ClusterCullSource is the annotated WGSL source for the light culling
// compute pass.
//
//go:embed assets/cluster_cull.wgsl
var ClusterCullSource string

// NewPBRVertexShader creates the clustered forward vertex shader. All variants
// share it, so its key is constant.
//
// Returns:
//   - Shader: the vertex shader
func NewPBRVertexShader() Shader {
	return NewShaderFromSource("pbr_vert", ShaderTypeVertex, PBRVertexSource)
}

// NewPBRFragmentShader creates the clustered forward fragment shader for a
// specific variant. The shader key embeds the variant's canonical key, so
// equal feature sets resolve to the same cached shader.
//
// Parameters:
//   - v: the resolved shader variant
//
// Returns:
//   - Shader: the fragment shader compiled with the variant's defines
func NewPBRFragmentShader(v Variant) Shader {
	key := fmt.Sprintf("pbr_frag:%s", v.Key())
	return NewShaderFromSource(key, ShaderTypeFragment, PBRFragmentSource, v.Defines()...)
}

// NewClusterCullShader creates the light culling compute shader.
//
// Returns:
//   - Shader: the compute shader
func NewClusterCullShader() Shader {
	return NewShaderFromSource("cluster_cull", ShaderTypeCompute, ClusterCullSource)
}
