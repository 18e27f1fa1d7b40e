package material

import (
	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/bind_group_provider"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough), clamped to [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = min(max(roughness, 0), 1)
	}
}

// WithEmissiveFactor is an option builder that sets the RGB emissive color added after lighting.
//
// Parameters:
//   - factor: the emissive RGB factor
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive factor option to a material
func WithEmissiveFactor(factor [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveFactor = factor
	}
}

// WithOcclusionStrength is an option builder that sets the occlusion texture weight.
//
// Parameters:
//   - strength: the occlusion strength (0.0 = ignore occlusion, 1.0 = full)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the occlusion strength option to a material
func WithOcclusionStrength(strength float32) MaterialBuilderOption {
	return func(m *material) {
		m.occlusionStrength = strength
	}
}

// WithDoubleSided is an option builder that disables backface culling for the material.
//
// Parameters:
//   - doubleSided: true to render both faces
//
// Returns:
//   - MaterialBuilderOption: a function that applies the double-sided option to a material
func WithDoubleSided(doubleSided bool) MaterialBuilderOption {
	return func(m *material) {
		m.doubleSided = doubleSided
	}
}

// WithAlphaBlend is an option builder that enables alpha blending for the material.
//
// Parameters:
//   - blend: true to render with alpha blending
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha blend option to a material
func WithAlphaBlend(blend bool) MaterialBuilderOption {
	return func(m *material) {
		m.alphaBlend = blend
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse/albedo texture reference.
//
// Parameters:
//   - tex: the imported texture data for the diffuse map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = tex
	}
}

// WithNormalTexture is an option builder that sets the normal map texture reference.
//
// Parameters:
//   - tex: the imported texture data for the normal map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal texture option to a material
func WithNormalTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = tex
	}
}

// WithMetallicRoughnessTexture is an option builder that sets the metallic-roughness texture reference.
//
// Parameters:
//   - tex: the imported texture data for the metallic-roughness map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic-roughness texture option to a material
func WithMetallicRoughnessTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.metallicRoughnessTexture = tex
	}
}

// WithOcclusionTexture is an option builder that sets the ambient occlusion texture reference.
//
// Parameters:
//   - tex: the imported texture data for the occlusion map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the occlusion texture option to a material
func WithOcclusionTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.occlusionTexture = tex
	}
}

// WithEmissiveTexture is an option builder that sets the emissive texture reference.
//
// Parameters:
//   - tex: the imported texture data for the emissive map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive texture option to a material
func WithEmissiveTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveTexture = tex
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key to associate with the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithBindGroupProvider is an option builder that sets the bind group provider for the material.
//
// Parameters:
//   - provider: the bind group provider containing GPU resources for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bind group provider option to a material
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) MaterialBuilderOption {
	return func(m *material) {
		m.bindGroupProvider = provider
	}
}
