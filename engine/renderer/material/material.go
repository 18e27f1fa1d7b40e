package material

import (
	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/bind_group_provider"
)

// material is the implementation of the Material interface.
type material struct {
	name                     string
	baseColor                [4]float32
	metallic                 float32
	roughness                float32
	emissiveFactor           [3]float32
	occlusionStrength        float32
	doubleSided              bool
	alphaBlend               bool
	diffuseTexture           *common.ImportedTexture
	normalTexture            *common.ImportedTexture
	metallicRoughnessTexture *common.ImportedTexture
	occlusionTexture         *common.ImportedTexture
	emissiveTexture          *common.ImportedTexture
	pipelineKey              string
	bindGroupProvider        bind_group_provider.BindGroupProvider
}

// Material defines the interface for a render material, encapsulating surface
// properties, texture references, and GPU resource bindings needed for draw calls.
//
// Surface properties (name, base color, metallic, roughness, emissive, occlusion,
// textures) are set at load time and are read-only through this interface. GPU
// resource references (pipeline key, bind group provider) are mutable so they can
// be configured after construction during the GPU-init phase.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// EmissiveFactor retrieves the RGB emissive color added after lighting.
	//
	// Returns:
	//   - [3]float32: the emissive factor
	EmissiveFactor() [3]float32

	// OcclusionStrength retrieves the weight of the occlusion texture
	// (0.0 = ignore occlusion, 1.0 = full occlusion).
	//
	// Returns:
	//   - float32: the occlusion strength
	OcclusionStrength() float32

	// DoubleSided reports whether backface culling is disabled for this material.
	//
	// Returns:
	//   - bool: true if both faces render
	DoubleSided() bool

	// AlphaBlend reports whether this material renders with alpha blending
	// instead of opaque writes.
	//
	// Returns:
	//   - bool: true if the material blends
	AlphaBlend() bool

	// DiffuseTexture retrieves the diffuse/albedo texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the diffuse texture, or nil
	DiffuseTexture() *common.ImportedTexture

	// NormalTexture retrieves the normal map texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the normal texture, or nil
	NormalTexture() *common.ImportedTexture

	// MetallicRoughnessTexture retrieves the metallic-roughness texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the metallic-roughness texture, or nil
	MetallicRoughnessTexture() *common.ImportedTexture

	// OcclusionTexture retrieves the ambient occlusion texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the occlusion texture, or nil
	OcclusionTexture() *common.ImportedTexture

	// EmissiveTexture retrieves the emissive texture data reference, or nil if none is set.
	//
	// Returns:
	//   - *common.ImportedTexture: the emissive texture, or nil
	EmissiveTexture() *common.ImportedTexture

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:         [4]float32{1, 1, 1, 1},
		metallic:          0.0,
		roughness:         1.0,
		occlusionStrength: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// NewMaterialFromImported builds a render Material from raw imported material
// data, forwarding every surface property and texture reference.
//
// Parameters:
//   - im: the imported material data
//
// Returns:
//   - Material: a new Material mirroring the imported properties
func NewMaterialFromImported(im common.ImportedMaterial) Material {
	return NewMaterial(
		WithName(im.Name),
		WithBaseColor(im.BaseColor),
		WithMetallic(im.Metallic),
		WithRoughness(im.Roughness),
		WithEmissiveFactor(im.EmissiveFactor),
		WithOcclusionStrength(im.OcclusionStrength),
		WithDoubleSided(im.DoubleSided),
		WithAlphaBlend(im.AlphaBlend),
		WithDiffuseTexture(im.DiffuseTexture),
		WithNormalTexture(im.NormalTexture),
		WithMetallicRoughnessTexture(im.MetallicRoughnessTexture),
		WithOcclusionTexture(im.OcclusionTexture),
		WithEmissiveTexture(im.EmissiveTexture),
	)
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) EmissiveFactor() [3]float32 {
	return m.emissiveFactor
}

func (m *material) OcclusionStrength() float32 {
	return m.occlusionStrength
}

func (m *material) DoubleSided() bool {
	return m.doubleSided
}

func (m *material) AlphaBlend() bool {
	return m.alphaBlend
}

func (m *material) DiffuseTexture() *common.ImportedTexture {
	return m.diffuseTexture
}

func (m *material) NormalTexture() *common.ImportedTexture {
	return m.normalTexture
}

func (m *material) MetallicRoughnessTexture() *common.ImportedTexture {
	return m.metallicRoughnessTexture
}

func (m *material) OcclusionTexture() *common.ImportedTexture {
	return m.occlusionTexture
}

func (m *material) EmissiveTexture() *common.ImportedTexture {
	return m.emissiveTexture
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
