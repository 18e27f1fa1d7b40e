package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned uniform holding the scalar surface
// properties of a material for the Cook-Torrance fragment shader. Texture
// presence is handled by shader variants, not by this uniform.
// Matches the WGSL MaterialParams struct layout exactly (see GPUMaterialParamsSource).
// Size: 48 bytes (std430 aligned).
//
// Layout:
//
//	vec4<f32> base_color         (16 bytes, offset  0)
//	vec3<f32> emissive_factor    (12 bytes, offset 16)
//	f32       metallic           ( 4 bytes, offset 28)
//	f32       roughness          ( 4 bytes, offset 32)
//	f32       occlusion_strength ( 4 bytes, offset 36)
//	u32       _pad0              ( 4 bytes, offset 40)
//	u32       _pad1              ( 4 bytes, offset 44)
type GPUMaterialParams struct {
	BaseColor         [4]float32
	EmissiveFactor    [3]float32
	Metallic          float32
	Roughness         float32
	OcclusionStrength float32
	_pad0             uint32
	_pad1             uint32
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.BaseColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.BaseColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.BaseColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.BaseColor[3]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.EmissiveFactor[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.EmissiveFactor[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.EmissiveFactor[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.OcclusionStrength))
	binary.LittleEndian.PutUint32(buf[40:44], 0)
	binary.LittleEndian.PutUint32(buf[44:48], 0)
	return buf
}

// ToGPUMaterialParams extracts the uniform data from a Material.
//
// Parameters:
//   - m: the material to convert
//
// Returns:
//   - GPUMaterialParams: the GPU-ready uniform data
func ToGPUMaterialParams(m Material) GPUMaterialParams {
	return GPUMaterialParams{
		BaseColor:         m.BaseColor(),
		EmissiveFactor:    m.EmissiveFactor(),
		Metallic:          m.Metallic(),
		Roughness:         m.Roughness(),
		OcclusionStrength: m.OcclusionStrength(),
	}
}
