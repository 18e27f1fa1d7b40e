package cluster

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUClusterBoundsSource is the canonical WGSL definition of the ClusterBounds struct.
// Matches GPUClusterBounds layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/cluster_bounds.wgsl
var GPUClusterBoundsSource string

// GPUClusterBounds is the GPU-aligned bounding sphere of a single cluster.
// Matches the WGSL ClusterBounds struct layout exactly (see GPUClusterBoundsSource).
// Size: 16 bytes (vec3 + f32, std430 aligned).
type GPUClusterBounds struct {
	Center [3]float32 // offset  0: view-space sphere center
	Radius float32    // offset 12: sphere radius
}

// Size returns the size of the GPUClusterBounds struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUClusterBounds) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUClusterBounds struct into a byte buffer suitable
// for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUClusterBounds) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Center[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Center[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Center[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Radius))
	return buf
}

// MarshalBoundsBuffer marshals the full cluster bounds slice into a single
// byte buffer for the bounds storage buffer, keeping ClusterIndex order.
//
// Parameters:
//   - bounds: the per-cluster bounds from Grid.BuildBounds
//
// Returns:
//   - []byte: buffer of 16 bytes per cluster ready for GPU upload
func MarshalBoundsBuffer(bounds []ClusterBounds) []byte {
	buf := make([]byte, len(bounds)*16)
	for i, b := range bounds {
		g := GPUClusterBounds{Center: b.Center, Radius: b.Radius}
		copy(buf[i*16:(i+1)*16], g.Marshal())
	}
	return buf
}

// GPUClusterCullUniformsSource is the canonical WGSL definition of the
// ClusterCullUniforms struct. Matches GPUClusterCullUniforms layout exactly
// (96 bytes, std430 aligned).
//
//go:embed assets/cluster_cull_uniforms.wgsl
var GPUClusterCullUniformsSource string

// GPUClusterCullUniforms is the uniform data for the light culling compute
// shader: the view matrix used to bring lights into the bounds' view space,
// the grid dimensions, the per-cluster list capacity, and the active light count.
// Matches the WGSL ClusterCullUniforms struct layout exactly (see
// GPUClusterCullUniformsSource). Size: 96 bytes.
//
// Layout:
//
//	mat4x4<f32> view_matrix            (64 bytes, offset  0)
//	u32         cluster_count_x        ( 4 bytes, offset 64)
//	u32         cluster_count_y        ( 4 bytes, offset 68)
//	u32         cluster_count_z        ( 4 bytes, offset 72)
//	u32         max_lights_per_cluster ( 4 bytes, offset 76)
//	u32         light_count            ( 4 bytes, offset 80)
//	u32         _pad0                  ( 4 bytes, offset 84)
//	u32         _pad1                  ( 4 bytes, offset 88)
//	u32         _pad2                  ( 4 bytes, offset 92)
type GPUClusterCullUniforms struct {
	ViewMatrix          [16]float32
	ClusterCountX       uint32
	ClusterCountY       uint32
	ClusterCountZ       uint32
	MaxLightsPerCluster uint32
	LightCount          uint32
	_pad0               uint32
	_pad1               uint32
	_pad2               uint32
}

// Size returns the size of the GPUClusterCullUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (u *GPUClusterCullUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUClusterCullUniforms into a 96-byte little-endian
// buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (u *GPUClusterCullUniforms) Marshal() []byte {
	buf := make([]byte, 96)
	off := 0
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.ViewMatrix[i]))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ClusterCountX)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ClusterCountY)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ClusterCountZ)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.MaxLightsPerCluster)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.LightCount)
	off += 4
	for range 3 {
		binary.LittleEndian.PutUint32(buf[off:off+4], 0)
		off += 4
	}
	return buf
}

// GPUClusterShadeUniformsSource is the canonical WGSL definition of the
// ClusterShadeUniforms struct. Matches GPUClusterShadeUniforms layout exactly
// (48 bytes, std430 aligned).
//
//go:embed assets/cluster_shade_uniforms.wgsl
var GPUClusterShadeUniformsSource string

// GPUClusterShadeUniforms is the uniform data the clustered fragment shader
// uses to locate a fragment's cluster: the logarithmic slice mapping terms,
// the tile pixel size, the grid dimensions, and the list capacity.
// Matches the WGSL ClusterShadeUniforms struct layout exactly (see
// GPUClusterShadeUniformsSource). Size: 48 bytes.
//
// Layout:
//
//	f32 slice_scale            ( 4 bytes, offset  0)
//	f32 slice_bias             ( 4 bytes, offset  4)
//	f32 tile_size_x            ( 4 bytes, offset  8)
//	f32 tile_size_y            ( 4 bytes, offset 12)
//	u32 cluster_count_x        ( 4 bytes, offset 16)
//	u32 cluster_count_y        ( 4 bytes, offset 20)
//	u32 cluster_count_z        ( 4 bytes, offset 24)
//	u32 max_lights_per_cluster ( 4 bytes, offset 28)
//	f32 near                   ( 4 bytes, offset 32)
//	f32 far                    ( 4 bytes, offset 36)
//	u32 _pad0                  ( 4 bytes, offset 40)
//	u32 _pad1                  ( 4 bytes, offset 44)
type GPUClusterShadeUniforms struct {
	SliceScale          float32
	SliceBias           float32
	TileSizeX           float32
	TileSizeY           float32
	ClusterCountX       uint32
	ClusterCountY       uint32
	ClusterCountZ       uint32
	MaxLightsPerCluster uint32
	Near                float32
	Far                 float32
	_pad0               uint32
	_pad1               uint32
}

// Size returns the size of the GPUClusterShadeUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (u *GPUClusterShadeUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUClusterShadeUniforms into a 48-byte little-endian
// buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (u *GPUClusterShadeUniforms) Marshal() []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(u.SliceScale))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(u.SliceBias))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(u.TileSizeX))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(u.TileSizeY))
	binary.LittleEndian.PutUint32(buf[16:20], u.ClusterCountX)
	binary.LittleEndian.PutUint32(buf[20:24], u.ClusterCountY)
	binary.LittleEndian.PutUint32(buf[24:28], u.ClusterCountZ)
	binary.LittleEndian.PutUint32(buf[28:32], u.MaxLightsPerCluster)
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(u.Near))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(u.Far))
	binary.LittleEndian.PutUint32(buf[40:44], 0)
	binary.LittleEndian.PutUint32(buf[44:48], 0)
	return buf
}

// ShadeUniformsForGrid builds the fragment-side cluster uniforms from a grid.
//
// Parameters:
//   - g: the cluster grid
//
// Returns:
//   - GPUClusterShadeUniforms: uniforms ready to marshal
func ShadeUniformsForGrid(g *Grid) GPUClusterShadeUniforms {
	tileW, tileH := g.TileSize()
	return GPUClusterShadeUniforms{
		SliceScale:          g.SliceScale(),
		SliceBias:           g.SliceBias(),
		TileSizeX:           tileW,
		TileSizeY:           tileH,
		ClusterCountX:       g.CountX(),
		ClusterCountY:       g.CountY(),
		ClusterCountZ:       g.CountZ(),
		MaxLightsPerCluster: 0, // set by the scene from its configured capacity
		Near:                g.Near(),
		Far:                 g.Far(),
	}
}
