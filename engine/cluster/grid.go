// Package cluster divides the camera frustum into a 3D grid of clusters for
// light culling. The grid is formed by uniform screen-space tiles in X and Y
// and logarithmic depth slices in Z, so cluster volumes stay roughly cubical
// across the depth range. Cluster bounds are computed on the CPU whenever the
// projection changes; per-frame light assignment runs in a compute shader,
// with AssignLights serving as the reference implementation for validation.
package cluster

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/lux-go/common"
)

// ClusterBounds holds the view-space bounds of a single cluster: the exact
// frustum-section AABB and the sphere that encloses it. The culling pass
// tests light spheres against the bounding sphere, which admits a light
// slightly outside the AABB corners but never rejects an intersecting one.
type ClusterBounds struct {
	// MinPoint is the minimum corner of the view-space AABB.
	MinPoint [3]float32

	// MaxPoint is the maximum corner of the view-space AABB.
	MaxPoint [3]float32

	// Center is the center of the bounding sphere (AABB midpoint).
	Center [3]float32

	// Radius is the bounding sphere radius (half the AABB diagonal).
	Radius float32
}

// Grid describes a cluster grid: screen tile counts, depth slice count, and
// the projection parameters the slices are derived from. A Grid is immutable
// after construction; build a new one when the screen size or projection changes.
type Grid struct {
	countX uint32
	countY uint32
	countZ uint32

	screenWidth  int
	screenHeight int

	near float32
	far  float32
}

// NewGrid creates a cluster grid with the given dimensions and projection range.
//
// Parameters:
//   - countX, countY: screen tile counts in X and Y
//   - countZ: number of logarithmic depth slices
//   - screenWidth, screenHeight: viewport size in pixels
//   - near, far: the projection's near and far plane distances
//
// Returns:
//   - *Grid: the constructed grid
//   - error: error if any dimension is zero or the depth range is invalid
func NewGrid(countX, countY, countZ uint32, screenWidth, screenHeight int, near, far float32) (*Grid, error) {
	if countX == 0 || countY == 0 || countZ == 0 {
		return nil, fmt.Errorf("cluster: grid dimensions must be non-zero, got %dx%dx%d", countX, countY, countZ)
	}
	if screenWidth <= 0 || screenHeight <= 0 {
		return nil, fmt.Errorf("cluster: screen size must be positive, got %dx%d", screenWidth, screenHeight)
	}
	if near <= 0 || far <= near {
		return nil, fmt.Errorf("cluster: depth range requires 0 < near < far, got near=%f far=%f", near, far)
	}
	return &Grid{
		countX:       countX,
		countY:       countY,
		countZ:       countZ,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		near:         near,
		far:          far,
	}, nil
}

// CountX returns the number of screen tiles in X.
func (g *Grid) CountX() uint32 { return g.countX }

// CountY returns the number of screen tiles in Y.
func (g *Grid) CountY() uint32 { return g.countY }

// CountZ returns the number of depth slices.
func (g *Grid) CountZ() uint32 { return g.countZ }

// Near returns the near plane distance the slices are derived from.
func (g *Grid) Near() float32 { return g.near }

// Far returns the far plane distance the slices are derived from.
func (g *Grid) Far() float32 { return g.far }

// ClusterCount returns the total number of clusters in the grid.
//
// Returns:
//   - uint32: countX × countY × countZ
func (g *Grid) ClusterCount() uint32 {
	return g.countX * g.countY * g.countZ
}

// TileSize returns the pixel size of one screen tile. The last row and column
// of tiles may extend past the screen edge when the resolution does not divide
// evenly.
//
// Returns:
//   - width, height: tile size in pixels
func (g *Grid) TileSize() (width, height float32) {
	return float32(g.screenWidth) / float32(g.countX),
		float32(g.screenHeight) / float32(g.countY)
}

// ClusterIndex flattens 3D cluster coordinates into a linear index.
// X varies fastest, then Y, then Z.
//
// Parameters:
//   - x, y, z: the cluster coordinates (must be within the grid)
//
// Returns:
//   - uint32: the flattened index
func (g *Grid) ClusterIndex(x, y, z uint32) uint32 {
	return x + y*g.countX + z*g.countX*g.countY
}

// ClusterCoords recovers 3D cluster coordinates from a linear index.
// Inverse of ClusterIndex.
//
// Parameters:
//   - index: the flattened cluster index
//
// Returns:
//   - x, y, z: the cluster coordinates
func (g *Grid) ClusterCoords(index uint32) (x, y, z uint32) {
	x = index % g.countX
	y = (index / g.countX) % g.countY
	z = index / (g.countX * g.countY)
	return x, y, z
}

// SliceScale returns the multiplier of the logarithmic slice mapping,
// countZ / ln(far / near). Together with SliceBias it lets a shader compute
// slice = floor(ln(depth) * scale + bias) without a log per parameter.
//
// Returns:
//   - float32: the slice scale factor
func (g *Grid) SliceScale() float32 {
	return float32(float64(g.countZ) / math.Log(float64(g.far)/float64(g.near)))
}

// SliceBias returns the offset of the logarithmic slice mapping,
// -countZ * ln(near) / ln(far / near).
//
// Returns:
//   - float32: the slice bias term
func (g *Grid) SliceBias() float32 {
	return float32(-float64(g.countZ) * math.Log(float64(g.near)) / math.Log(float64(g.far)/float64(g.near)))
}

// SliceForDepth returns the depth slice containing the given positive
// view-space depth. Depths at or before the near plane map to slice 0 and
// depths at or beyond the far plane map to the last slice.
//
// Parameters:
//   - depth: view-space depth (distance in front of the camera)
//
// Returns:
//   - uint32: the slice index in [0, countZ-1]
func (g *Grid) SliceForDepth(depth float32) uint32 {
	if depth <= g.near {
		return 0
	}
	slice := int64(math.Floor(float64(g.SliceScale())*math.Log(float64(depth)) + float64(g.SliceBias())))
	if slice < 0 {
		return 0
	}
	if slice >= int64(g.countZ) {
		return g.countZ - 1
	}
	return uint32(slice)
}

// SliceDepth returns the view-space depth of the near boundary of slice k,
// near * (far / near)^(k / countZ). Passing k = countZ yields the far plane.
//
// Parameters:
//   - k: the slice boundary index in [0, countZ]
//
// Returns:
//   - float32: the boundary depth
func (g *Grid) SliceDepth(k uint32) float32 {
	ratio := float64(g.far) / float64(g.near)
	return float32(float64(g.near) * math.Pow(ratio, float64(k)/float64(g.countZ)))
}

// BuildBounds computes view-space bounds for every cluster in the grid.
// Each cluster's screen tile corners are unprojected through the inverse
// projection and intersected with its slice depth planes, giving the eight
// corners of the cluster's frustum section. The AABB over those corners and
// its enclosing sphere are recorded per cluster.
//
// The result is indexed by ClusterIndex and must be rebuilt whenever the
// projection matrix or screen size changes.
//
// Parameters:
//   - invProj: the inverse projection matrix (16 elements, column-major)
//
// Returns:
//   - []ClusterBounds: bounds for all ClusterCount() clusters
func (g *Grid) BuildBounds(invProj []float32) []ClusterBounds {
	bounds := make([]ClusterBounds, g.ClusterCount())

	// Unproject the corner rays of every tile column/row boundary once.
	// rayNear[i][j] and rayFar[i][j] are the view-space points where the
	// (i, j) tile corner ray crosses the near and far planes.
	nx := int(g.countX) + 1
	ny := int(g.countY) + 1
	rayNear := make([][3]float32, nx*ny)
	rayFar := make([][3]float32, nx*ny)
	for j := 0; j < ny; j++ {
		ndcY := -1.0 + 2.0*float32(j)/float32(g.countY)
		for i := 0; i < nx; i++ {
			ndcX := -1.0 + 2.0*float32(i)/float32(g.countX)
			x0, y0, z0 := common.UnprojectPoint(invProj, ndcX, ndcY, 0)
			x1, y1, z1 := common.UnprojectPoint(invProj, ndcX, ndcY, 1)
			rayNear[j*nx+i] = [3]float32{x0, y0, z0}
			rayFar[j*nx+i] = [3]float32{x1, y1, z1}
		}
	}

	for z := uint32(0); z < g.countZ; z++ {
		// View space looks down -Z, so slice depths are negated.
		sliceNear := -g.SliceDepth(z)
		sliceFar := -g.SliceDepth(z + 1)

		for y := uint32(0); y < g.countY; y++ {
			for x := uint32(0); x < g.countX; x++ {
				minP := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
				maxP := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

				for _, corner := range [4][2]uint32{{x, y}, {x + 1, y}, {x, y + 1}, {x + 1, y + 1}} {
					idx := int(corner[1])*nx + int(corner[0])
					p0 := rayNear[idx]
					p1 := rayFar[idx]

					// Intersect the corner ray with both slice planes.
					for _, planeZ := range [2]float32{sliceNear, sliceFar} {
						p := intersectZPlane(p0, p1, planeZ)
						for c := 0; c < 3; c++ {
							if p[c] < minP[c] {
								minP[c] = p[c]
							}
							if p[c] > maxP[c] {
								maxP[c] = p[c]
							}
						}
					}
				}

				center := [3]float32{
					(minP[0] + maxP[0]) * 0.5,
					(minP[1] + maxP[1]) * 0.5,
					(minP[2] + maxP[2]) * 0.5,
				}
				dx := maxP[0] - center[0]
				dy := maxP[1] - center[1]
				dz := maxP[2] - center[2]
				radius := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))

				bounds[g.ClusterIndex(x, y, z)] = ClusterBounds{
					MinPoint: minP,
					MaxPoint: maxP,
					Center:   center,
					Radius:   radius,
				}
			}
		}
	}

	return bounds
}

// intersectZPlane returns the point where the segment p0→p1 crosses the plane
// z = planeZ. The segment always spans the near-to-far depth range, so the
// denominator is non-zero for any slice plane inside that range.
func intersectZPlane(p0, p1 [3]float32, planeZ float32) [3]float32 {
	t := (planeZ - p0[2]) / (p1[2] - p0[2])
	return [3]float32{
		p0[0] + t*(p1[0]-p0[0]),
		p0[1] + t*(p1[1]-p0[1]),
		planeZ,
	}
}
