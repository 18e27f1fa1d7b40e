package cluster

import (
	"math"

	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/light"
)

// AssignLights computes the per-cluster light lists on the CPU using the same
// sphere-vs-sphere test the culling compute shader runs on the GPU. It exists
// as the reference implementation for validating shader output and for tests;
// the render path never calls it per frame.
//
// A light is assigned to a cluster when the light's bounding sphere (position
// and range, transformed to view space) intersects the cluster's bounding
// sphere. Lights with a non-positive range are unbounded and land in every
// cluster. When more than maxPerCluster lights intersect a cluster, the list
// is truncated keeping the lights with the lowest buffer indices.
//
// Parameters:
//   - bounds: per-cluster view-space bounds from Grid.BuildBounds
//   - lights: the marshaled light array in GPU buffer order
//   - view: the camera view matrix (16 elements, column-major)
//   - maxPerCluster: the per-cluster light list capacity
//
// Returns:
//   - [][]uint32: light indices per cluster, indexed by ClusterIndex
func AssignLights(bounds []ClusterBounds, lights []light.GPULight, view []float32, maxPerCluster int) [][]uint32 {
	result := make([][]uint32, len(bounds))

	// Transform light positions to view space once.
	viewPos := make([][3]float32, len(lights))
	for i, l := range lights {
		var p [4]float32
		common.MulVec4(p[:], view, []float32{l.Position[0], l.Position[1], l.Position[2], 1})
		viewPos[i] = [3]float32{p[0], p[1], p[2]}
	}

	for ci, cb := range bounds {
		var list []uint32
		for li := range lights {
			if len(list) >= maxPerCluster {
				break
			}
			if lightIntersectsCluster(viewPos[li], lights[li].LightRange, cb) {
				list = append(list, uint32(li))
			}
		}
		result[ci] = list
	}

	return result
}

// lightIntersectsCluster tests a view-space light sphere against a cluster's
// bounding sphere. A non-positive range means the light is unbounded.
func lightIntersectsCluster(pos [3]float32, lightRange float32, cb ClusterBounds) bool {
	if lightRange <= 0 {
		return true
	}
	dx := pos[0] - cb.Center[0]
	dy := pos[1] - cb.Center[1]
	dz := pos[2] - cb.Center[2]
	// Same expression as the compute shader's dot(d, d) <= reach * reach so
	// the host-side reference and the GPU pass agree at the exact boundary.
	distSq := dx*dx + dy*dy + dz*dz
	reach := lightRange + cb.Radius
	return distSq <= reach*reach
}

// CountAssigned returns the total number of cluster-light pairs in an
// assignment, useful for asserting culling effectiveness in tests.
//
// Parameters:
//   - assignment: the per-cluster light lists
//
// Returns:
//   - int: the sum of all list lengths
func CountAssigned(assignment [][]uint32) int {
	total := 0
	for _, list := range assignment {
		total += len(list)
	}
	return total
}

// MaxListLength returns the longest per-cluster light list in an assignment.
//
// Parameters:
//   - assignment: the per-cluster light lists
//
// Returns:
//   - int: the maximum list length
func MaxListLength(assignment [][]uint32) int {
	longest := 0
	for _, list := range assignment {
		if len(list) > longest {
			longest = len(list)
		}
	}
	return longest
}

// ViewDepth returns the positive view-space depth of a world-space point under
// the given view matrix, or zero if the point is behind the camera.
//
// Parameters:
//   - view: the camera view matrix (16 elements, column-major)
//   - x, y, z: the world-space point
//
// Returns:
//   - float32: the depth in front of the camera
func ViewDepth(view []float32, x, y, z float32) float32 {
	var p [4]float32
	common.MulVec4(p[:], view, []float32{x, y, z, 1})
	depth := -p[2]
	if depth < 0 || math.IsNaN(float64(depth)) {
		return 0
	}
	return depth
}
