package scene

import (
	"github.com/Carmen-Shannon/lux-go/engine/game_object"
	"github.com/Carmen-Shannon/lux-go/engine/texture"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene, assigning IDs and creating
// GPU resources exactly as Scene.Add would.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.addLocked(obj)
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used during the parallel
// CPU prep phase of PrepareCompute. Defaults to runtime.NumCPU()-1.
// Higher values may improve throughput with many large draw batches; lower
// values reduce scheduling overhead for simple scenes.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithAmbientColor sets the scene's ambient light color. The ambient term is
// applied to every fragment regardless of cluster light assignment.
//
// Parameters:
//   - r: red component
//   - g: green component
//   - b: blue component
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAmbientColor(r, g, b float32) SceneBuilderOption {
	return func(s *scene) {
		s.ambientColor = [3]float32{r, g, b}
	}
}

// WithClusterCounts overrides the cluster grid dimensions used by
// InitClusterLighting. Zero values keep the corresponding default
// (16x9 screen tiles, 24 depth slices).
//
// Parameters:
//   - countX: screen tiles in X
//   - countY: screen tiles in Y
//   - countZ: logarithmic depth slices
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithClusterCounts(countX, countY, countZ uint32) SceneBuilderOption {
	return func(s *scene) {
		if countX > 0 {
			s.clusterCountX = countX
		}
		if countY > 0 {
			s.clusterCountY = countY
		}
		if countZ > 0 {
			s.clusterCountZ = countZ
		}
	}
}

// WithMaxLightsPerCluster sets the per-cluster light list capacity. Clusters
// touched by more lights keep the lowest light indices and drop the rest.
// Must be set before InitClusterLighting is called, as the index buffer is
// allocated once. Default is DefaultMaxLightsPerCluster (128).
//
// Parameters:
//   - maxLights: the per-cluster light list capacity (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxLightsPerCluster(maxLights uint32) SceneBuilderOption {
	return func(s *scene) {
		if maxLights > 0 {
			s.maxLightsPerCluster = maxLights
		}
	}
}

// WithBatchCapacity sets the initial per-model instance capacity of new draw
// batches. Batches grow by doubling when exceeded, so this only tunes the
// starting allocation. Default is DefaultBatchCapacity (256).
//
// Parameters:
//   - capacity: the initial instance capacity (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBatchCapacity(capacity int) SceneBuilderOption {
	return func(s *scene) {
		if capacity > 0 {
			s.batchCapacity = capacity
		}
	}
}

// WithFrustumCulling enables CPU bounding-sphere culling against the camera
// frustum during PrepareCompute. Instances outside the frustum stage a zero
// model matrix and rasterize nothing. Disabled by default.
//
// Parameters:
//   - enabled: whether to cull instances against the camera frustum
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFrustumCulling(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.frustumCulling = enabled
	}
}

// WithTextureCache sets the decoded-texture cache used for material texture
// uploads. Scenes sharing one cache decode each source image once.
//
// Parameters:
//   - c: the texture cache to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTextureCache(c texture.Cache) SceneBuilderOption {
	return func(s *scene) {
		if c != nil {
			s.texCache = c
		}
	}
}
