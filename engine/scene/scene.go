// Package scene manages renderable objects, lights, and the GPU resources of
// the clustered forward lighting pipeline. A scene groups objects by model
// into instanced draw batches, owns the cluster grid and its culling buffers,
// and drives the per-frame sequence: PrepareCompute, PrepareLightCulling,
// DrawCalls.
package scene

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/camera"
	"github.com/Carmen-Shannon/lux-go/engine/cluster"
	"github.com/Carmen-Shannon/lux-go/engine/game_object"
	"github.com/Carmen-Shannon/lux-go/engine/light"
	"github.com/Carmen-Shannon/lux-go/engine/logger"
	"github.com/Carmen-Shannon/lux-go/engine/model"
	"github.com/Carmen-Shannon/lux-go/engine/renderer"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/material"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lux-go/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultClusterCountX is the default number of screen tiles in X.
	DefaultClusterCountX = 16

	// DefaultClusterCountY is the default number of screen tiles in Y.
	DefaultClusterCountY = 9

	// DefaultClusterCountZ is the default number of logarithmic depth slices.
	DefaultClusterCountZ = 24

	// DefaultMaxLightsPerCluster is the default per-cluster light list capacity.
	// Clusters touched by more lights keep the lowest light indices and drop
	// the rest.
	DefaultMaxLightsPerCluster = 128

	// DefaultBatchCapacity is the initial per-model instance capacity of a draw
	// batch. Batches grow by doubling when exceeded.
	DefaultBatchCapacity = 256
)

// renderBatch groups every object sharing one model into a single instanced
// draw. The per-instance model matrices live in a storage buffer indexed by
// instance_index in the vertex shader.
type renderBatch struct {
	mdl model.Model

	meshBGP       bind_group_provider.BindGroupProvider
	modelsBGP     bind_group_provider.BindGroupProvider
	modelsGroup   int
	modelsBinding int
	capacity      int

	objects []game_object.GameObject
	staged  []byte // reusable marshaled matrix buffer
}

// stage advances each object's rotation and marshals the batch's model
// matrices into the staged buffer. Disabled objects collapse to a zero matrix
// so their instances rasterize nothing; when a frustum is supplied, objects
// whose bounding sphere falls fully outside it collapse the same way.
func (b *renderBatch) stage(deltaTime float32, fr *common.Frustum) {
	need := len(b.objects) * 64
	if cap(b.staged) < need {
		b.staged = make([]byte, need)
	}
	b.staged = b.staged[:need]

	baseRadius := b.mdl.BoundingRadius()

	var mat [16]float32
	var gpu model.GPUModelData
	for i, obj := range b.objects {
		if !obj.Enabled() {
			gpu = model.GPUModelData{}
			copy(b.staged[i*64:(i+1)*64], gpu.Marshal())
			continue
		}
		obj.Advance(deltaTime)
		pos, scale, rot, _ := obj.TransformData()
		if fr != nil && baseRadius > 0 {
			maxScale := max(scale[0], scale[1], scale[2])
			if !fr.ContainsSphere(pos, baseRadius*maxScale) {
				gpu = model.GPUModelData{}
				copy(b.staged[i*64:(i+1)*64], gpu.Marshal())
				continue
			}
		}
		common.BuildModelMatrix(mat[:],
			pos[0], pos[1], pos[2],
			rot[0], rot[1], rot[2],
			scale[0], scale[1], scale[2],
		)
		gpu.Model = mat
		copy(b.staged[i*64:(i+1)*64], gpu.Marshal())
	}
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam camera.Camera
	r   renderer.Renderer

	// vertexShader is the shared clustered forward vertex stage. Fragment
	// shaders are created per variant and cached by variant key.
	vertexShader shader.Shader
	fragShaders  map[string]shader.Shader

	registry map[uint64]game_object.GameObject
	nextID   uint64
	batches  map[model.Model]*renderBatch

	lights       []light.Light
	lightObjects []game_object.GameObject
	ambientColor [3]float32

	// frustumCulling enables CPU bounding-sphere culling against the camera
	// frustum during staging. Culled instances stage a zero model matrix.
	frustumCulling bool

	texCache texture.Cache

	// Cluster grid configuration and GPU resources. clusterCullBGP is the
	// compute pass's bind group; clusterLitBGP is the fragment-side group
	// sharing the light, index, and count buffers with the compute pass.
	clusterCountX       uint32
	clusterCountY       uint32
	clusterCountZ       uint32
	maxLightsPerCluster uint32
	grid                *cluster.Grid
	screenWidth         int
	screenHeight        int

	clusterCullBGP         bind_group_provider.BindGroupProvider
	clusterLitBGP          bind_group_provider.BindGroupProvider
	clusterCullPipelineKey string
	cullUniformsBinding    int
	cullBoundsBinding      int
	litLightsBinding       int
	litParamsBinding       int

	batchCapacity int

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider

	// computePool manages a bounded set of reusable goroutines for the parallel
	// CPU prep phase of PrepareCompute. Workers persist across frames, avoiding
	// per-frame goroutine spawn/teardown overhead.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

// Scene defines the interface for a renderable scene: object and light
// management, cluster lighting resources, and the per-frame prepare/draw
// sequence.
type Scene interface {
	// Name returns the scene's name.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// SetName sets the scene's name.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Active returns whether the scene is active for rendering.
	//
	// Returns:
	//   - bool: true if active
	Active() bool

	// SetActive sets whether the scene is active for rendering.
	//
	// Parameters:
	//   - active: true to activate
	SetActive(active bool)

	// Camera returns the scene's camera.
	//
	// Returns:
	//   - camera.Camera: the attached camera
	Camera() camera.Camera

	// Renderer returns the scene's renderer.
	//
	// Returns:
	//   - renderer.Renderer: the attached renderer
	Renderer() renderer.Renderer

	// AddLight registers a light with the scene. The light is uploaded to the
	// GPU light buffer each frame while enabled.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a previously added light.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// DetachLight removes the light attached to the given object from the
	// scene and stops syncing its position.
	//
	// Parameters:
	//   - obj: the object whose attached light should be removed
	DetachLight(obj game_object.GameObject)

	// Lights returns the scene's registered lights.
	//
	// Returns:
	//   - []light.Light: the light list
	Lights() []light.Light

	// AmbientColor returns the scene's ambient light color.
	//
	// Returns:
	//   - [3]float32: ambient RGB
	AmbientColor() [3]float32

	// SetAmbientColor sets the scene's ambient light color.
	//
	// Parameters:
	//   - color: ambient RGB
	SetAmbientColor(color [3]float32)

	// Grid returns the cluster grid, or nil before InitClusterLighting.
	//
	// Returns:
	//   - *cluster.Grid: the cluster grid or nil
	Grid() *cluster.Grid

	// LightingBindGroupProvider returns the fragment-side cluster lighting
	// bind group provider, or nil before InitClusterLighting.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the lighting provider or nil
	LightingBindGroupProvider() bind_group_provider.BindGroupProvider

	// InitClusterLighting builds the cluster grid for the given viewport,
	// uploads per-cluster bounds, creates the light culling compute pipeline,
	// and allocates the shared light/index/count buffers. Must be called once
	// before the frame loop; Resize keeps the resources current afterwards.
	//
	// Parameters:
	//   - screenWidth: viewport width in pixels
	//   - screenHeight: viewport height in pixels
	//
	// Returns:
	//   - error: an error if the grid is invalid or GPU resource creation fails
	InitClusterLighting(screenWidth, screenHeight int) error

	// Resize updates the camera aspect and rebuilds the cluster grid bounds
	// for a new viewport size. No-op before InitClusterLighting.
	//
	// Parameters:
	//   - width: new viewport width in pixels
	//   - height: new viewport height in pixels
	Resize(width, height int)

	// PrepareCompute performs the per-frame CPU prep: advances object
	// transforms, syncs attached light positions, and writes the camera
	// uniform, model matrices, and light buffer to the GPU.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds since the previous frame
	PrepareCompute(deltaTime float32)

	// PrepareLightCulling writes the cull uniforms and dispatches the light
	// culling compute pass. The pass runs even with zero enabled lights so
	// stale per-cluster counts from the previous frame are cleared.
	PrepareLightCulling()

	// DrawCalls issues one instanced draw per model batch and material,
	// binding the camera, model, material, and cluster lighting groups
	// according to the shaders' declarations.
	//
	// Returns:
	//   - error: an error if a draw call fails
	DrawCalls() error

	// Count returns the number of persistent objects in the registry.
	//
	// Returns:
	//   - int: the registered object count
	Count() int

	// CountEphemeral returns the number of ephemeral objects currently held in
	// draw batches.
	//
	// Returns:
	//   - int: the ephemeral object count
	CountEphemeral() int

	// Add registers an object with the scene, assigning an ID when needed.
	// The object's model gets GPU mesh buffers, materials, pipelines, and a
	// draw batch on first use; an attached light joins the light list.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get returns the registered object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove unregisters the object with the given ID and removes it from its
	// draw batch. Its attached light, if any, is removed as well.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Clear removes every object and light from the scene. GPU batch resources
	// are retained for reuse.
	Clear()
}

var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer, both
// required. The clustered forward vertex shader is created internally and its
// camera group layout is used to initialize the camera's bind group with
// combined vertex and fragment visibility.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:                  &sync.RWMutex{},
		name:                name,
		active:              false,
		cam:                 cam,
		r:                   r,
		vertexShader:        shader.NewPBRVertexShader(),
		fragShaders:         make(map[string]shader.Shader),
		registry:            make(map[uint64]game_object.GameObject),
		batches:             make(map[model.Model]*renderBatch),
		nextID:              1,
		texCache:            texture.NewCache(),
		clusterCountX:       DefaultClusterCountX,
		clusterCountY:       DefaultClusterCountY,
		clusterCountZ:       DefaultClusterCountZ,
		maxLightsPerCluster: DefaultMaxLightsPerCluster,
		batchCapacity:       DefaultBatchCapacity,
		computeWorkers:      max(runtime.NumCPU()-1, 1),
		drawBindGroupsPool:  make([]bind_group_provider.BindGroupProvider, 0, 4),
	}

	// Initialize the camera's bind group before options run so WithObjects can
	// build batches against a fully wired scene. The camera group is declared
	// by both shader stages, so its layout carries merged visibility.
	camGroup, _, ok := typeBinding(s.vertexShader.Declarations(), shader.AnnotationArgCamera)
	if !ok {
		panic("scene: vertex shader declares no camera group")
	}
	camDesc := s.vertexShader.BindGroupLayoutDescriptor(camGroup)
	entries := make([]wgpu.BindGroupLayoutEntry, len(camDesc.Entries))
	copy(entries, camDesc.Entries)
	for i := range entries {
		entries[i].Visibility |= wgpu.ShaderStageFragment
	}
	mergedDesc := wgpu.BindGroupLayoutDescriptor{
		Label:   camDesc.Label,
		Entries: entries,
	}
	if bgp := cam.BindGroupProvider(); bgp != nil {
		if err := r.InitBindGroup(bgp, mergedDesc, nil, nil); err != nil {
			panic(fmt.Sprintf("scene: failed to init camera bind group: %v", err))
		}
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	// Queue size of 256 accommodates typical batch counts with headroom.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLightLocked(l)
}

func (s *scene) removeLightLocked(l light.Light) {
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *scene) DetachLight(obj game_object.GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.lightObjects {
		if o == obj {
			s.lightObjects = append(s.lightObjects[:i], s.lightObjects[i+1:]...)
			break
		}
	}
	if l := obj.Light(); l != nil {
		s.removeLightLocked(l)
		obj.SetLight(nil)
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lights
}

func (s *scene) AmbientColor() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) Grid() *cluster.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

func (s *scene) LightingBindGroupProvider() bind_group_provider.BindGroupProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusterLitBGP
}

func (s *scene) InitClusterLighting(screenWidth, screenHeight int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil || s.cam == nil {
		return fmt.Errorf("scene %q needs a renderer and camera before cluster lighting init", s.name)
	}

	grid, err := cluster.NewGrid(
		s.clusterCountX, s.clusterCountY, s.clusterCountZ,
		screenWidth, screenHeight,
		s.cam.Near(), s.cam.Far(),
	)
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}
	s.grid = grid
	s.screenWidth = screenWidth
	s.screenHeight = screenHeight

	invProj := s.cam.InverseProjectionMatrix()
	boundsData := cluster.MarshalBoundsBuffer(grid.BuildBounds(invProj[:]))
	clusterCount := uint64(grid.ClusterCount())

	// ── 1. Cull compute pipeline ───────────────────────────────────────
	cullShader := shader.NewClusterCullShader()
	cp, err := s.r.GetOrCreatePipeline(pipeline.DefaultComputeDescriptor(cullShader.Key()), cullShader)
	if err != nil {
		return fmt.Errorf("scene %q: failed to create cluster cull pipeline: %w", s.name, err)
	}
	s.clusterCullPipelineKey = cp.PipelineKey()

	// ── 2. Cull compute BGP ────────────────────────────────────────────
	// All bindings live in one group: cull uniforms, the shared light buffer,
	// the static cluster bounds, and the read-write index/count lists.
	cullDecls := cullShader.Declarations()
	cullGroup, uniformsBinding, ok := typeBinding(cullDecls, shader.AnnotationArgClusterCullUniforms)
	if !ok {
		return fmt.Errorf("scene %q: cull shader declares no cull uniforms", s.name)
	}
	_, boundsBinding, ok := typeBinding(cullDecls, shader.AnnotationArgClusterBounds)
	if !ok {
		return fmt.Errorf("scene %q: cull shader declares no cluster bounds", s.name)
	}
	_, lightsBinding, ok := providerBinding(cullDecls, shader.AnnotationArgLights, "")
	if !ok {
		return fmt.Errorf("scene %q: cull shader declares no lights provider", s.name)
	}
	_, indicesBinding, ok := providerBinding(cullDecls, shader.AnnotationArgClusters, shader.AnnotationArgClusterLightIndices)
	if !ok {
		return fmt.Errorf("scene %q: cull shader declares no cluster light indices", s.name)
	}
	_, countsBinding, ok := providerBinding(cullDecls, shader.AnnotationArgClusters, shader.AnnotationArgClusterLightCounts)
	if !ok {
		return fmt.Errorf("scene %q: cull shader declares no cluster light counts", s.name)
	}

	lightBufferSize := uint64((&light.GPULightHeader{}).Size() + light.MaxGPULights*(&light.GPULight{}).Size())

	cullBGP := bind_group_provider.NewBindGroupProvider(s.name + "_cluster_cull")
	cullSizes := map[int]uint64{
		uniformsBinding: uint64((&cluster.GPUClusterCullUniforms{}).Size()),
		lightsBinding:   lightBufferSize,
		boundsBinding:   clusterCount * uint64((&cluster.GPUClusterBounds{}).Size()),
		indicesBinding:  clusterCount * uint64(s.maxLightsPerCluster) * 4,
		countsBinding:   clusterCount * 4,
	}
	if err := s.r.InitBindGroup(cullBGP, cullShader.BindGroupLayoutDescriptor(cullGroup), nil, cullSizes); err != nil {
		return fmt.Errorf("scene %q: failed to init cluster cull bind group: %w", s.name, err)
	}
	s.clusterCullBGP = cullBGP
	s.cullUniformsBinding = uniformsBinding
	s.cullBoundsBinding = boundsBinding

	// ── 3. Fragment-side lighting BGP ──────────────────────────────────
	// Shares the light, index, and count buffers with the cull pass; only the
	// shade uniforms buffer is newly allocated.
	frag := s.fragmentShaderLocked(shader.NewVariant())
	fragDecls := frag.Declarations()
	litGroup, paramsBinding, ok := typeBinding(fragDecls, shader.AnnotationArgClusterShadeUniforms)
	if !ok {
		return fmt.Errorf("scene %q: fragment shader declares no cluster shade uniforms", s.name)
	}
	_, litLightsBinding, ok := providerBinding(fragDecls, shader.AnnotationArgLights, "")
	if !ok {
		return fmt.Errorf("scene %q: fragment shader declares no lights provider", s.name)
	}
	_, litIndicesBinding, ok := providerBinding(fragDecls, shader.AnnotationArgClusters, shader.AnnotationArgClusterLightIndices)
	if !ok {
		return fmt.Errorf("scene %q: fragment shader declares no cluster light indices", s.name)
	}
	_, litCountsBinding, ok := providerBinding(fragDecls, shader.AnnotationArgClusters, shader.AnnotationArgClusterLightCounts)
	if !ok {
		return fmt.Errorf("scene %q: fragment shader declares no cluster light counts", s.name)
	}

	litBGP := bind_group_provider.NewBindGroupProvider(s.name + "_cluster_lit")
	litBGP.SetBuffer(litLightsBinding, cullBGP.Buffer(lightsBinding))
	litBGP.SetBuffer(litIndicesBinding, cullBGP.Buffer(indicesBinding))
	litBGP.SetBuffer(litCountsBinding, cullBGP.Buffer(countsBinding))
	litSizes := map[int]uint64{
		paramsBinding: uint64((&cluster.GPUClusterShadeUniforms{}).Size()),
	}
	if err := s.r.InitBindGroup(litBGP, frag.BindGroupLayoutDescriptor(litGroup), nil, litSizes); err != nil {
		return fmt.Errorf("scene %q: failed to init cluster lighting bind group: %w", s.name, err)
	}
	s.clusterLitBGP = litBGP
	s.litLightsBinding = litLightsBinding
	s.litParamsBinding = paramsBinding

	// ── 4. Initial uploads: static bounds and shade uniforms ───────────
	shade := cluster.ShadeUniformsForGrid(grid)
	shade.MaxLightsPerCluster = s.maxLightsPerCluster
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: cullBGP, Binding: boundsBinding, Offset: 0, Data: boundsData},
		{Provider: litBGP, Binding: paramsBinding, Offset: 0, Data: shade.Marshal()},
	})

	logger.Sugar.Infow("cluster lighting initialized",
		"scene", s.name,
		"clusters", grid.ClusterCount(),
		"maxLightsPerCluster", s.maxLightsPerCluster,
		"width", screenWidth,
		"height", screenHeight,
	)
	return nil
}

func (s *scene) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cam != nil && height > 0 {
		s.cam.SetAspect(float32(width) / float32(height))
	}
	if s.grid == nil || s.r == nil || s.cam == nil {
		return
	}

	grid, err := cluster.NewGrid(
		s.clusterCountX, s.clusterCountY, s.clusterCountZ,
		width, height,
		s.cam.Near(), s.cam.Far(),
	)
	if err != nil {
		logger.Sugar.Warnw("resize produced an invalid cluster grid",
			"scene", s.name,
			"error", err,
		)
		return
	}
	s.grid = grid
	s.screenWidth = width
	s.screenHeight = height

	// Tile counts are fixed, so buffer sizes are unchanged; only the bounds
	// contents and the slice/tile mapping terms need rewriting.
	invProj := s.cam.InverseProjectionMatrix()
	boundsData := cluster.MarshalBoundsBuffer(grid.BuildBounds(invProj[:]))
	shade := cluster.ShadeUniformsForGrid(grid)
	shade.MaxLightsPerCluster = s.maxLightsPerCluster
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: s.clusterCullBGP, Binding: s.cullBoundsBinding, Offset: 0, Data: boundsData},
		{Provider: s.clusterLitBGP, Binding: s.litParamsBinding, Offset: 0, Data: shade.Marshal()},
	})

	logger.Sugar.Debugw("cluster grid rebuilt",
		"scene", s.name,
		"width", width,
		"height", height,
	)
}

func (s *scene) PrepareCompute(deltaTime float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return
	}

	// Update camera uniform once per frame.
	if s.cam != nil {
		if camBGP := s.cam.BindGroupProvider(); camBGP != nil {
			uniform := camera.GPUCameraUniform{
				ViewProj: s.cam.ViewProjectionMatrix(),
				View:     s.cam.ViewMatrix(),
			}
			uniform.CameraPosition[0], uniform.CameraPosition[1], uniform.CameraPosition[2] = s.cam.Position()
			s.r.WriteBuffers([]bind_group_provider.BufferWrite{
				{Provider: camBGP, Binding: 0, Offset: 0, Data: uniform.Marshal()},
			})
		}
	}

	// Sync attached lights: copy each object's world position to its light.
	for _, obj := range s.lightObjects {
		if l := obj.Light(); l != nil && obj.Enabled() {
			x, y, z := obj.Position()
			l.SetPosition(x, y, z)
		}
	}

	// Upload the light buffer wholesale. The buffer is shared between the
	// cull compute pass and the fragment stage, so one write covers both.
	if s.clusterLitBGP != nil {
		lightData := light.MarshalLightBuffer(s.lights, s.ambientColor)
		s.r.WriteBuffers([]bind_group_provider.BufferWrite{
			{Provider: s.clusterLitBGP, Binding: s.litLightsBinding, Offset: 0, Data: lightData},
		})
	}

	var fr *common.Frustum
	if s.frustumCulling && s.cam != nil {
		vp := s.cam.ViewProjectionMatrix()
		extracted := common.ExtractFrustumFromMatrix(vp[:])
		fr = &extracted
	}

	// Phase 1: parallel CPU prep — each batch advances its objects and
	// marshals model matrices on the compute pool. A WaitGroup provides
	// per-frame barrier sync since pool.Wait() blocks until workers idle-exit
	// which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	taskID := 0
	for _, batch := range s.batches {
		if len(batch.objects) == 0 {
			continue
		}
		wg.Add(1)
		b := batch // capture for closure
		id := taskID
		taskID++
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				b.stage(deltaTime, fr)
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: coalesced GPU submission — collect every batch's staged matrix
	// buffer into a single write slice, then submit once to the renderer.
	allWrites := s.writePool[:0]
	for _, batch := range s.batches {
		if len(batch.objects) == 0 {
			continue
		}
		allWrites = append(allWrites, bind_group_provider.BufferWrite{
			Provider: batch.modelsBGP,
			Binding:  batch.modelsBinding,
			Offset:   0,
			Data:     batch.staged,
		})
	}
	s.writePool = allWrites

	if len(allWrites) > 0 {
		s.r.WriteBuffers(allWrites)
	}
}

func (s *scene) PrepareLightCulling() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clusterCullBGP == nil || s.r == nil || s.cam == nil || s.grid == nil {
		return
	}

	// Count enabled lights. Even when zero we must still dispatch the cull
	// shader so that per-cluster counts are zeroed out — otherwise stale
	// cluster data from the previous frame keeps removed lights rendering.
	var lightCount uint32
	for _, l := range s.lights {
		if l.Enabled() {
			lightCount++
		}
	}
	if lightCount > light.MaxGPULights {
		lightCount = light.MaxGPULights
	}

	uniforms := cluster.GPUClusterCullUniforms{
		ViewMatrix:          s.cam.ViewMatrix(),
		ClusterCountX:       s.grid.CountX(),
		ClusterCountY:       s.grid.CountY(),
		ClusterCountZ:       s.grid.CountZ(),
		MaxLightsPerCluster: s.maxLightsPerCluster,
		LightCount:          lightCount,
	}
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: s.clusterCullBGP, Binding: s.cullUniformsBinding, Offset: 0, Data: uniforms.Marshal()},
	})

	workgroupSize := uint32(64)
	if p := s.r.Pipeline(s.clusterCullPipelineKey); p != nil {
		if cs := p.Shader(shader.ShaderTypeCompute); cs != nil && cs.WorkgroupSize()[0] > 0 {
			workgroupSize = cs.WorkgroupSize()[0]
		}
	}

	if err := s.r.BeginComputeFrame(); err != nil {
		return
	}
	groups := (s.grid.ClusterCount() + workgroupSize - 1) / workgroupSize
	s.r.DispatchCompute(s.clusterCullPipelineKey, s.clusterCullBGP, [3]uint32{groups, 1, 1})
	s.r.EndComputeFrame()
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return fmt.Errorf("scene %q has no renderer attached", s.name)
	}

	for _, batch := range s.batches {
		if len(batch.objects) == 0 {
			continue
		}

		mdl := batch.mdl
		meshProvider := batch.meshBGP
		if meshProvider == nil {
			continue
		}

		mats := mdl.RenderMaterials()
		if len(mats) == 0 {
			continue
		}

		for _, mat := range mats {
			pipelineKey := mat.PipelineKey()
			if pipelineKey == "" {
				continue
			}

			// Look up the render pipeline to discover bind group layouts from both shaders.
			rp := s.r.Pipeline(pipelineKey)
			if rp == nil {
				continue
			}
			vertShader := rp.Shader(shader.ShaderTypeVertex)
			if vertShader == nil {
				continue
			}

			// Collect declarations from vertex and fragment shaders.
			var allDecls []shader.Annotation
			allDecls = append(allDecls, vertShader.Declarations()...)
			if fragShader := rp.Shader(shader.ShaderTypeFragment); fragShader != nil {
				allDecls = append(allDecls, fragShader.Declarations()...)
			}

			// Build bind groups dynamically by matching each group's declarations
			// to a provider. Groups are iterated in index order so bindGroups[i]
			// maps to @group(i).
			maxGroup := -1
			groupProviders := make(map[int]bind_group_provider.BindGroupProvider)
			for _, decl := range allDecls {
				if decl.Group == nil {
					continue
				}
				g := *decl.Group
				if g > maxGroup {
					maxGroup = g
				}
				if _, exists := groupProviders[g]; exists {
					continue
				}

				var provider bind_group_provider.BindGroupProvider
				switch decl.Type {
				case shader.AnnotationTypeProvider:
					if len(decl.Args) == 0 {
						continue
					}
					switch decl.Args[0] {
					case shader.AnnotationArgCamera:
						if s.cam != nil {
							provider = s.cam.BindGroupProvider()
						}
					case shader.AnnotationArgMaterial:
						provider = mat.BindGroupProvider()
					case shader.AnnotationArgLights, shader.AnnotationArgClusters:
						if s.clusterLitBGP != nil {
							provider = s.clusterLitBGP
						}
					}
				case shader.AnnotationTypeBindingGroup:
					if len(decl.Args) < 3 {
						continue
					}
					typeArg := string(decl.Args[2])
					if stripped, ok := strings.CutPrefix(typeArg, "array<"); ok {
						typeArg = strings.TrimSuffix(stripped, ">")
					}
					switch shader.AnnotationArg(typeArg) {
					case shader.AnnotationArgCamera:
						if s.cam != nil {
							provider = s.cam.BindGroupProvider()
						}
					case shader.AnnotationArgModelData:
						provider = batch.modelsBGP
					case shader.AnnotationArgMaterialParams:
						provider = mat.BindGroupProvider()
					case shader.AnnotationArgClusterShadeUniforms, shader.AnnotationArgLight, shader.AnnotationArgLightHeader:
						if s.clusterLitBGP != nil {
							provider = s.clusterLitBGP
						}
					}
				}

				if provider != nil {
					groupProviders[g] = provider
				}
			}

			bindGroups := s.drawBindGroupsPool[:0]
			skipMaterial := false
			for g := 0; g <= maxGroup; g++ {
				provider, ok := groupProviders[g]
				if !ok || provider == nil {
					skipMaterial = true
					break
				}
				bindGroups = append(bindGroups, provider)
			}
			if skipMaterial {
				continue
			}

			if err := s.r.DrawCall(pipelineKey, meshProvider, uint32(len(batch.objects)), bindGroups); err != nil {
				return fmt.Errorf("draw call failed for model %q in scene %q: %w", mdl.Name(), s.name, err)
			}
		}
	}

	return nil
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) CountEphemeral() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, batch := range s.batches {
		for _, obj := range batch.objects {
			if obj.Ephemeral() {
				count++
			}
		}
	}
	return count
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

func (s *scene) addLocked(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	}
	if !obj.Ephemeral() {
		s.registry[obj.ID()] = obj
	}

	if l := obj.Light(); l != nil {
		s.lights = append(s.lights, l)
		s.lightObjects = append(s.lightObjects, obj)
	}

	if mdl := obj.Model(); mdl != nil {
		batch := s.ensureBatchLocked(mdl)
		s.appendToBatchLocked(batch, obj)
	}

	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.registry[id]
	if !ok {
		return
	}
	delete(s.registry, id)

	if mdl := obj.Model(); mdl != nil {
		if batch, ok := s.batches[mdl]; ok {
			for i, o := range batch.objects {
				if o == obj {
					batch.objects = append(batch.objects[:i], batch.objects[i+1:]...)
					break
				}
			}
		}
	}

	for i, o := range s.lightObjects {
		if o == obj {
			s.lightObjects = append(s.lightObjects[:i], s.lightObjects[i+1:]...)
			break
		}
	}
	if l := obj.Light(); l != nil {
		s.removeLightLocked(l)
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry = make(map[uint64]game_object.GameObject)
	for _, batch := range s.batches {
		batch.objects = batch.objects[:0]
	}
	s.lights = nil
	s.lightObjects = nil
}

// ensureBatchLocked returns the model's draw batch, creating mesh buffers,
// materials, pipelines, and the instance matrix buffer on first use.
// Caller must hold the write lock.
func (s *scene) ensureBatchLocked(mdl model.Model) *renderBatch {
	if batch, ok := s.batches[mdl]; ok {
		return batch
	}

	meshProvider := mdl.MeshProvider()
	if meshProvider == nil {
		meshProvider = bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("%s_mesh_%s", s.name, mdl.Name()),
		)
	}
	if meshProvider.VertexBuffer() == nil {
		if err := s.r.InitMeshBuffers(meshProvider, mdl.VertexData(), mdl.IndexData(), mdl.IndexCount()); err != nil {
			panic(fmt.Sprintf("scene: failed to init mesh buffers for model %q: %v", mdl.Name(), err))
		}
	}

	if len(mdl.RenderMaterials()) == 0 {
		imported := mdl.ImportedMaterials()
		mats := make([]material.Material, 0, len(imported)+1)
		for _, im := range imported {
			mats = append(mats, material.NewMaterialFromImported(im))
		}
		if len(mats) == 0 {
			mats = append(mats, material.NewMaterial(material.WithName(mdl.Name())))
		}
		mdl.SetRenderMaterials(mats)
	}
	for _, mat := range mdl.RenderMaterials() {
		s.initMaterialLocked(mdl, mat)
	}

	modelsGroup, modelsBinding, ok := typeBinding(s.vertexShader.Declarations(), shader.AnnotationArgModelData)
	if !ok {
		panic("scene: vertex shader declares no model data group")
	}

	batch := &renderBatch{
		mdl:           mdl,
		meshBGP:       meshProvider,
		modelsGroup:   modelsGroup,
		modelsBinding: modelsBinding,
		capacity:      s.batchCapacity,
	}
	batch.modelsBGP = s.initModelsProvider(mdl, batch.capacity, modelsGroup, modelsBinding)

	s.batches[mdl] = batch
	return batch
}

// appendToBatchLocked adds an object to a batch, doubling the instance buffer
// capacity when full. Caller must hold the write lock.
func (s *scene) appendToBatchLocked(batch *renderBatch, obj game_object.GameObject) {
	if len(batch.objects) >= batch.capacity {
		newCapacity := batch.capacity * 2
		newProvider := s.initModelsProvider(batch.mdl, newCapacity, batch.modelsGroup, batch.modelsBinding)
		if old := batch.modelsBGP; old != nil {
			old.Release()
		}
		batch.modelsBGP = newProvider
		batch.capacity = newCapacity
		logger.Sugar.Debugw("draw batch grown",
			"scene", s.name,
			"model", batch.mdl.Name(),
			"capacity", newCapacity,
		)
	}
	batch.objects = append(batch.objects, obj)
}

// initModelsProvider creates a bind group provider holding the per-instance
// model matrix storage buffer for one draw batch.
func (s *scene) initModelsProvider(mdl model.Model, capacity, group, binding int) bind_group_provider.BindGroupProvider {
	provider := bind_group_provider.NewBindGroupProvider(
		fmt.Sprintf("%s_models_%s", s.name, mdl.Name()),
	)
	sizeOverrides := map[int]uint64{
		binding: uint64(capacity) * uint64((&model.GPUModelData{}).Size()),
	}
	if err := s.r.InitBindGroup(provider, s.vertexShader.BindGroupLayoutDescriptor(group), nil, sizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init model matrix bind group for %q: %v", mdl.Name(), err))
	}
	return provider
}

// initMaterialLocked resolves the material's shader variant, creates (or
// reuses) the render pipeline for it, and initializes the material's GPU
// resources: the params uniform plus the variant's texture and sampler
// bindings. Caller must hold the write lock.
func (s *scene) initMaterialLocked(mdl model.Model, mat material.Material) {
	if mat.PipelineKey() != "" && mat.BindGroupProvider() != nil {
		return
	}

	variant := shader.ResolveVariant(mat, mdl.Attributes())
	frag := s.fragmentShaderLocked(variant)

	desc := pipeline.DefaultRenderDescriptor(s.vertexShader.Key(), frag.Key())
	if !mat.DoubleSided() {
		desc.CullMode = wgpu.CullModeBack
	}
	if mat.AlphaBlend() {
		desc.BlendEnabled = true
		desc.DepthWriteEnabled = false
	}
	p, err := s.r.GetOrCreatePipeline(desc, s.vertexShader, frag)
	if err != nil {
		panic(fmt.Sprintf("scene: failed to create pipeline for material %q: %v", mat.Name(), err))
	}
	mat.SetPipelineKey(p.PipelineKey())

	decls := frag.Declarations()
	matGroup, paramsBinding, ok := typeBinding(decls, shader.AnnotationArgMaterialParams)
	if !ok {
		panic("scene: fragment shader declares no material params group")
	}

	bgp := bind_group_provider.NewBindGroupProvider(
		fmt.Sprintf("%s_material_%s", s.name, mat.Name()),
	)

	// The variant's compiled source only declares the texture bindings its
	// flags enable, so walking the declarations wires exactly those.
	for _, decl := range decls {
		if decl.Type != shader.AnnotationTypeProvider || decl.Group == nil || decl.Binding == nil {
			continue
		}
		if *decl.Group != matGroup || len(decl.Args) < 2 || decl.Args[0] != shader.AnnotationArgMaterial {
			continue
		}
		switch decl.Args[1] {
		case shader.AnnotationArgDiffuseTexture:
			s.initMaterialTexture(bgp, *decl.Binding, mat.DiffuseTexture())
		case shader.AnnotationArgNormalTexture:
			s.initMaterialTexture(bgp, *decl.Binding, mat.NormalTexture())
		case shader.AnnotationArgMetallicRoughnessTexture:
			s.initMaterialTexture(bgp, *decl.Binding, mat.MetallicRoughnessTexture())
		case shader.AnnotationArgOcclusionTexture:
			s.initMaterialTexture(bgp, *decl.Binding, mat.OcclusionTexture())
		case shader.AnnotationArgEmissiveTexture:
			s.initMaterialTexture(bgp, *decl.Binding, mat.EmissiveTexture())
		case shader.AnnotationArgDiffuseSampler,
			shader.AnnotationArgNormalSampler,
			shader.AnnotationArgMetallicRoughnessSampler,
			shader.AnnotationArgOcclusionSampler,
			shader.AnnotationArgEmissiveSampler:
			if err := s.r.InitSampler(bgp, *decl.Binding, common.SamplerStagingData{}); err != nil {
				panic(fmt.Sprintf("scene: failed to init sampler for material %q: %v", mat.Name(), err))
			}
		}
	}

	if err := s.r.InitBindGroup(bgp, frag.BindGroupLayoutDescriptor(matGroup), nil, nil); err != nil {
		panic(fmt.Sprintf("scene: failed to init material bind group for %q: %v", mat.Name(), err))
	}
	mat.SetBindGroupProvider(bgp)

	params := material.ToGPUMaterialParams(mat)
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: bgp, Binding: paramsBinding, Offset: 0, Data: params.Marshal()},
	})
}

// initMaterialTexture decodes the texture through the scene's staging cache
// and uploads it. A missing or undecodable texture falls back to the 1x1
// white placeholder so the variant's binding stays satisfied.
func (s *scene) initMaterialTexture(bgp bind_group_provider.BindGroupProvider, binding int, tex *common.ImportedTexture) {
	staged := texture.White()
	if tex != nil {
		st, err := s.texCache.Staging(tex)
		if err != nil {
			logger.Sugar.Warnw("texture decode failed, using placeholder",
				"scene", s.name,
				"texture", tex.Name,
				"error", err,
			)
		} else {
			staged = st
		}
	}
	if err := s.r.InitTextureView(bgp, binding, staged); err != nil {
		panic(fmt.Sprintf("scene: failed to init texture view: %v", err))
	}
}

// fragmentShaderLocked returns the fragment shader compiled for a variant,
// creating and caching it on first use. Caller must hold the write lock.
func (s *scene) fragmentShaderLocked(v shader.Variant) shader.Shader {
	key := v.Key()
	if f, ok := s.fragShaders[key]; ok {
		return f
	}
	f := shader.NewPBRFragmentShader(v)
	s.fragShaders[key] = f
	logger.Sugar.Debugw("fragment shader variant compiled",
		"scene", s.name,
		"variant", key,
	)
	return f
}

// typeBinding locates the first binding-group declaration whose struct type
// matches, unwrapping array<...> element types.
func typeBinding(decls []shader.Annotation, typ shader.AnnotationArg) (group, binding int, ok bool) {
	for _, decl := range decls {
		if decl.Type != shader.AnnotationTypeBindingGroup || decl.Group == nil || decl.Binding == nil || len(decl.Args) < 3 {
			continue
		}
		typeArg := string(decl.Args[2])
		if stripped, cut := strings.CutPrefix(typeArg, "array<"); cut {
			typeArg = strings.TrimSuffix(stripped, ">")
		}
		if shader.AnnotationArg(typeArg) == typ {
			return *decl.Group, *decl.Binding, true
		}
	}
	return 0, 0, false
}

// providerBinding locates the first provider declaration matching an identity
// and, when role is non-empty, a binding role.
func providerBinding(decls []shader.Annotation, identity, role shader.AnnotationArg) (group, binding int, ok bool) {
	for _, decl := range decls {
		if decl.Type != shader.AnnotationTypeProvider || decl.Group == nil || decl.Binding == nil {
			continue
		}
		if len(decl.Args) == 0 || decl.Args[0] != identity {
			continue
		}
		if role != "" && (len(decl.Args) < 2 || decl.Args[1] != role) {
			continue
		}
		return *decl.Group, *decl.Binding, true
	}
	return 0, 0, false
}
