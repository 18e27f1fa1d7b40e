package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/camera"
	"github.com/Carmen-Shannon/lux-go/engine/game_object"
	"github.com/Carmen-Shannon/lux-go/engine/light"
	"github.com/Carmen-Shannon/lux-go/engine/model"
	"github.com/Carmen-Shannon/lux-go/engine/renderer"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupInit records one InitBindGroup call on the fake renderer.
type bindGroupInit struct {
	provider      bind_group_provider.BindGroupProvider
	sizeOverrides map[int]uint64
}

// bufferWriteRecord snapshots a BufferWrite, copying the data since the scene
// reuses staging slices between frames.
type bufferWriteRecord struct {
	provider bind_group_provider.BindGroupProvider
	binding  int
	data     []byte
}

// drawRecord records one DrawCall on the fake renderer.
type drawRecord struct {
	pipelineKey   string
	meshProvider  bind_group_provider.BindGroupProvider
	instanceCount uint32
	bindGroups    []bind_group_provider.BindGroupProvider
}

// dispatchRecord records one DispatchCompute on the fake renderer.
type dispatchRecord struct {
	pipelineKey    string
	provider       bind_group_provider.BindGroupProvider
	workGroupCount [3]uint32
}

// fakeRenderer implements renderer.Renderer without a GPU, recording every
// resource init, buffer write, dispatch, and draw for assertions.
type fakeRenderer struct {
	pipelines      map[string]pipeline.Pipeline
	bindGroupInits []bindGroupInit
	writes         []bufferWriteRecord
	draws          []drawRecord
	dispatches     []dispatchRecord
	meshInits      int
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline {
	return f.pipelines[key]
}

func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline {
	return f.pipelines
}

func (f *fakeRenderer) GetOrCreatePipeline(descriptor pipeline.Descriptor, shaders ...shader.Shader) (pipeline.Pipeline, error) {
	key := descriptor.Key()
	if p, ok := f.pipelines[key]; ok {
		return p, nil
	}
	var opts []pipeline.PipelineBuilderOption
	for _, s := range shaders {
		switch s.ShaderType() {
		case shader.ShaderTypeVertex:
			opts = append(opts, pipeline.WithVertexShader(s))
		case shader.ShaderTypeFragment:
			opts = append(opts, pipeline.WithFragmentShader(s))
		case shader.ShaderTypeCompute:
			opts = append(opts, pipeline.WithComputeShader(s))
		}
	}
	p := pipeline.NewPipeline(key, descriptor.Type, opts...)
	f.pipelines[key] = p
	return p, nil
}

func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *fakeRenderer) Resize(width, height int) {}

func (f *fakeRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	f.meshInits++
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	f.bindGroupInits = append(f.bindGroupInits, bindGroupInit{
		provider:      provider,
		sizeOverrides: bufferSizeOverrides,
	})
	return nil
}

func (f *fakeRenderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return nil
}

func (f *fakeRenderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		data := make([]byte, len(w.Data))
		copy(data, w.Data)
		f.writes = append(f.writes, bufferWriteRecord{
			provider: w.Provider,
			binding:  w.Binding,
			data:     data,
		})
	}
}

func (f *fakeRenderer) BeginComputeFrame() error { return nil }
func (f *fakeRenderer) EndComputeFrame()         {}

func (f *fakeRenderer) DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	f.dispatches = append(f.dispatches, dispatchRecord{
		pipelineKey:    pipelineKey,
		provider:       computeProvider,
		workGroupCount: workGroupCount,
	})
}

func (f *fakeRenderer) BeginFrame() error { return nil }

func (f *fakeRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	groups := make([]bind_group_provider.BindGroupProvider, len(bindGroups))
	copy(groups, bindGroups)
	f.draws = append(f.draws, drawRecord{
		pipelineKey:   pipelineKey,
		meshProvider:  meshProvider,
		instanceCount: instanceCount,
		bindGroups:    groups,
	})
	return nil
}

func (f *fakeRenderer) EndFrame()                             {}
func (f *fakeRenderer) Present()                              {}
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}

// lastWriteFor returns the most recent recorded write to the given provider
// and binding, or nil.
func (f *fakeRenderer) lastWriteFor(provider bind_group_provider.BindGroupProvider, binding int) []byte {
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].provider == provider && f.writes[i].binding == binding {
			return f.writes[i].data
		}
	}
	return nil
}

func testModel(name string) model.Model {
	verts := []model.GPUVertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 1, 0}},
	}
	return model.NewModel(
		model.WithName(name),
		model.WithVertexData(model.MarshalVertexBuffer(verts)),
		model.WithIndexData([]byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}),
		model.WithIndexCount(3),
	)
}

func testScene(t *testing.T, options ...SceneBuilderOption) (Scene, *fakeRenderer) {
	t.Helper()
	f := newFakeRenderer()
	s := NewScene("test", camera.NewCamera(), f, options...)
	return s, f
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s, _ := testScene(t)
	mdl := testModel("cube")

	a := game_object.NewGameObject(game_object.WithModel(mdl))
	b := game_object.NewGameObject(game_object.WithModel(mdl))

	idA := s.Add(a)
	idB := s.Add(b)
	if idA == 0 || idB == 0 || idA == idB {
		t.Fatalf("expected distinct non-zero IDs, got %d and %d", idA, idB)
	}
	if s.Count() != 2 {
		t.Errorf("expected 2 registered objects, got %d", s.Count())
	}
	if s.Get(idA) != a || s.Get(idB) != b {
		t.Error("Get must return the registered objects")
	}
}

func TestEphemeralObjectsSkipRegistry(t *testing.T) {
	s, _ := testScene(t)
	mdl := testModel("spark")

	obj := game_object.NewGameObject(
		game_object.WithModel(mdl),
		game_object.WithEphemeral(true),
	)
	id := s.Add(obj)

	if s.Get(id) != nil {
		t.Error("ephemeral objects must not be retrievable from the registry")
	}
	if s.Count() != 0 {
		t.Errorf("expected 0 registered objects, got %d", s.Count())
	}
	if s.CountEphemeral() != 1 {
		t.Errorf("expected 1 ephemeral object in the draw batches, got %d", s.CountEphemeral())
	}
}

func TestAttachedLightJoinsAndDetaches(t *testing.T) {
	s, _ := testScene(t)

	l := light.NewLight(light.LightTypePoint, light.WithColor(1, 0, 0))
	obj := game_object.NewGameObject(
		game_object.WithModel(testModel("lamp")),
		game_object.WithLight(l),
	)
	s.Add(obj)

	if len(s.Lights()) != 1 || s.Lights()[0] != l {
		t.Fatalf("expected the attached light in the scene, got %d lights", len(s.Lights()))
	}

	s.DetachLight(obj)
	if len(s.Lights()) != 0 {
		t.Errorf("expected no lights after detach, got %d", len(s.Lights()))
	}
	if obj.Light() != nil {
		t.Error("detach must clear the object's light reference")
	}
}

func TestPrepareComputeSyncsLightPositions(t *testing.T) {
	s, _ := testScene(t)

	l := light.NewLight(light.LightTypePoint)
	obj := game_object.NewGameObject(
		game_object.WithModel(testModel("lamp")),
		game_object.WithLight(l),
		game_object.WithPosition(5, 6, 7),
	)
	s.Add(obj)

	s.PrepareCompute(0)

	pos := l.Position()
	if pos != [3]float32{5, 6, 7} {
		t.Errorf("expected light position synced to (5, 6, 7), got %v", pos)
	}
}

func TestRemoveDropsObjectBatchAndLight(t *testing.T) {
	s, f := testScene(t)
	if err := s.InitClusterLighting(1920, 1080); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l := light.NewLight(light.LightTypePoint)
	obj := game_object.NewGameObject(
		game_object.WithModel(testModel("cube")),
		game_object.WithLight(l),
	)
	id := s.Add(obj)

	s.Remove(id)

	if s.Count() != 0 {
		t.Errorf("expected an empty registry, got %d objects", s.Count())
	}
	if len(s.Lights()) != 0 {
		t.Errorf("expected the attached light removed, got %d lights", len(s.Lights()))
	}

	f.draws = nil
	if err := s.DrawCalls(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.draws) != 0 {
		t.Errorf("removed objects must not be drawn, got %d draws", len(f.draws))
	}
}

func TestSharedModelBatchInstancedDraw(t *testing.T) {
	s, f := testScene(t)
	if err := s.InitClusterLighting(1920, 1080); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mdl := testModel("cube")
	for range 3 {
		s.Add(game_object.NewGameObject(game_object.WithModel(mdl)))
	}
	s.PrepareCompute(0)

	if err := s.DrawCalls(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.draws) != 1 {
		t.Fatalf("objects sharing a model must draw as one batch, got %d draws", len(f.draws))
	}

	draw := f.draws[0]
	if draw.instanceCount != 3 {
		t.Errorf("expected instance count 3, got %d", draw.instanceCount)
	}
	if len(draw.bindGroups) != 4 {
		t.Fatalf("expected 4 bind groups (camera, models, material, lighting), got %d", len(draw.bindGroups))
	}
	if draw.bindGroups[0] != s.Camera().BindGroupProvider() {
		t.Error("group 0 must be the camera provider")
	}
	if draw.bindGroups[3] != s.LightingBindGroupProvider() {
		t.Error("group 3 must be the cluster lighting provider")
	}
	if mdl.RenderMaterials()[0].BindGroupProvider() != draw.bindGroups[2] {
		t.Error("group 2 must be the material provider")
	}
	if f.meshInits != 1 {
		t.Errorf("expected one mesh buffer init per model, got %d", f.meshInits)
	}
}

func TestDrawCallsSkippedBeforeClusterInit(t *testing.T) {
	s, f := testScene(t)
	s.Add(game_object.NewGameObject(game_object.WithModel(testModel("cube"))))

	if err := s.DrawCalls(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.draws) != 0 {
		t.Errorf("draws must be skipped while the lighting group is unresolvable, got %d", len(f.draws))
	}
}

func TestInitClusterLightingBufferSizes(t *testing.T) {
	s, f := testScene(t)
	if err := s.InitClusterLighting(1920, 1080); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grid := s.Grid()
	if grid == nil {
		t.Fatal("expected a cluster grid after init")
	}
	clusterCount := uint64(grid.ClusterCount())
	if clusterCount != DefaultClusterCountX*DefaultClusterCountY*DefaultClusterCountZ {
		t.Fatalf("unexpected cluster count %d", clusterCount)
	}

	// The cull bind group allocates five buffers: uniforms, lights, bounds,
	// indices, and counts.
	var cullInit *bindGroupInit
	for i := range f.bindGroupInits {
		if len(f.bindGroupInits[i].sizeOverrides) == 5 {
			cullInit = &f.bindGroupInits[i]
			break
		}
	}
	if cullInit == nil {
		t.Fatal("expected a cull bind group init with 5 buffer sizes")
	}

	wantLights := uint64(16 + light.MaxGPULights*32)
	wantBounds := clusterCount * 16
	wantIndices := clusterCount * DefaultMaxLightsPerCluster * 4
	wantCounts := clusterCount * 4
	var gotLights, gotBounds, gotIndices, gotCounts bool
	for _, size := range cullInit.sizeOverrides {
		switch size {
		case wantLights:
			gotLights = true
		case wantBounds:
			gotBounds = true
		case wantIndices:
			gotIndices = true
		case wantCounts:
			gotCounts = true
		}
	}
	if !gotLights || !gotBounds || !gotIndices || !gotCounts {
		t.Errorf("cull buffer sizes %v missing expected values (lights=%d bounds=%d indices=%d counts=%d)",
			cullInit.sizeOverrides, wantLights, wantBounds, wantIndices, wantCounts)
	}
}

func TestPrepareLightCullingDispatch(t *testing.T) {
	s, f := testScene(t)
	if err := s.InitClusterLighting(1920, 1080); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.AddLight(light.NewLight(light.LightTypePoint))
	s.AddLight(light.NewLight(light.LightTypePoint))
	s.AddLight(light.NewLight(light.LightTypePoint, light.WithEnabled(false)))

	s.PrepareLightCulling()

	if len(f.dispatches) != 1 {
		t.Fatalf("expected one cull dispatch, got %d", len(f.dispatches))
	}
	clusterCount := s.Grid().ClusterCount()
	wantGroups := (clusterCount + 63) / 64
	if f.dispatches[0].workGroupCount != [3]uint32{wantGroups, 1, 1} {
		t.Errorf("expected %d workgroups, got %v", wantGroups, f.dispatches[0].workGroupCount)
	}

	// The cull uniform write carries the enabled light count at offset 80.
	data := f.lastWriteFor(f.dispatches[0].provider, 0)
	if len(data) != 96 {
		t.Fatalf("expected a 96-byte cull uniform write, got %d bytes", len(data))
	}
	if got := binary.LittleEndian.Uint32(data[80:84]); got != 2 {
		t.Errorf("expected light count 2 (disabled lights excluded), got %d", got)
	}
}

func TestPrepareLightCullingDispatchesWithZeroLights(t *testing.T) {
	s, f := testScene(t)
	if err := s.InitClusterLighting(1920, 1080); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.PrepareLightCulling()

	if len(f.dispatches) != 1 {
		t.Fatalf("the cull pass must run with zero lights to clear stale counts, got %d dispatches", len(f.dispatches))
	}
	data := f.lastWriteFor(f.dispatches[0].provider, 0)
	if got := binary.LittleEndian.Uint32(data[80:84]); got != 0 {
		t.Errorf("expected light count 0, got %d", got)
	}
}

func TestPrepareComputeStagesModelMatrices(t *testing.T) {
	s, f := testScene(t)
	mdl := testModel("cube")

	enabled := game_object.NewGameObject(
		game_object.WithModel(mdl),
		game_object.WithPosition(1, 2, 3),
	)
	disabled := game_object.NewGameObject(game_object.WithModel(mdl))
	disabled.SetEnabled(false)
	s.Add(enabled)
	s.Add(disabled)

	s.PrepareCompute(0)

	var staged []byte
	for _, w := range f.writes {
		if len(w.data) == 128 {
			staged = w.data
			break
		}
	}
	if staged == nil {
		t.Fatal("expected a 128-byte model matrix write for the two-instance batch")
	}

	// Column-major translation lives at elements 12, 13, 14.
	for i, want := range []float32{1, 2, 3} {
		off := (12 + i) * 4
		got := math.Float32frombits(binary.LittleEndian.Uint32(staged[off : off+4]))
		if got != want {
			t.Errorf("translation element %d: expected %g, got %g", i, want, got)
		}
	}

	// The disabled instance must collapse to a zero matrix.
	for off := 64; off < 128; off += 4 {
		if binary.LittleEndian.Uint32(staged[off:off+4]) != 0 {
			t.Fatal("disabled objects must stage a zero matrix")
		}
	}
}

func TestPrepareComputeFrustumCullsInstances(t *testing.T) {
	s, f := testScene(t, WithFrustumCulling(true))

	mdl := model.NewModel(
		model.WithName("culled_cube"),
		model.WithVertexData(model.MarshalVertexBuffer([]model.GPUVertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 1, 0}},
		})),
		model.WithIndexData([]byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}),
		model.WithIndexCount(3),
		model.WithBoundingRadius(1),
	)

	// The default camera sits at (0, 0, 10) looking at the origin, so an
	// instance at the origin is visible and one far off to the side is not.
	visible := game_object.NewGameObject(
		game_object.WithModel(mdl),
		game_object.WithPosition(0, 0, 0),
	)
	culled := game_object.NewGameObject(
		game_object.WithModel(mdl),
		game_object.WithPosition(500, 0, 0),
	)
	s.Add(visible)
	s.Add(culled)

	s.PrepareCompute(0)

	var staged []byte
	for _, w := range f.writes {
		if len(w.data) == 128 {
			staged = w.data
			break
		}
	}
	if staged == nil {
		t.Fatal("expected a 128-byte model matrix write for the two-instance batch")
	}

	// The visible instance keeps a real matrix (diagonal element 0 is 1).
	if got := math.Float32frombits(binary.LittleEndian.Uint32(staged[0:4])); got != 1 {
		t.Errorf("visible instance: expected matrix element 0 to be 1, got %g", got)
	}

	// The culled instance collapses to a zero matrix.
	for off := 64; off < 128; off += 4 {
		if binary.LittleEndian.Uint32(staged[off:off+4]) != 0 {
			t.Fatal("out-of-frustum instances must stage a zero matrix")
		}
	}
}

func TestPrepareComputeAdvancesRotation(t *testing.T) {
	s, _ := testScene(t)
	obj := game_object.NewGameObject(
		game_object.WithModel(testModel("spinner")),
		game_object.WithRotationSpeed(0, 2, 0),
	)
	s.Add(obj)

	s.PrepareCompute(0.5)

	_, ry, _ := obj.Rotation()
	if ry != 1 {
		t.Errorf("expected rotation y advanced to 1, got %g", ry)
	}
}

func TestBuilderOptions(t *testing.T) {
	s, f := testScene(t,
		WithActive(true),
		WithAmbientColor(0.1, 0.2, 0.3),
		WithClusterCounts(8, 4, 10),
		WithMaxLightsPerCluster(64),
	)

	if !s.Active() {
		t.Error("expected an active scene")
	}
	if s.AmbientColor() != [3]float32{0.1, 0.2, 0.3} {
		t.Errorf("unexpected ambient color %v", s.AmbientColor())
	}

	if err := s.InitClusterLighting(800, 600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Grid().ClusterCount(); got != 8*4*10 {
		t.Errorf("expected 320 clusters, got %d", got)
	}

	wantIndices := uint64(8*4*10) * 64 * 4
	found := false
	for _, init := range f.bindGroupInits {
		for _, size := range init.sizeOverrides {
			if size == wantIndices {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected an index buffer sized for 64 lights per cluster (%d bytes)", wantIndices)
	}
}

func TestClear(t *testing.T) {
	s, _ := testScene(t)
	mdl := testModel("cube")
	s.Add(game_object.NewGameObject(game_object.WithModel(mdl)))
	s.AddLight(light.NewLight(light.LightTypePoint))

	s.Clear()

	if s.Count() != 0 || s.CountEphemeral() != 0 {
		t.Error("expected no objects after Clear")
	}
	if len(s.Lights()) != 0 {
		t.Error("expected no lights after Clear")
	}
}
