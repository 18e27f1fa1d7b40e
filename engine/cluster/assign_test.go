package cluster

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/light"
)

func identityView() []float32 {
	view := make([]float32, 16)
	common.Identity(view)
	return view
}

func buildTestBounds(t *testing.T, g *Grid) []ClusterBounds {
	t.Helper()
	var proj, invProj [16]float32
	common.Perspective(proj[:], float32(math.Pi/3), 1280.0/720.0, g.Near(), g.Far())
	if !common.Invert4(invProj[:], proj[:]) {
		t.Fatal("projection matrix not invertible")
	}
	return g.BuildBounds(invProj[:])
}

func TestAssignLightsSingleLight(t *testing.T) {
	g := testGrid(t)
	bounds := buildTestBounds(t, g)

	lights := []light.GPULight{
		{Position: [3]float32{0, 0, -5}, LightRange: 2, Color: [3]float32{1, 1, 1}, Intensity: 1},
	}

	assignment := AssignLights(bounds, lights, identityView(), 256)
	if len(assignment) != int(g.ClusterCount()) {
		t.Fatalf("expected %d cluster lists, got %d", g.ClusterCount(), len(assignment))
	}

	// The cluster covering the light's position must receive it.
	homeSlice := g.SliceForDepth(5)
	homeCluster := g.ClusterIndex(8, 4, homeSlice)
	if len(assignment[homeCluster]) != 1 || assignment[homeCluster][0] != 0 {
		t.Errorf("cluster at the light position should hold light 0, got %v", assignment[homeCluster])
	}

	// Clusters in the last depth slice are far beyond the light's reach.
	for x := uint32(0); x < g.CountX(); x++ {
		for y := uint32(0); y < g.CountY(); y++ {
			idx := g.ClusterIndex(x, y, g.CountZ()-1)
			if len(assignment[idx]) != 0 {
				t.Fatalf("far cluster (%d,%d) should be empty, got %v", x, y, assignment[idx])
			}
		}
	}

	// Culling must discard the overwhelming majority of cluster-light pairs.
	total := CountAssigned(assignment)
	if total == 0 {
		t.Fatal("light was not assigned to any cluster")
	}
	if total > int(g.ClusterCount())/4 {
		t.Errorf("a range-2 light reached %d of %d clusters, culling is too loose", total, g.ClusterCount())
	}
}

func TestAssignLightsUnboundedRange(t *testing.T) {
	g := testGrid(t)
	bounds := buildTestBounds(t, g)

	lights := []light.GPULight{
		{Position: [3]float32{0, 0, -5}, LightRange: 0, Color: [3]float32{1, 1, 1}, Intensity: 1},
	}

	assignment := AssignLights(bounds, lights, identityView(), 256)
	for i, list := range assignment {
		if len(list) != 1 || list[0] != 0 {
			t.Fatalf("unbounded light missing from cluster %d: %v", i, list)
		}
	}
}

func TestAssignLightsBoundaryInclusion(t *testing.T) {
	// One synthetic cluster with a known bounding sphere; the identity view
	// keeps light positions in view space as given.
	bounds := []ClusterBounds{
		{Center: [3]float32{0, 0, -10}, Radius: 5},
	}

	tests := []struct {
		name     string
		position [3]float32
		reach    float32
		want     bool
	}{
		{"at the sphere center with a tiny range", [3]float32{0, 0, -10}, 0.01, true},
		{"exactly at distance range + radius", [3]float32{8, 0, -10}, 3, true},
		{"just beyond range + radius", [3]float32{8.5, 0, -10}, 3, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lights := []light.GPULight{
				{Position: tc.position, LightRange: tc.reach, Color: [3]float32{1, 1, 1}, Intensity: 1},
			}
			assignment := AssignLights(bounds, lights, identityView(), 256)
			got := len(assignment[0]) == 1
			if got != tc.want {
				t.Errorf("light at %v with range %g: assigned=%v, want %v", tc.position, tc.reach, got, tc.want)
			}
		})
	}
}

func TestAssignLightsTruncationKeepsLowestIndices(t *testing.T) {
	g := testGrid(t)
	bounds := buildTestBounds(t, g)

	lights := make([]light.GPULight, 10)
	for i := range lights {
		lights[i] = light.GPULight{Position: [3]float32{0, 0, -5}, LightRange: 0, Intensity: 1}
	}

	assignment := AssignLights(bounds, lights, identityView(), 4)
	if MaxListLength(assignment) != 4 {
		t.Fatalf("expected lists capped at 4, got max %d", MaxListLength(assignment))
	}
	for i, list := range assignment {
		for j, li := range list {
			if li != uint32(j) {
				t.Fatalf("cluster %d: truncation must keep the lowest indices, got %v", i, list)
			}
		}
	}
}

func TestAssignLightsRespectsViewMatrix(t *testing.T) {
	g := testGrid(t)
	bounds := buildTestBounds(t, g)

	// Camera at (0,0,10) looking at the origin places a world-origin light at
	// view depth 10.
	view := make([]float32, 16)
	common.LookAt(view, 0, 0, 10, 0, 0, 0, 0, 1, 0)

	lights := []light.GPULight{
		{Position: [3]float32{0, 0, 0}, LightRange: 2, Intensity: 1},
	}

	assignment := AssignLights(bounds, lights, view, 256)
	homeSlice := g.SliceForDepth(10)
	homeCluster := g.ClusterIndex(8, 4, homeSlice)
	if len(assignment[homeCluster]) != 1 {
		t.Errorf("view-transformed light missing from its home cluster, got %v", assignment[homeCluster])
	}

	// A cluster well in front of the light must stay empty.
	nearCluster := g.ClusterIndex(8, 4, g.SliceForDepth(0.5))
	if len(assignment[nearCluster]) != 0 {
		t.Errorf("near cluster should be empty, got %v", assignment[nearCluster])
	}
}

func TestViewDepth(t *testing.T) {
	view := identityView()

	if d := ViewDepth(view, 0, 0, -5); math.Abs(float64(d-5)) > 1e-6 {
		t.Errorf("expected depth 5, got %f", d)
	}
	if d := ViewDepth(view, 0, 0, 5); d != 0 {
		t.Errorf("points behind the camera should report depth 0, got %f", d)
	}

	common.LookAt(view, 0, 0, 10, 0, 0, 0, 0, 1, 0)
	if d := ViewDepth(view, 0, 0, 0); math.Abs(float64(d-10)) > 1e-5 {
		t.Errorf("expected depth 10 under look-at view, got %f", d)
	}
}
