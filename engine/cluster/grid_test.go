package cluster

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/lux-go/common"
)

func testGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(16, 9, 24, 1280, 720, 0.1, 100)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	return g
}

func TestNewGridValidation(t *testing.T) {
	cases := []struct {
		name                   string
		cx, cy, cz             uint32
		w, h                   int
		near, far              float32
	}{
		{"zero count x", 0, 9, 24, 1280, 720, 0.1, 100},
		{"zero count z", 16, 9, 0, 1280, 720, 0.1, 100},
		{"zero width", 16, 9, 24, 0, 720, 0.1, 100},
		{"zero near", 16, 9, 24, 1280, 720, 0, 100},
		{"far before near", 16, 9, 24, 1280, 720, 10, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewGrid(tc.cx, tc.cy, tc.cz, tc.w, tc.h, tc.near, tc.far); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestClusterIndexRoundTrip(t *testing.T) {
	g := testGrid(t)

	if g.ClusterCount() != 16*9*24 {
		t.Fatalf("expected %d clusters, got %d", 16*9*24, g.ClusterCount())
	}

	// X varies fastest, then Y, then Z.
	if idx := g.ClusterIndex(1, 0, 0); idx != 1 {
		t.Errorf("expected index 1 for (1,0,0), got %d", idx)
	}
	if idx := g.ClusterIndex(0, 1, 0); idx != 16 {
		t.Errorf("expected index 16 for (0,1,0), got %d", idx)
	}
	if idx := g.ClusterIndex(0, 0, 1); idx != 16*9 {
		t.Errorf("expected index %d for (0,0,1), got %d", 16*9, idx)
	}

	for i := uint32(0); i < g.ClusterCount(); i++ {
		x, y, z := g.ClusterCoords(i)
		if back := g.ClusterIndex(x, y, z); back != i {
			t.Fatalf("round trip failed for index %d: coords (%d,%d,%d) -> %d", i, x, y, z, back)
		}
	}
}

func TestSliceDepthEndpoints(t *testing.T) {
	g := testGrid(t)

	if got := g.SliceDepth(0); math.Abs(float64(got-0.1)) > 1e-6 {
		t.Errorf("slice 0 boundary should be near plane, got %f", got)
	}
	if got := g.SliceDepth(24); math.Abs(float64(got-100)) > 1e-3 {
		t.Errorf("slice countZ boundary should be far plane, got %f", got)
	}

	// Boundaries are strictly increasing.
	prev := g.SliceDepth(0)
	for k := uint32(1); k <= 24; k++ {
		d := g.SliceDepth(k)
		if d <= prev {
			t.Fatalf("slice boundaries must increase: depth(%d)=%f <= depth(%d)=%f", k, d, k-1, prev)
		}
		prev = d
	}
}

func TestSliceForDepthMatchesBoundaries(t *testing.T) {
	g := testGrid(t)

	// The geometric midpoint of each slice maps back to that slice.
	for k := uint32(0); k < 24; k++ {
		mid := float32(math.Sqrt(float64(g.SliceDepth(k)) * float64(g.SliceDepth(k+1))))
		if got := g.SliceForDepth(mid); got != k {
			t.Errorf("midpoint of slice %d (depth %f) mapped to slice %d", k, mid, got)
		}
	}

	// Depths outside the range clamp to the first and last slice.
	if got := g.SliceForDepth(0.01); got != 0 {
		t.Errorf("depth before near plane should clamp to slice 0, got %d", got)
	}
	if got := g.SliceForDepth(500); got != 23 {
		t.Errorf("depth beyond far plane should clamp to last slice, got %d", got)
	}
}

func TestSliceScaleBiasConsistency(t *testing.T) {
	g := testGrid(t)

	// The shader evaluates floor(ln(depth) * scale + bias); it must agree with
	// SliceForDepth for representative depths.
	for _, depth := range []float32{0.15, 1, 5, 20, 50, 99} {
		shaderSlice := int64(math.Floor(float64(g.SliceScale())*math.Log(float64(depth)) + float64(g.SliceBias())))
		if shaderSlice < 0 {
			shaderSlice = 0
		}
		if shaderSlice > 23 {
			shaderSlice = 23
		}
		if got := g.SliceForDepth(depth); int64(got) != shaderSlice {
			t.Errorf("depth %f: SliceForDepth=%d, shader formula=%d", depth, got, shaderSlice)
		}
	}
}

func TestTileSize(t *testing.T) {
	g := testGrid(t)
	w, h := g.TileSize()
	if w != 80 {
		t.Errorf("expected tile width 80, got %f", w)
	}
	if h != 80 {
		t.Errorf("expected tile height 80, got %f", h)
	}
}

func TestBuildBounds(t *testing.T) {
	g := testGrid(t)

	var proj, invProj [16]float32
	common.Perspective(proj[:], float32(math.Pi/3), 1280.0/720.0, 0.1, 100)
	if !common.Invert4(invProj[:], proj[:]) {
		t.Fatal("projection matrix not invertible")
	}

	bounds := g.BuildBounds(invProj[:])
	if len(bounds) != int(g.ClusterCount()) {
		t.Fatalf("expected %d bounds, got %d", g.ClusterCount(), len(bounds))
	}

	for z := uint32(0); z < 24; z++ {
		sliceNear := -g.SliceDepth(z)
		sliceFar := -g.SliceDepth(z + 1)

		for y := uint32(0); y < 9; y++ {
			for x := uint32(0); x < 16; x++ {
				b := bounds[g.ClusterIndex(x, y, z)]

				// AABB must be well formed and the sphere must enclose it.
				for c := 0; c < 3; c++ {
					if b.MinPoint[c] > b.MaxPoint[c] {
						t.Fatalf("cluster (%d,%d,%d): min %v exceeds max %v", x, y, z, b.MinPoint, b.MaxPoint)
					}
				}
				if b.Radius <= 0 {
					t.Fatalf("cluster (%d,%d,%d): non-positive radius %f", x, y, z, b.Radius)
				}

				// The depth extent must match the slice boundaries. View space
				// looks down -Z, so max Z is the near boundary.
				if math.Abs(float64(b.MaxPoint[2]-sliceNear)) > 1e-3 {
					t.Fatalf("cluster (%d,%d,%d): max z %f, want slice near %f", x, y, z, b.MaxPoint[2], sliceNear)
				}
				if math.Abs(float64(b.MinPoint[2]-sliceFar)) > 1e-3 {
					t.Fatalf("cluster (%d,%d,%d): min z %f, want slice far %f", x, y, z, b.MinPoint[2], sliceFar)
				}
			}
		}
	}

	// Neighboring clusters in X must tile the view volume without gaps.
	left := bounds[g.ClusterIndex(7, 4, 10)]
	right := bounds[g.ClusterIndex(8, 4, 10)]
	if math.Abs(float64(left.MaxPoint[0]-right.MinPoint[0])) > 1e-3 {
		t.Errorf("adjacent clusters should share a boundary: %f vs %f", left.MaxPoint[0], right.MinPoint[0])
	}
}

func TestBuildBoundsSphereContainsAABBCorners(t *testing.T) {
	g := testGrid(t)

	var proj, invProj [16]float32
	common.Perspective(proj[:], float32(math.Pi/4), 16.0/9.0, 0.1, 100)
	if !common.Invert4(invProj[:], proj[:]) {
		t.Fatal("projection matrix not invertible")
	}

	bounds := g.BuildBounds(invProj[:])
	for _, b := range bounds {
		for _, cx := range []float32{b.MinPoint[0], b.MaxPoint[0]} {
			for _, cy := range []float32{b.MinPoint[1], b.MaxPoint[1]} {
				for _, cz := range []float32{b.MinPoint[2], b.MaxPoint[2]} {
					dx := float64(cx - b.Center[0])
					dy := float64(cy - b.Center[1])
					dz := float64(cz - b.Center[2])
					dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
					if dist > float64(b.Radius)*(1+1e-4) {
						t.Fatalf("AABB corner outside bounding sphere: dist %f > radius %f", dist, b.Radius)
					}
				}
			}
		}
	}
}
