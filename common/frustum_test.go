package common

import (
	"math"
	"testing"
)

// testFrustum builds a frustum for a camera at (0, 0, 10) looking at the
// origin with a 45 degree vertical FOV and a square aspect ratio.
func testFrustum() Frustum {
	var view, proj, vp [16]float32
	LookAt(view[:], 0, 0, 10, 0, 0, 0, 0, 1, 0)
	Perspective(proj[:], float32(45.0*math.Pi/180.0), 1.0, 0.1, 100.0)
	Mul4(vp[:], proj[:], view[:])
	return ExtractFrustumFromMatrix(vp[:])
}

func TestExtractFrustumPlanesAreNormalized(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		length := math.Sqrt(float64(
			p.Normal[0]*p.Normal[0] +
				p.Normal[1]*p.Normal[1] +
				p.Normal[2]*p.Normal[2],
		))
		if math.Abs(length-1.0) > 1e-4 {
			t.Errorf("plane %d: expected unit normal, got length %g", i, length)
		}
	}
}

func TestContainsSphere(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name   string
		center [3]float32
		radius float32
		want   bool
	}{
		{"at the look target", [3]float32{0, 0, 0}, 1, true},
		{"deep in front of the camera", [3]float32{0, 0, -50}, 1, true},
		{"far off to the side", [3]float32{100, 0, 0}, 1, false},
		{"behind the camera", [3]float32{0, 0, 50}, 1, false},
		{"beyond the far plane", [3]float32{0, 0, -200}, 1, false},
		{"just outside the right plane", [3]float32{6, 0, 0}, 0.5, false},
		{"straddling the right plane", [3]float32{6, 0, 0}, 3, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsSphere(tc.center, tc.radius); got != tc.want {
				t.Errorf("ContainsSphere(%v, %g) = %v, want %v", tc.center, tc.radius, got, tc.want)
			}
		})
	}
}
