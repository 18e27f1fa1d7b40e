package camera

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	px, py, pz := c.Position()
	if px != 0 || py != 0 || pz != 10 {
		t.Errorf("expected default position (0,0,10), got (%f,%f,%f)", px, py, pz)
	}
	if c.Near() != 0.1 || c.Far() != 100 {
		t.Errorf("expected default depth range [0.1, 100], got [%f, %f]", c.Near(), c.Far())
	}
}

func TestCameraViewMatrixFollowsPosition(t *testing.T) {
	c := NewCamera(
		camOptions(0, 0, 10, 0, 0, 0)...,
	)

	// The origin sits 10 units in front of the camera, so its view-space
	// position is (0, 0, -10).
	view := c.ViewMatrix()
	vz := view[2]*0 + view[6]*0 + view[10]*0 + view[14]
	if math.Abs(float64(vz+10)) > 1e-5 {
		t.Errorf("expected origin at view depth -10, got %f", vz)
	}

	c.SetPosition(0, 0, 5)
	view = c.ViewMatrix()
	vz = view[14]
	if math.Abs(float64(vz+5)) > 1e-5 {
		t.Errorf("after moving to z=5, expected origin at view depth -5, got %f", vz)
	}
}

func camOptions(px, py, pz, tx, ty, tz float32) []CameraBuilderOption {
	return []CameraBuilderOption{
		WithPosition(px, py, pz),
		WithTarget(tx, ty, tz),
		WithFov(float32(60.0 * math.Pi / 180.0)),
		WithAspect(16.0 / 9.0),
		WithNear(0.1),
		WithFar(100),
	}
}

func TestCameraInverseProjection(t *testing.T) {
	c := NewCamera(camOptions(0, 0, 10, 0, 0, 0)...)

	proj := c.ProjectionMatrix()
	inv := c.InverseProjectionMatrix()

	// proj * inv must be identity.
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += proj[k*4+row] * inv[col*4+k]
			}
			want := float32(0)
			if row == col {
				want = 1
			}
			if math.Abs(float64(sum-want)) > 1e-4 {
				t.Fatalf("proj*invProj[%d,%d] = %f, want %f", row, col, sum, want)
			}
		}
	}
}

func TestCameraMatricesUpdateOnProjectionChange(t *testing.T) {
	c := NewCamera(camOptions(0, 0, 10, 0, 0, 0)...)
	before := c.ProjectionMatrix()

	c.SetFov(float32(90.0 * math.Pi / 180.0))
	after := c.ProjectionMatrix()
	if before == after {
		t.Error("projection matrix did not change after SetFov")
	}

	c.SetAspect(1)
	if c.ProjectionMatrix() == after {
		t.Error("projection matrix did not change after SetAspect")
	}
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	var u GPUCameraUniform
	for i := range 16 {
		u.ViewProj[i] = float32(i)
		u.View[i] = float32(100 + i)
	}
	u.CameraPosition = [3]float32{1, 2, 3}

	if u.Size() != 144 {
		t.Fatalf("expected size 144, got %d", u.Size())
	}

	buf := u.Marshal()
	if len(buf) != 144 {
		t.Fatalf("expected 144-byte buffer, got %d", len(buf))
	}

	readF32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	if readF32(0) != 0 || readF32(60) != 15 {
		t.Error("view_proj at wrong offset")
	}
	if readF32(64) != 100 || readF32(124) != 115 {
		t.Error("view at wrong offset")
	}
	if readF32(128) != 1 || readF32(132) != 2 || readF32(136) != 3 {
		t.Error("camera_position at wrong offset")
	}
}
