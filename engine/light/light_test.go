package light

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint)

	if l.Type() != LightTypePoint {
		t.Errorf("expected point light, got %v", l.Type())
	}
	if l.Color() != [3]float32{1, 1, 1} {
		t.Errorf("expected white color, got %v", l.Color())
	}
	if l.Intensity() != 1.0 {
		t.Errorf("expected intensity 1.0, got %f", l.Intensity())
	}
	if l.Range() != 10.0 {
		t.Errorf("expected range 10.0, got %f", l.Range())
	}
	if !l.Enabled() {
		t.Error("expected light to be enabled by default")
	}
	if l.Ephemeral() {
		t.Error("expected light to be non-ephemeral by default")
	}
}

func TestLightBuilderOptions(t *testing.T) {
	l := NewLight(LightTypePoint,
		WithPosition(1, 2, 3),
		WithColor(0.5, 0.25, 0.125),
		WithIntensity(4),
		WithRange(20),
		WithEnabled(false),
		WithEphemeral(true),
	)

	if l.Position() != [3]float32{1, 2, 3} {
		t.Errorf("unexpected position %v", l.Position())
	}
	if l.Color() != [3]float32{0.5, 0.25, 0.125} {
		t.Errorf("unexpected color %v", l.Color())
	}
	if l.Intensity() != 4 {
		t.Errorf("unexpected intensity %f", l.Intensity())
	}
	if l.Range() != 20 {
		t.Errorf("unexpected range %f", l.Range())
	}
	if l.Enabled() {
		t.Error("expected light to be disabled")
	}
	if !l.Ephemeral() {
		t.Error("expected light to be ephemeral")
	}
}

func TestAttenuationWindowedFalloff(t *testing.T) {
	// Inside the range the windowed term scales inverse-square falloff.
	d := float32(2)
	r := float32(10)
	f := d / r
	want := (1 - f*f*f*f) / (d * d)
	got := Attenuation(d, r)
	if math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("Attenuation(%f, %f) = %f, want %f", d, r, got, want)
	}
}

func TestAttenuationZeroAtRange(t *testing.T) {
	if got := Attenuation(10, 10); got != 0 {
		t.Errorf("attenuation at exactly range should be 0, got %f", got)
	}
	if got := Attenuation(15, 10); got != 0 {
		t.Errorf("attenuation beyond range should be 0, got %f", got)
	}
}

func TestAttenuationUnboundedRange(t *testing.T) {
	// Non-positive range means pure inverse-square falloff.
	if got, want := Attenuation(2, 0), float32(0.25); got != want {
		t.Errorf("Attenuation(2, 0) = %f, want %f", got, want)
	}
	if got, want := Attenuation(4, -1), float32(1.0/16.0); got != want {
		t.Errorf("Attenuation(4, -1) = %f, want %f", got, want)
	}
}

func TestAttenuationFiniteAtOrigin(t *testing.T) {
	got := Attenuation(0, 10)
	if math.IsInf(float64(got), 0) || math.IsNaN(float64(got)) {
		t.Errorf("attenuation at zero distance must be finite, got %f", got)
	}
}

func TestGPULightMarshal(t *testing.T) {
	g := GPULight{
		Position:   [3]float32{1, 2, 3},
		LightRange: 10,
		Color:      [3]float32{0.5, 0.6, 0.7},
		Intensity:  2,
	}

	buf := g.Marshal()
	if len(buf) != 32 {
		t.Fatalf("expected 32-byte buffer, got %d", len(buf))
	}
	if g.Size() != 32 {
		t.Errorf("expected struct size 32, got %d", g.Size())
	}

	if v := math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])); v != 10 {
		t.Errorf("expected range 10 at offset 12, got %f", v)
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(buf[28:32])); v != 2 {
		t.Errorf("expected intensity 2 at offset 28, got %f", v)
	}
}

func TestMarshalLightBufferSkipsDisabled(t *testing.T) {
	lights := []Light{
		NewLight(LightTypePoint, WithPosition(1, 0, 0)),
		NewLight(LightTypePoint, WithPosition(2, 0, 0), WithEnabled(false)),
		NewLight(LightTypePoint, WithPosition(3, 0, 0)),
	}

	buf := MarshalLightBuffer(lights, [3]float32{0.1, 0.2, 0.3})

	headerSize := (&GPULightHeader{}).Size()
	lightSize := (&GPULight{}).Size()
	if len(buf) != headerSize+2*lightSize {
		t.Fatalf("expected buffer for 2 lights, got %d bytes", len(buf))
	}

	count := binary.LittleEndian.Uint32(buf[12:16])
	if count != 2 {
		t.Errorf("expected light count 2 in header, got %d", count)
	}

	// The second marshaled light should be the third input (disabled one skipped).
	x := math.Float32frombits(binary.LittleEndian.Uint32(buf[headerSize+lightSize : headerSize+lightSize+4]))
	if x != 3 {
		t.Errorf("expected second marshaled light at x=3, got %f", x)
	}
}

func TestMarshalLightBufferAmbientHeader(t *testing.T) {
	buf := MarshalLightBuffer(nil, [3]float32{0.25, 0.5, 0.75})
	if len(buf) != 16 {
		t.Fatalf("expected header-only buffer, got %d bytes", len(buf))
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])); v != 0.5 {
		t.Errorf("expected ambient green 0.5, got %f", v)
	}
	if count := binary.LittleEndian.Uint32(buf[12:16]); count != 0 {
		t.Errorf("expected zero light count, got %d", count)
	}
}
