package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/lux-go/common"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial()

	if m.BaseColor() != [4]float32{1, 1, 1, 1} {
		t.Errorf("expected white base color, got %v", m.BaseColor())
	}
	if m.Metallic() != 0 {
		t.Errorf("expected metallic 0, got %f", m.Metallic())
	}
	if m.Roughness() != 1 {
		t.Errorf("expected roughness 1, got %f", m.Roughness())
	}
	if m.OcclusionStrength() != 1 {
		t.Errorf("expected occlusion strength 1, got %f", m.OcclusionStrength())
	}
	if m.DoubleSided() || m.AlphaBlend() {
		t.Error("expected single-sided opaque defaults")
	}
}

func TestNewMaterialFromImported(t *testing.T) {
	diffuse := &common.ImportedTexture{Width: 4, Height: 4}
	im := common.ImportedMaterial{
		Name:              "brick",
		BaseColor:         [4]float32{0.8, 0.3, 0.2, 1},
		Metallic:          0.1,
		Roughness:         0.7,
		EmissiveFactor:    [3]float32{0, 0.5, 0},
		OcclusionStrength: 0.9,
		DoubleSided:       true,
		AlphaBlend:        true,
		DiffuseTexture:    diffuse,
	}

	m := NewMaterialFromImported(im)
	if m.Name() != "brick" {
		t.Errorf("expected name brick, got %s", m.Name())
	}
	if m.BaseColor() != im.BaseColor {
		t.Errorf("base color mismatch: %v", m.BaseColor())
	}
	if m.EmissiveFactor() != im.EmissiveFactor {
		t.Errorf("emissive factor mismatch: %v", m.EmissiveFactor())
	}
	if m.OcclusionStrength() != 0.9 {
		t.Errorf("occlusion strength mismatch: %f", m.OcclusionStrength())
	}
	if !m.DoubleSided() || !m.AlphaBlend() {
		t.Error("double-sided and blend flags not forwarded")
	}
	if m.DiffuseTexture() != diffuse {
		t.Error("diffuse texture reference not forwarded")
	}
	if m.NormalTexture() != nil {
		t.Error("normal texture should be nil")
	}
}

func TestGPUMaterialParamsMarshal(t *testing.T) {
	p := GPUMaterialParams{
		BaseColor:         [4]float32{0.5, 0.25, 0.125, 1},
		EmissiveFactor:    [3]float32{1, 2, 3},
		Metallic:          0.75,
		Roughness:         0.5,
		OcclusionStrength: 0.9,
	}
	if p.Size() != 48 {
		t.Fatalf("expected size 48, got %d", p.Size())
	}

	buf := p.Marshal()
	if len(buf) != 48 {
		t.Fatalf("expected 48-byte buffer, got %d", len(buf))
	}

	readF32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	if readF32(0) != 0.5 || readF32(12) != 1 {
		t.Error("base_color at wrong offset")
	}
	if readF32(16) != 1 || readF32(24) != 3 {
		t.Error("emissive_factor at wrong offset")
	}
	if readF32(28) != 0.75 {
		t.Error("metallic at wrong offset")
	}
	if readF32(32) != 0.5 {
		t.Error("roughness at wrong offset")
	}
	if readF32(36) != 0.9 {
		t.Error("occlusion_strength at wrong offset")
	}
}

func TestToGPUMaterialParams(t *testing.T) {
	m := NewMaterial(
		WithBaseColor([4]float32{0.1, 0.2, 0.3, 1}),
		WithMetallic(1),
		WithRoughness(0.25),
		WithEmissiveFactor([3]float32{2, 0, 0}),
		WithOcclusionStrength(0.5),
	)
	p := ToGPUMaterialParams(m)
	if p.BaseColor != m.BaseColor() {
		t.Error("base color not carried over")
	}
	if p.Metallic != 1 || p.Roughness != 0.25 {
		t.Error("metallic/roughness not carried over")
	}
	if p.EmissiveFactor != [3]float32{2, 0, 0} || p.OcclusionStrength != 0.5 {
		t.Error("emissive/occlusion not carried over")
	}
}
