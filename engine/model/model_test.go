package model

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestAttributeSet(t *testing.T) {
	s := NewAttributeSet(AttributeNormal, AttributeTexCoord0)

	if !s.Has(AttributePosition) {
		t.Error("position must always be present")
	}
	if !s.Has(AttributeNormal) || !s.Has(AttributeTexCoord0) {
		t.Error("explicit attributes missing from set")
	}
	if s.Has(AttributeTangent) || s.Has(AttributeColor0) {
		t.Error("set contains attributes that were not added")
	}
}

func TestAttributeSetSortedDeterministic(t *testing.T) {
	a := NewAttributeSet(AttributeTangent, AttributeNormal, AttributeTexCoord0)
	b := NewAttributeSet(AttributeTexCoord0, AttributeTangent, AttributeNormal)

	sa := a.Sorted()
	sb := b.Sorted()
	if len(sa) != len(sb) {
		t.Fatalf("sorted lengths differ: %d vs %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("sorted order differs at %d: %s vs %s", i, sa[i], sb[i])
		}
		if i > 0 && sa[i-1] >= sa[i] {
			t.Fatalf("attributes not in ascending order: %s >= %s", sa[i-1], sa[i])
		}
	}
}

func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.25, 0.75},
		Color:    [4]float32{1, 0, 0, 1},
		Tangent:  [4]float32{1, 0, 0, -1},
	}
	if v.Size() != 64 {
		t.Fatalf("expected size 64, got %d", v.Size())
	}

	buf := v.Marshal()
	if len(buf) != 64 {
		t.Fatalf("expected 64-byte buffer, got %d", len(buf))
	}

	readF32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	if readF32(0) != 1 || readF32(4) != 2 || readF32(8) != 3 {
		t.Error("position at wrong offset")
	}
	if readF32(16) != 1 {
		t.Error("normal at wrong offset")
	}
	if readF32(24) != 0.25 || readF32(28) != 0.75 {
		t.Error("tex coord at wrong offset")
	}
	if readF32(32) != 1 || readF32(44) != 1 {
		t.Error("color at wrong offset")
	}
	if readF32(48) != 1 || readF32(60) != -1 {
		t.Error("tangent at wrong offset")
	}
}

func TestMarshalVertexBuffer(t *testing.T) {
	vertices := []GPUVertex{
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{2, 0, 0}},
	}
	buf := MarshalVertexBuffer(vertices)
	if len(buf) != 128 {
		t.Fatalf("expected 128 bytes for 2 vertices, got %d", len(buf))
	}
	second := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:68]))
	if second != 2 {
		t.Errorf("second vertex position x: got %f", second)
	}
}

func TestComputeBoundingRadius(t *testing.T) {
	vertices := []GPUVertex{
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 3, 4}},
		{Position: [3]float32{-2, 0, 0}},
	}
	if r := ComputeBoundingRadius(vertices); math.Abs(float64(r-5)) > 1e-6 {
		t.Errorf("expected radius 5, got %f", r)
	}
	if r := ComputeBoundingRadius(nil); r != 0 {
		t.Errorf("empty mesh should have zero radius, got %f", r)
	}
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(WithName("cube"))
	if m.Name() != "cube" {
		t.Errorf("expected name cube, got %s", m.Name())
	}
	if m.Attributes() == nil || !m.Attributes().Has(AttributePosition) {
		t.Error("default attribute set must contain position")
	}
}

func TestNewModelWithOptions(t *testing.T) {
	verts := MarshalVertexBuffer([]GPUVertex{{Position: [3]float32{1, 1, 1}}})
	m := NewModel(
		WithName("quad"),
		WithAttributes(AttributeNormal, AttributeTexCoord0),
		WithVertexData(verts),
		WithIndexCount(6),
		WithBoundingRadius(2),
	)

	if !m.Attributes().Has(AttributeNormal) {
		t.Error("normal attribute missing")
	}
	if m.Attributes().Has(AttributeTangent) {
		t.Error("tangent attribute should not be present")
	}
	if len(m.VertexData()) != 64 {
		t.Errorf("expected 64 bytes of vertex data, got %d", len(m.VertexData()))
	}
	if m.IndexCount() != 6 {
		t.Errorf("expected index count 6, got %d", m.IndexCount())
	}
	if m.BoundingRadius() != 2 {
		t.Errorf("expected bounding radius 2, got %f", m.BoundingRadius())
	}
}

func TestGPUModelDataMarshal(t *testing.T) {
	var d GPUModelData
	for i := range d.Model {
		d.Model[i] = float32(i)
	}
	if d.Size() != 64 {
		t.Fatalf("expected size 64, got %d", d.Size())
	}
	buf := d.Marshal()
	for i := range 16 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
		if got != float32(i) {
			t.Fatalf("matrix element %d: got %f", i, got)
		}
	}
}
