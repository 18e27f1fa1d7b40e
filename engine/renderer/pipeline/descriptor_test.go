package pipeline

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestDefaultRenderDescriptorCanonical(t *testing.T) {
	d := DefaultRenderDescriptor("pbr_vert", "pbr_frag:default")
	c := d.Canonical()

	if c != "type=render;vs=pbr_vert;fs=pbr_frag:default;" {
		t.Errorf("defaults must be omitted from the canonical form, got %q", c)
	}
}

func TestDescriptorExplicitDefaultsHashEqual(t *testing.T) {
	implicit := DefaultRenderDescriptor("pbr_vert", "pbr_frag:default")

	explicit := implicit
	explicit.Topology = wgpu.PrimitiveTopologyTriangleList
	explicit.CullMode = wgpu.CullModeNone
	explicit.FrontFace = wgpu.FrontFaceCCW
	explicit.WriteMask = wgpu.ColorWriteMaskAll
	explicit.SampleCount = 1

	if implicit.Hash() != explicit.Hash() {
		t.Error("explicitly spelled defaults must hash identically to implicit defaults")
	}
}

func TestDescriptorNonDefaultFieldsChangeHash(t *testing.T) {
	base := DefaultRenderDescriptor("pbr_vert", "pbr_frag:default")

	mutations := map[string]func(*Descriptor){
		"fragment key": func(d *Descriptor) { d.FragmentShaderKey = "pbr_frag:USE_DIFFUSE_TEXTURE" },
		"cull mode":    func(d *Descriptor) { d.CullMode = wgpu.CullModeBack },
		"topology":     func(d *Descriptor) { d.Topology = wgpu.PrimitiveTopologyLineList },
		"depth write":  func(d *Descriptor) { d.DepthWriteEnabled = false },
		"blending":     func(d *Descriptor) { d.BlendEnabled = true },
		"sample count": func(d *Descriptor) { d.SampleCount = 4 },
	}
	for name, mutate := range mutations {
		d := base
		mutate(&d)
		if d.Hash() == base.Hash() {
			t.Errorf("%s: expected a different hash after mutation", name)
		}
	}
}

func TestDescriptorDepthBiasIgnoredWithoutDepthTest(t *testing.T) {
	a := DefaultRenderDescriptor("pbr_vert", "pbr_frag:default")
	a.DepthTestEnabled = false

	b := a
	b.DepthBias = 4
	b.DepthBiasSlopeScale = 1.5

	if a.Hash() != b.Hash() {
		t.Error("depth bias must not affect the hash when depth testing is disabled")
	}
}

func TestDescriptorBlendStateIgnoredWhenDisabled(t *testing.T) {
	a := DefaultRenderDescriptor("pbr_vert", "pbr_frag:default")
	b := a
	b.BlendState = standardAlphaBlend()

	if a.Hash() != b.Hash() {
		t.Error("blend state must not affect the hash when blending is disabled")
	}
}

func TestDescriptorNilBlendStateNormalizesToAlphaPreset(t *testing.T) {
	a := DefaultRenderDescriptor("pbr_vert", "pbr_frag:default")
	a.BlendEnabled = true

	b := a
	b.BlendState = standardAlphaBlend()

	if a.Hash() != b.Hash() {
		t.Error("nil blend state with blending enabled must normalize to the alpha preset")
	}

	c := a
	c.BlendState = &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}
	if a.Hash() == c.Hash() {
		t.Error("an additive blend state must hash differently from the alpha preset")
	}
}

func TestComputeDescriptorIgnoresRenderState(t *testing.T) {
	a := DefaultComputeDescriptor("cluster_cull")

	b := a
	b.VertexShaderKey = "pbr_vert"
	b.CullMode = wgpu.CullModeBack
	b.DepthTestEnabled = true
	b.SampleCount = 4

	if a.Hash() != b.Hash() {
		t.Error("render state must not affect a compute descriptor's hash")
	}
	if !strings.Contains(a.Canonical(), "cs=cluster_cull") {
		t.Errorf("expected compute shader key in canonical form, got %q", a.Canonical())
	}
}

func TestDescriptorKeyFormat(t *testing.T) {
	d := DefaultComputeDescriptor("cluster_cull")
	key := d.Key()
	if !strings.HasPrefix(key, "pl:") || len(key) != 3+16 {
		t.Errorf("unexpected key format %q", key)
	}
	if d.Key() != d.Key() {
		t.Error("key must be deterministic")
	}
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("test", PipelineTypeRender)

	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() {
		t.Error("expected depth test and write enabled by default")
	}
	if p.BlendEnabled() {
		t.Error("expected blending disabled by default")
	}
	if p.CullMode() != wgpu.CullModeNone {
		t.Errorf("expected no culling by default, got %v", p.CullMode())
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleList {
		t.Errorf("expected triangle list topology, got %v", p.Topology())
	}
}

func TestNewPipelineOptions(t *testing.T) {
	p := NewPipeline("test", PipelineTypeRender,
		WithCullMode(wgpu.CullModeBack),
		WithBlendEnabled(true),
		WithDepthBias(2, 0.5),
	)

	if p.CullMode() != wgpu.CullModeBack {
		t.Errorf("expected back culling, got %v", p.CullMode())
	}
	if !p.BlendEnabled() {
		t.Error("expected blending enabled")
	}
	if p.DepthBias() != 2 || p.DepthBiasSlopeScale() != 0.5 {
		t.Errorf("unexpected depth bias %d / %f", p.DepthBias(), p.DepthBiasSlopeScale())
	}
}
