package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestPBRVertexShaderLayout(t *testing.T) {
	s := NewPBRVertexShader()

	if s.EntryPoint() != "vs_main" {
		t.Errorf("expected entry point vs_main, got %q", s.EntryPoint())
	}
	if s.ShaderType() != ShaderTypeVertex {
		t.Errorf("expected vertex shader type, got %v", s.ShaderType())
	}

	layouts := s.VertexLayout(0)
	if len(layouts) != 1 {
		t.Fatalf("expected one vertex buffer layout, got %d", len(layouts))
	}
	layout := layouts[0]
	if layout.ArrayStride != 64 {
		t.Errorf("expected 64-byte vertex stride, got %d", layout.ArrayStride)
	}
	if len(layout.Attributes) != 5 {
		t.Fatalf("expected 5 vertex attributes, got %d", len(layout.Attributes))
	}

	wantFormats := []wgpu.VertexFormat{
		wgpu.VertexFormatFloat32x3, // position
		wgpu.VertexFormatFloat32x3, // normal
		wgpu.VertexFormatFloat32x2, // tex_coord
		wgpu.VertexFormatFloat32x4, // color
		wgpu.VertexFormatFloat32x4, // tangent
	}
	for i, want := range wantFormats {
		if layout.Attributes[i].Format != want {
			t.Errorf("attribute %d: expected format %v, got %v", i, want, layout.Attributes[i].Format)
		}
	}
}

func TestPBRVertexShaderBindGroups(t *testing.T) {
	s := NewPBRVertexShader()

	cameraGroup := s.BindGroupLayoutDescriptor(0)
	if len(cameraGroup.Entries) != 1 {
		t.Fatalf("expected one entry in group 0, got %d", len(cameraGroup.Entries))
	}
	if cameraGroup.Entries[0].Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("expected uniform camera binding, got %v", cameraGroup.Entries[0].Buffer.Type)
	}

	modelGroup := s.BindGroupLayoutDescriptor(1)
	if len(modelGroup.Entries) != 1 {
		t.Fatalf("expected one entry in group 1, got %d", len(modelGroup.Entries))
	}
	if modelGroup.Entries[0].Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage {
		t.Errorf("expected read-only storage models binding, got %v", modelGroup.Entries[0].Buffer.Type)
	}
	if s.BindGroupVarName(1, 0) != "models" {
		t.Errorf("expected models var name, got %q", s.BindGroupVarName(1, 0))
	}
}

func TestPBRFragmentShaderDefaultVariant(t *testing.T) {
	s := NewPBRFragmentShader(NewVariant())

	if s.Key() != "pbr_frag:default" {
		t.Errorf("unexpected key %q", s.Key())
	}
	if s.EntryPoint() != "fs_main" {
		t.Errorf("expected entry point fs_main, got %q", s.EntryPoint())
	}
	if strings.Contains(s.Source(), "textureSample") {
		t.Error("default variant must not sample any texture")
	}

	materialGroup := s.BindGroupLayoutDescriptor(2)
	if len(materialGroup.Entries) != 1 {
		t.Fatalf("expected material params only in group 2, got %d entries", len(materialGroup.Entries))
	}

	lightGroup := s.BindGroupLayoutDescriptor(3)
	if len(lightGroup.Entries) != 4 {
		t.Fatalf("expected 4 entries in group 3, got %d", len(lightGroup.Entries))
	}
	if s.BindGroupVarName(3, 0) != "scene_lights" {
		t.Errorf("expected scene_lights at group 3 binding 0, got %q", s.BindGroupVarName(3, 0))
	}
	if s.BindGroupVarName(3, 2) != "cluster_light_indices" {
		t.Errorf("expected cluster_light_indices at group 3 binding 2, got %q", s.BindGroupVarName(3, 2))
	}
}

func TestPBRFragmentShaderTexturedVariant(t *testing.T) {
	v := NewVariant(FlagDiffuseTexture, FlagNormalMap)
	s := NewPBRFragmentShader(v)

	if s.Key() != "pbr_frag:USE_DIFFUSE_TEXTURE|USE_NORMAL_MAP" {
		t.Errorf("unexpected key %q", s.Key())
	}

	materialGroup := s.BindGroupLayoutDescriptor(2)
	if len(materialGroup.Entries) != 5 {
		t.Fatalf("expected params plus two texture/sampler pairs in group 2, got %d entries", len(materialGroup.Entries))
	}

	foundTexture := false
	foundSampler := false
	for _, e := range materialGroup.Entries {
		if e.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
			foundTexture = true
		}
		if e.Sampler.Type != wgpu.SamplerBindingTypeUndefined {
			foundSampler = true
		}
	}
	if !foundTexture || !foundSampler {
		t.Error("expected texture and sampler entries in the textured variant")
	}
}

func TestPBRFragmentShaderProviderDeclarations(t *testing.T) {
	s := NewPBRFragmentShader(NewVariant(FlagDiffuseTexture))

	var roles []AnnotationArg
	for _, d := range s.Declarations() {
		if d.Type == AnnotationTypeProvider && len(d.Args) == 2 {
			roles = append(roles, d.Args[1])
		}
	}

	wantRoles := map[AnnotationArg]bool{
		AnnotationArgDiffuseTexture:      false,
		AnnotationArgDiffuseSampler:      false,
		AnnotationArgClusterLightIndices: false,
		AnnotationArgClusterLightCounts:  false,
	}
	for _, r := range roles {
		if _, ok := wantRoles[r]; ok {
			wantRoles[r] = true
		}
	}
	for role, found := range wantRoles {
		if !found {
			t.Errorf("expected provider declaration with role %q", role)
		}
	}

	for _, d := range s.Declarations() {
		if d.Type == AnnotationTypeProvider && len(d.Args) == 2 && d.Args[1] == AnnotationArgNormalTexture {
			t.Error("normal map provider declared without its flag")
		}
	}
}

func TestClusterCullShader(t *testing.T) {
	s := NewClusterCullShader()

	if s.EntryPoint() != "cull_main" {
		t.Errorf("expected entry point cull_main, got %q", s.EntryPoint())
	}
	if s.WorkgroupSize() != [3]uint32{64, 1, 1} {
		t.Errorf("expected workgroup size [64 1 1], got %v", s.WorkgroupSize())
	}

	group := s.BindGroupLayoutDescriptor(0)
	if len(group.Entries) != 5 {
		t.Fatalf("expected 5 entries in group 0, got %d", len(group.Entries))
	}

	readWrite := 0
	for _, e := range group.Entries {
		if e.Buffer.Type == wgpu.BufferBindingTypeStorage {
			readWrite++
		}
	}
	if readWrite != 2 {
		t.Errorf("expected the index and count buffers as read-write storage, got %d", readWrite)
	}

	if s.BindGroupVarName(0, 2) != "cluster_bounds" {
		t.Errorf("expected cluster_bounds at binding 2, got %q", s.BindGroupVarName(0, 2))
	}
}

func TestShaderVariantsShareDefaultKeyAcrossEqualFeatureSets(t *testing.T) {
	a := NewPBRFragmentShader(NewVariant(FlagVertexColor, FlagDiffuseTexture))
	b := NewPBRFragmentShader(NewVariant(FlagDiffuseTexture, FlagVertexColor))
	if a.Key() != b.Key() {
		t.Errorf("equal feature sets produced different shader keys: %q vs %q", a.Key(), b.Key())
	}
}

// reachableVariants enumerates every flag combination ResolveVariant can
// produce: any subset of the texture and vertex-color flags, plus FULLY_ROUGH
// only when no metallic-roughness texture applies.
func reachableVariants() []Variant {
	optional := []string{
		FlagDiffuseTexture,
		FlagNormalMap,
		FlagMetallicRoughnessTexture,
		FlagOcclusionTexture,
		FlagEmissiveTexture,
		FlagVertexColor,
	}

	var variants []Variant
	for mask := 0; mask < 1<<len(optional); mask++ {
		var flags []string
		hasMR := false
		for i, flag := range optional {
			if mask&(1<<i) == 0 {
				continue
			}
			flags = append(flags, flag)
			if flag == FlagMetallicRoughnessTexture {
				hasMR = true
			}
		}
		variants = append(variants, NewVariant(flags...))
		if !hasMR {
			variants = append(variants, NewVariant(append(flags, FlagFullyRough)...))
		}
	}
	return variants
}

func TestShaderSourcesValidate(t *testing.T) {
	variants := reachableVariants()
	if len(variants) != 96 {
		t.Fatalf("expected 96 reachable variants, got %d", len(variants))
	}
	for _, v := range variants {
		s := NewPBRFragmentShader(v)
		if err := ValidateSource(s.Source()); err != nil {
			t.Errorf("variant %q: %v", v.Key(), err)
		}
	}

	if err := ValidateSource(NewPBRVertexShader().Source()); err != nil {
		t.Errorf("vertex shader: %v", err)
	}
	if err := ValidateSource(NewClusterCullShader().Source()); err != nil {
		t.Errorf("cull shader: %v", err)
	}
}
