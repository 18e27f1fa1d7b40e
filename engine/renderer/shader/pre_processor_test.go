package shader

import (
	"strings"
	"testing"
)

func TestProcessIncludeInjectsStructSource(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@lux:include camera\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "struct CameraUniform") {
		t.Errorf("expected injected CameraUniform struct, got:\n%s", out)
	}
}

func TestProcessGroupGeneratesDeclaration(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@lux:group 0 0 storage_uniform camera camera")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "@group(0) @binding(0) var<uniform> camera: CameraUniform;"
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got:\n%s", want, out)
	}

	decls := pp.Declarations()
	if len(decls) != 1 || decls[0].Type != AnnotationTypeBindingGroup {
		t.Fatalf("expected one binding group declaration, got %+v", decls)
	}
}

func TestProcessGroupArrayType(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@lux:group 1 0 storage_read models array<model_data>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "@group(1) @binding(0) var<storage, read> models: array<ModelData>;"
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got:\n%s", want, out)
	}
}

func TestProcessProviderRecordsDeclarationOnly(t *testing.T) {
	pp := NewPreProcessor()
	source := "//@lux:provider 3 0 lights\n@group(3) @binding(0) var<storage, read> scene_lights: SceneLights;"
	out, err := pp.Process(source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "provider") {
		t.Errorf("provider annotation leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "var<storage, read> scene_lights") {
		t.Errorf("hand-written declaration missing from output:\n%s", out)
	}

	decls := pp.Declarations()
	if len(decls) != 1 || decls[0].Type != AnnotationTypeProvider {
		t.Fatalf("expected one provider declaration, got %+v", decls)
	}
	if decls[0].Args[0] != AnnotationArgLights {
		t.Errorf("expected lights identity, got %v", decls[0].Args)
	}
}

func TestProcessDeclarationsResetBetweenCalls(t *testing.T) {
	pp := NewPreProcessor()
	if _, err := pp.Process("//@lux:group 0 0 storage_uniform camera camera"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := pp.Process("fn main() {}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pp.Declarations()) != 0 {
		t.Errorf("expected declarations reset, got %+v", pp.Declarations())
	}
}

func TestProcessConditionalDisabledBlockDropped(t *testing.T) {
	pp := NewPreProcessor()
	source := strings.Join([]string{
		"let a = 1.0;",
		"//#if USE_DIFFUSE_TEXTURE",
		"let b = 2.0;",
		"//#endif",
		"let c = 3.0;",
	}, "\n")

	out, err := pp.Process(source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "let b") {
		t.Errorf("disabled block leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "let a") || !strings.Contains(out, "let c") {
		t.Errorf("unconditional lines missing:\n%s", out)
	}
}

func TestProcessConditionalEnabledBlockKept(t *testing.T) {
	pp := NewPreProcessor()
	source := "//#if USE_DIFFUSE_TEXTURE\nlet b = 2.0;\n//#endif"
	out, err := pp.Process(source, FlagDiffuseTexture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "let b") {
		t.Errorf("enabled block missing from output:\n%s", out)
	}
}

func TestProcessConditionalElse(t *testing.T) {
	pp := NewPreProcessor()
	source := "//#if FULLY_ROUGH\nlet rough = 1.0;\n//#else\nlet shiny = 1.0;\n//#endif"

	out, err := pp.Process(source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "rough") || !strings.Contains(out, "shiny") {
		t.Errorf("expected else branch only, got:\n%s", out)
	}

	out, err = pp.Process(source, FlagFullyRough)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "rough") || strings.Contains(out, "shiny") {
		t.Errorf("expected if branch only, got:\n%s", out)
	}
}

func TestProcessConditionalNested(t *testing.T) {
	pp := NewPreProcessor()
	source := strings.Join([]string{
		"//#if USE_DIFFUSE_TEXTURE",
		"let outer = 1.0;",
		"//#if USE_NORMAL_MAP",
		"let inner = 2.0;",
		"//#endif",
		"//#endif",
	}, "\n")

	out, err := pp.Process(source, FlagDiffuseTexture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "outer") || strings.Contains(out, "inner") {
		t.Errorf("expected outer only, got:\n%s", out)
	}

	out, err = pp.Process(source, FlagDiffuseTexture, FlagNormalMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "inner") {
		t.Errorf("expected inner with both flags, got:\n%s", out)
	}

	out, err = pp.Process(source, FlagNormalMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "inner") {
		t.Errorf("inner must not survive a disabled outer block, got:\n%s", out)
	}
}

func TestProcessConditionalDropsDisabledAnnotations(t *testing.T) {
	pp := NewPreProcessor()
	source := strings.Join([]string{
		"//@lux:group 2 0 storage_uniform material material_params",
		"//#if USE_DIFFUSE_TEXTURE",
		"//@lux:provider 2 1 material diffuse_texture",
		"@group(2) @binding(1) var diffuse_texture: texture_2d<f32>;",
		"//#endif",
	}, "\n")

	if _, err := pp.Process(source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pp.Declarations()) != 1 {
		t.Errorf("expected only the material_params declaration, got %+v", pp.Declarations())
	}

	if _, err := pp.Process(source, FlagDiffuseTexture); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pp.Declarations()) != 2 {
		t.Errorf("expected both declarations with flag set, got %+v", pp.Declarations())
	}
}

func TestProcessConditionalErrors(t *testing.T) {
	cases := map[string]string{
		"else without if":   "//#else",
		"duplicate else":    "//#if FULLY_ROUGH\n//#else\n//#else\n//#endif",
		"endif without if":  "//#endif",
		"unterminated if":   "//#if FULLY_ROUGH\nlet a = 1.0;",
		"if without a flag": "//#if \nlet a = 1.0;\n//#endif",
	}
	pp := NewPreProcessor()
	for name, source := range cases {
		if _, err := pp.Process(source); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestProcessUnknownIncludeErrors(t *testing.T) {
	pp := NewPreProcessor()
	if _, err := pp.Process("//@lux:include frustum"); err == nil {
		t.Fatal("expected error for unregistered include")
	}
}
