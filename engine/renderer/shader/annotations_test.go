package shader

import (
	"strings"
	"testing"
)

func TestParseAnnotationIgnoresPlainLines(t *testing.T) {
	lines := []string{
		"struct Foo {",
		"    position: vec3<f32>,",
		"// a regular comment",
		"@group(0) @binding(0) var<uniform> camera: CameraUniform;",
	}
	for _, line := range lines {
		a, err := parseAnnotation(line, 1)
		if err != nil {
			t.Errorf("line %q: unexpected error: %v", line, err)
		}
		if a != nil {
			t.Errorf("line %q: expected nil annotation, got %+v", line, a)
		}
	}
}

func TestParseAnnotationInclude(t *testing.T) {
	a, err := parseAnnotation("//@lux:include camera", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != annotationTypeInclude {
		t.Errorf("expected include type, got %q", a.Type)
	}
	if len(a.Args) != 1 || a.Args[0] != AnnotationArgCamera {
		t.Errorf("unexpected args: %v", a.Args)
	}
	if a.Line != 7 {
		t.Errorf("expected line 7, got %d", a.Line)
	}
	if a.Group != nil || a.Binding != nil {
		t.Error("include annotations must not carry group or binding")
	}
}

func TestParseAnnotationIncludeUnknownStruct(t *testing.T) {
	if _, err := parseAnnotation("//@lux:include effect_params", 1); err == nil {
		t.Fatal("expected error for unknown struct type")
	}
	if _, err := parseAnnotation("//@lux:include frustum", 1); err == nil {
		t.Fatal("expected error for unknown struct type")
	}
}

func TestParseAnnotationGroup(t *testing.T) {
	a, err := parseAnnotation("//@lux:group 0 0 storage_uniform camera camera", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != AnnotationTypeBindingGroup {
		t.Fatalf("expected group type, got %q", a.Type)
	}
	if *a.Group != 0 || *a.Binding != 0 {
		t.Errorf("expected group 0 binding 0, got %d %d", *a.Group, *a.Binding)
	}
	if a.Args[0] != annotationArgStorageTypeUniform || a.Args[1] != "camera" || a.Args[2] != AnnotationArgCamera {
		t.Errorf("unexpected args: %v", a.Args)
	}
}

func TestParseAnnotationGroupArrayType(t *testing.T) {
	a, err := parseAnnotation("//@lux:group 1 0 storage_read models array<model_data>", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Args[2] != "array<model_data>" {
		t.Errorf("unexpected type arg: %q", a.Args[2])
	}
}

func TestParseAnnotationGroupErrors(t *testing.T) {
	cases := []string{
		"//@lux:group 0 0 storage_uniform camera",
		"//@lux:group x 0 storage_uniform camera camera",
		"//@lux:group 0 x storage_uniform camera camera",
		"//@lux:group 0 0 push_constant camera camera",
		"//@lux:group 0 0 storage_uniform camera frustum",
		"//@lux:group 0 0 storage_read bounds array<frustum>",
	}
	for _, line := range cases {
		if _, err := parseAnnotation(line, 1); err == nil {
			t.Errorf("line %q: expected error", line)
		}
	}
}

func TestParseAnnotationProvider(t *testing.T) {
	a, err := parseAnnotation("//@lux:provider 3 0 lights", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != AnnotationTypeProvider {
		t.Fatalf("expected provider type, got %q", a.Type)
	}
	if *a.Group != 3 || *a.Binding != 0 {
		t.Errorf("expected group 3 binding 0, got %d %d", *a.Group, *a.Binding)
	}
	if len(a.Args) != 1 || a.Args[0] != AnnotationArgLights {
		t.Errorf("unexpected args: %v", a.Args)
	}
}

func TestParseAnnotationProviderWithRole(t *testing.T) {
	a, err := parseAnnotation("//@lux:provider 2 1 material diffuse_texture", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Args) != 2 || a.Args[1] != AnnotationArgDiffuseTexture {
		t.Errorf("unexpected args: %v", a.Args)
	}
}

func TestParseAnnotationProviderErrors(t *testing.T) {
	cases := []string{
		"//@lux:provider 2 1",
		"//@lux:provider 2 1 shadows",
		"//@lux:provider 2 1 effect",
		"//@lux:provider 2 1 material shadow_map",
		"//@lux:provider 2 1 material diffuse_texture extra",
	}
	for _, line := range cases {
		if _, err := parseAnnotation(line, 1); err == nil {
			t.Errorf("line %q: expected error", line)
		}
	}
}

func TestParseAnnotationUnknownType(t *testing.T) {
	_, err := parseAnnotation("//@lux:define FOO", 3)
	if err == nil {
		t.Fatal("expected error for unknown annotation type")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected line number in error, got %v", err)
	}
}
