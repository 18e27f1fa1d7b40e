// pre_processor.go implements the Lux WGSL shader pre-processor. It scans shader
// source code for @lux: annotations, replaces them with generated WGSL declarations
// or injected struct source, and collects a declarations list that the Scene uses to
// semantically wire GPU resources to bind groups without manual string lookups.
//
// The pre-processor additionally strips //#if <FLAG> ... //#endif conditional blocks
// based on the define set passed to Process, which is how shader variants share a
// single annotated source file.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their
//     resolved type names. Used by @lux:include (to inject the struct source) and
//     @lux:group (to resolve the WGSL type name in the generated declaration).
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
//
// See ANNOTATIONS_README.md at the repository root for full annotation documentation.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/lux-go/engine/camera"
	"github.com/Carmen-Shannon/lux-go/engine/cluster"
	"github.com/Carmen-Shannon/lux-go/engine/light"
	"github.com/Carmen-Shannon/lux-go/engine/model"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/material"
)

// Conditional block markers. A block opens with "//#if <FLAG>", optionally flips
// with "//#else", and closes with "//#endif". Blocks nest.
const (
	conditionalIfPrefix = "//#if"
	conditionalElse     = "//#else"
	conditionalEnd      = "//#endif"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @lux:include.
	Source string

	// Type is the WGSL type name emitted in @lux:group declarations (e.g. "CameraUniform", "Light").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps struct type argument keys to their embedded WGSL source and type name.
	structRegistry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates annotations of type AnnotationTypeBindingGroup and
	// AnnotationTypeProvider during a Process call. Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @lux: annotations
// and //#if conditional blocks, replacing annotations with generated declarations or
// injected struct sources, stripping conditional blocks whose flag is not defined,
// and collecting a declarations list for downstream resource wiring by the Scene.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and pre-processes it. //#if blocks
	// whose flag is absent from defines are removed, including any annotations they
	// contain. @lux:include annotations are replaced with embedded struct source text.
	// @lux:group annotations are replaced with generated @group/@binding variable
	// declarations. @lux:provider annotations produce no WGSL output but are recorded
	// in the declarations list.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//   - defines: the variant flags enabling //#if blocks
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation or conditional block is malformed
	Process(source string, defines ...string) (string, error)

	// Declarations returns the list of AnnotationTypeBindingGroup and AnnotationTypeProvider
	// annotations collected during the most recent call to Process, in source-order.
	// Returns nil if Process has not been called.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered struct types and
// address space mappings pre-populated. The struct registry maps annotation argument
// keys to their embedded WGSL source and resolved WGSL type names from the engine's
// GPU type packages.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:               {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
			annotationArgVertex:               {Source: model.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgMaterialParams:       {Source: material.GPUMaterialParamsSource, Type: "MaterialParams"},
			AnnotationArgLight:                {Source: light.GPULightSource, Type: "Light"},
			AnnotationArgLightHeader:          {Source: light.GPULightHeaderSource, Type: "LightHeader"},
			AnnotationArgClusterBounds:        {Source: cluster.GPUClusterBoundsSource, Type: "ClusterBounds"},
			AnnotationArgClusterCullUniforms:  {Source: cluster.GPUClusterCullUniformsSource, Type: "ClusterCullUniforms"},
			AnnotationArgClusterShadeUniforms: {Source: cluster.GPUClusterShadeUniformsSource, Type: "ClusterShadeUniforms"},
			AnnotationArgModelData:            {Source: model.GPUModelDataSource, Type: "ModelData"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string, defines ...string) (string, error) {
	p.declarations = p.declarations[:0]

	defined := make(map[string]bool, len(defines))
	for _, d := range defines {
		defined[d] = true
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	// condStack tracks nested //#if blocks. Each entry records whether the
	// current branch emits lines. A line is kept only when every enclosing
	// branch is active.
	type condFrame struct {
		active  bool
		took    bool
		hasElse bool
	}
	var condStack []condFrame

	emitting := func() bool {
		for _, f := range condStack {
			if !f.active {
				return false
			}
		}
		return true
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, conditionalIfPrefix+" "):
			flag := strings.TrimSpace(strings.TrimPrefix(trimmed, conditionalIfPrefix))
			if flag == "" {
				return "", fmt.Errorf("line %d: //#if requires a flag name", i+1)
			}
			on := defined[flag]
			condStack = append(condStack, condFrame{active: on, took: on})
			continue
		case trimmed == conditionalElse:
			if len(condStack) == 0 {
				return "", fmt.Errorf("line %d: //#else without matching //#if", i+1)
			}
			top := &condStack[len(condStack)-1]
			if top.hasElse {
				return "", fmt.Errorf("line %d: duplicate //#else", i+1)
			}
			top.hasElse = true
			top.active = !top.took
			continue
		case trimmed == conditionalEnd:
			if len(condStack) == 0 {
				return "", fmt.Errorf("line %d: //#endif without matching //#if", i+1)
			}
			condStack = condStack[:len(condStack)-1]
			continue
		}

		if !emitting() {
			continue
		}

		// attempt to parse the line as an annotation, if it's an annotation replace
		// it with the corresponding source from the registry, otherwise keep the line as is.
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		// handle annotation based on its type and arguments
		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @lux:include argument %q", i+1, a.Args[0])
			}

			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				entry := p.structRegistry[AnnotationArg(inner)]
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			} else {
				entry := p.structRegistry[a.Args[2]]
				wgslType = entry.Type
			}

			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}

	}

	if len(condStack) != 0 {
		return "", fmt.Errorf("unterminated //#if block (%d open at end of source)", len(condStack))
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
