package model

import (
	"sort"

	"github.com/Carmen-Shannon/lux-go/common"
)

// --- Vertex Attribute Types ---

// Attribute identifies a vertex attribute stream a mesh provides. Attribute
// names follow the glTF accessor naming convention so imported meshes map
// directly onto them.
type Attribute string

const (
	// AttributePosition is the vertex position stream. Every mesh has it.
	AttributePosition Attribute = "POSITION"

	// AttributeNormal is the vertex normal stream.
	AttributeNormal Attribute = "NORMAL"

	// AttributeTangent is the tangent stream (xyz + handedness w), required
	// for normal mapping.
	AttributeTangent Attribute = "TANGENT"

	// AttributeTexCoord0 is the primary UV stream, required for any texture
	// sampling.
	AttributeTexCoord0 Attribute = "TEXCOORD_0"

	// AttributeColor0 is the per-vertex color stream.
	AttributeColor0 Attribute = "COLOR_0"
)

// AttributeSet is the set of vertex attributes a mesh actually carries.
// The vertex buffer layout is fixed at GPUVertex; attributes absent from the
// set hold zero-filled defaults in the buffer and steer shader variant
// selection instead of the buffer layout.
type AttributeSet map[Attribute]struct{}

// NewAttributeSet builds an AttributeSet from the given attributes.
// AttributePosition is always included.
//
// Parameters:
//   - attrs: the attributes the mesh provides
//
// Returns:
//   - AttributeSet: the constructed set
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	s := make(AttributeSet, len(attrs)+1)
	s[AttributePosition] = struct{}{}
	for _, a := range attrs {
		s[a] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the given attribute.
//
// Parameters:
//   - a: the attribute to test
//
// Returns:
//   - bool: true if the attribute is present
func (s AttributeSet) Has(a Attribute) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the attributes in lexicographic order, giving the set a
// deterministic form for cache keys and logging.
//
// Returns:
//   - []Attribute: the sorted attribute list
func (s AttributeSet) Sorted() []Attribute {
	out := make([]Attribute, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// --- Import Types ---

// ImportedModel represents a 3D model loaded from an external format.
// This is the universal format that importers (glTF, procedural generators)
// produce.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes contains all mesh data (may have multiple meshes/submeshes).
	Meshes []ImportedMesh

	// Materials are referenced materials (indices into a material library).
	Materials []common.ImportedMaterial
}

// ImportedMesh represents a single mesh within an imported model.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices in the fixed GPUVertex layout.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// MaterialIndex references ImportedModel.Materials.
	MaterialIndex int

	// Attributes records which vertex streams the source mesh actually
	// provided. Streams not listed are zero-filled in Vertices.
	Attributes AttributeSet

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}
