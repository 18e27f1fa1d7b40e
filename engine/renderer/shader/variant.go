package shader

import (
	"sort"
	"strings"

	"github.com/Carmen-Shannon/lux-go/engine/model"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/material"
)

// Variant flags enable //#if blocks in annotated shader source. Each flag names
// a feature the compiled shader supports; the canonical sorted combination of
// flags identifies a shader variant for caching.
const (
	// FlagDiffuseTexture samples the base color from the diffuse texture.
	FlagDiffuseTexture = "USE_DIFFUSE_TEXTURE"

	// FlagNormalMap perturbs the surface normal with the tangent-space normal map.
	FlagNormalMap = "USE_NORMAL_MAP"

	// FlagMetallicRoughnessTexture samples metallic and roughness from the
	// combined metallic-roughness texture.
	FlagMetallicRoughnessTexture = "USE_METALLIC_ROUGHNESS_TEXTURE"

	// FlagOcclusionTexture modulates ambient light with the baked occlusion texture.
	FlagOcclusionTexture = "USE_OCCLUSION_TEXTURE"

	// FlagEmissiveTexture samples the emissive term from the emissive texture.
	FlagEmissiveTexture = "USE_EMISSIVE_TEXTURE"

	// FlagVertexColor multiplies the base color by the per-vertex color stream.
	FlagVertexColor = "USE_VERTEX_COLOR"

	// FlagFullyRough skips the specular lobe entirely for materials with
	// roughness 1 and no roughness texture.
	FlagFullyRough = "FULLY_ROUGH"
)

// Variant is a resolved set of shader variant flags. A Variant is canonical:
// flags are deduplicated and sorted, so two Variants with the same feature set
// always produce the same Key.
type Variant struct {
	flags []string
}

// NewVariant builds a canonical Variant from the given flags. Duplicates are
// removed and the flags are sorted.
//
// Parameters:
//   - flags: the variant flags to include
//
// Returns:
//   - Variant: the canonical variant
func NewVariant(flags ...string) Variant {
	seen := make(map[string]struct{}, len(flags))
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return Variant{flags: out}
}

// ResolveVariant determines the shader variant for a material rendered with a
// mesh providing the given vertex attributes. A feature is enabled only when
// both the material requests it and the mesh supplies the attribute streams it
// needs: every texture flag requires a UV stream, and normal mapping
// additionally requires tangents. Materials that end up with roughness 1 and
// no roughness texture take the fully-rough path.
//
// Parameters:
//   - mat: the material being rendered
//   - attrs: the vertex attributes the mesh provides
//
// Returns:
//   - Variant: the canonical variant for this material/mesh pairing
func ResolveVariant(mat material.Material, attrs model.AttributeSet) Variant {
	var flags []string

	hasUV := attrs.Has(model.AttributeTexCoord0)

	if hasUV && mat.DiffuseTexture() != nil {
		flags = append(flags, FlagDiffuseTexture)
	}
	if hasUV && mat.NormalTexture() != nil && attrs.Has(model.AttributeTangent) && attrs.Has(model.AttributeNormal) {
		flags = append(flags, FlagNormalMap)
	}

	hasMRTexture := hasUV && mat.MetallicRoughnessTexture() != nil
	if hasMRTexture {
		flags = append(flags, FlagMetallicRoughnessTexture)
	}
	if hasUV && mat.OcclusionTexture() != nil {
		flags = append(flags, FlagOcclusionTexture)
	}
	if hasUV && mat.EmissiveTexture() != nil {
		flags = append(flags, FlagEmissiveTexture)
	}
	if attrs.Has(model.AttributeColor0) {
		flags = append(flags, FlagVertexColor)
	}
	if !hasMRTexture && mat.Roughness() == 1 {
		flags = append(flags, FlagFullyRough)
	}

	return NewVariant(flags...)
}

// Defines returns the variant's flags in canonical order, ready to pass to
// PreProcessor.Process.
//
// Returns:
//   - []string: the sorted flag list
func (v Variant) Defines() []string {
	return v.flags
}

// Has reports whether the variant enables the given flag.
//
// Parameters:
//   - flag: the flag to test
//
// Returns:
//   - bool: true if the flag is enabled
func (v Variant) Has(flag string) bool {
	for _, f := range v.flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Key returns the canonical identifier for this variant: the sorted flags
// joined with "|", or "default" for the flagless variant. Equal feature sets
// always map to the same key, which keys the shader and pipeline caches.
//
// Returns:
//   - string: the canonical variant key
func (v Variant) Key() string {
	if len(v.flags) == 0 {
		return "default"
	}
	return strings.Join(v.flags, "|")
}
