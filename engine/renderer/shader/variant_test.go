package shader

import (
	"testing"

	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/model"
	"github.com/Carmen-Shannon/lux-go/engine/renderer/material"
)

func TestNewVariantCanonicalizes(t *testing.T) {
	a := NewVariant(FlagNormalMap, FlagDiffuseTexture, FlagNormalMap)
	b := NewVariant(FlagDiffuseTexture, FlagNormalMap)

	if a.Key() != b.Key() {
		t.Errorf("equal feature sets produced different keys: %q vs %q", a.Key(), b.Key())
	}
	if len(a.Defines()) != 2 {
		t.Errorf("expected duplicates removed, got %v", a.Defines())
	}
}

func TestVariantKeyDefault(t *testing.T) {
	if key := NewVariant().Key(); key != "default" {
		t.Errorf("expected \"default\" for the flagless variant, got %q", key)
	}
}

func TestVariantKeySorted(t *testing.T) {
	v := NewVariant(FlagVertexColor, FlagDiffuseTexture)
	if v.Key() != "USE_DIFFUSE_TEXTURE|USE_VERTEX_COLOR" {
		t.Errorf("unexpected key: %q", v.Key())
	}
}

func TestResolveVariantDefault(t *testing.T) {
	mat := material.NewMaterial(material.WithRoughness(0.5))
	attrs := model.NewAttributeSet(model.AttributeNormal)

	v := ResolveVariant(mat, attrs)
	if v.Key() != "default" {
		t.Errorf("expected default variant, got %q", v.Key())
	}
}

func TestResolveVariantTextureRequiresUV(t *testing.T) {
	tex := &common.ImportedTexture{Width: 4, Height: 4}
	mat := material.NewMaterial(
		material.WithRoughness(0.5),
		material.WithDiffuseTexture(tex),
	)

	noUV := ResolveVariant(mat, model.NewAttributeSet(model.AttributeNormal))
	if noUV.Has(FlagDiffuseTexture) {
		t.Error("diffuse texture enabled without a UV stream")
	}

	withUV := ResolveVariant(mat, model.NewAttributeSet(model.AttributeNormal, model.AttributeTexCoord0))
	if !withUV.Has(FlagDiffuseTexture) {
		t.Error("diffuse texture not enabled despite texture and UV stream")
	}
}

func TestResolveVariantNormalMapRequiresTangents(t *testing.T) {
	tex := &common.ImportedTexture{Width: 4, Height: 4}
	mat := material.NewMaterial(
		material.WithRoughness(0.5),
		material.WithNormalTexture(tex),
	)

	noTangent := ResolveVariant(mat, model.NewAttributeSet(model.AttributeNormal, model.AttributeTexCoord0))
	if noTangent.Has(FlagNormalMap) {
		t.Error("normal map enabled without tangents")
	}

	full := ResolveVariant(mat, model.NewAttributeSet(
		model.AttributeNormal, model.AttributeTangent, model.AttributeTexCoord0,
	))
	if !full.Has(FlagNormalMap) {
		t.Error("normal map not enabled despite tangents, normals and UVs")
	}
}

func TestResolveVariantFullyRough(t *testing.T) {
	mat := material.NewMaterial(material.WithRoughness(1))
	v := ResolveVariant(mat, model.NewAttributeSet())
	if !v.Has(FlagFullyRough) {
		t.Error("expected fully-rough path for roughness 1 and no texture")
	}

	// Out-of-range roughness clamps to 1 in the material, so it resolves the
	// same variant as an exact 1.0.
	over := material.NewMaterial(material.WithRoughness(1.5))
	if over.Roughness() != 1 {
		t.Errorf("expected roughness clamped to 1, got %g", over.Roughness())
	}
	if !ResolveVariant(over, model.NewAttributeSet()).Has(FlagFullyRough) {
		t.Error("expected fully-rough path for clamped roughness")
	}

	tex := &common.ImportedTexture{Width: 4, Height: 4}
	textured := material.NewMaterial(
		material.WithRoughness(1),
		material.WithMetallicRoughnessTexture(tex),
	)
	v = ResolveVariant(textured, model.NewAttributeSet(model.AttributeTexCoord0))
	if v.Has(FlagFullyRough) {
		t.Error("metallic-roughness texture must disable the fully-rough path")
	}
	if !v.Has(FlagMetallicRoughnessTexture) {
		t.Error("expected metallic-roughness texture flag")
	}
}

func TestResolveVariantVertexColor(t *testing.T) {
	mat := material.NewMaterial(material.WithRoughness(0.5))
	v := ResolveVariant(mat, model.NewAttributeSet(model.AttributeColor0))
	if !v.Has(FlagVertexColor) {
		t.Error("expected vertex color flag for a COLOR_0 stream")
	}
}
