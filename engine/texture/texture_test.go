package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/lux-go/common"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestStagingDecodesEmbeddedTexture(t *testing.T) {
	c := NewCache()
	tex := &common.ImportedTexture{
		Name: "diffuse",
		Data: encodePNG(t, 2, 3, color.RGBA{R: 255, A: 255}),
	}

	staged, err := c.Staging(tex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if staged.Width != 2 || staged.Height != 3 {
		t.Errorf("expected 2x3, got %dx%d", staged.Width, staged.Height)
	}
	if len(staged.Pixels) != 2*3*4 {
		t.Errorf("expected %d bytes of RGBA data, got %d", 2*3*4, len(staged.Pixels))
	}
	if staged.Pixels[0] != 255 || staged.Pixels[3] != 255 {
		t.Errorf("expected opaque red first pixel, got % x", staged.Pixels[:4])
	}
}

func TestStagingCachesByContent(t *testing.T) {
	c := NewCache()
	data := encodePNG(t, 1, 1, color.RGBA{G: 255, A: 255})

	a := &common.ImportedTexture{Name: "first", Data: data}
	b := &common.ImportedTexture{Name: "second", Data: data}

	if _, err := c.Staging(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Staging(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("identical embedded data must share one cache entry, got %d", c.Len())
	}
}

func TestStagingDistinctContentDistinctEntries(t *testing.T) {
	c := NewCache()

	a := &common.ImportedTexture{Data: encodePNG(t, 1, 1, color.RGBA{R: 255, A: 255})}
	b := &common.ImportedTexture{Data: encodePNG(t, 1, 1, color.RGBA{B: 255, A: 255})}

	if _, err := c.Staging(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Staging(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Len() != 2 {
		t.Errorf("expected 2 cache entries, got %d", c.Len())
	}
}

func TestStagingErrors(t *testing.T) {
	c := NewCache()

	if _, err := c.Staging(nil); err == nil {
		t.Error("expected an error for a nil texture")
	}
	if _, err := c.Staging(&common.ImportedTexture{Name: "empty"}); err == nil {
		t.Error("expected an error for a texture with no data or path")
	}
	if _, err := c.Staging(&common.ImportedTexture{Name: "garbage", Data: []byte{0x00, 0x01}}); err == nil {
		t.Error("expected an error for undecodable data")
	}
	if c.Len() != 0 {
		t.Errorf("failed decodes must not be cached, got %d entries", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := NewCache(WithCapacity(8))
	tex := &common.ImportedTexture{Data: encodePNG(t, 1, 1, color.RGBA{A: 255})}

	if _, err := c.Staging(tex); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected an empty cache after Clear, got %d entries", c.Len())
	}
}

func TestWhite(t *testing.T) {
	w := White()
	if w.Width != 1 || w.Height != 1 {
		t.Errorf("expected a 1x1 texture, got %dx%d", w.Width, w.Height)
	}
	if len(w.Pixels) != 4 {
		t.Fatalf("expected 4 bytes of RGBA data, got %d", len(w.Pixels))
	}
	for i, b := range w.Pixels {
		if b != 0xFF {
			t.Errorf("byte %d: expected 0xFF, got 0x%02X", i, b)
		}
	}
}
