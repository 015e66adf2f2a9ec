package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/livemoji/pkg/model"
)

// createTestImage creates a gradient image with a few hard edges
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{220, 180, 140, 255})
			} else {
				r := uint8((x * 255) / width)
				g := uint8((y * 255) / height)
				img.Set(x, y, color.RGBA{r, g, 96, 255})
			}
		}
	}
	return img
}

func TestNew(t *testing.T) {
	engine := New()
	if engine == nil {
		t.Fatal("New() returned nil")
	}
	if engine.config.SpatialSigmaBase != 5.0 {
		t.Errorf("expected spatial sigma base 5.0, got %f", engine.config.SpatialSigmaBase)
	}
	if engine.config.RangeSigma != 0.1 {
		t.Errorf("expected range sigma 0.1, got %f", engine.config.RangeSigma)
	}
}

func TestApplyPreservesBounds(t *testing.T) {
	engine := New()
	img := createTestImage(64, 48)

	out := engine.Apply(img, model.StyleAnime, 0.8)
	if out == nil {
		t.Fatal("Apply returned nil")
	}
	if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 48 {
		t.Errorf("expected 64x48, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestApplyZeroIntensity(t *testing.T) {
	engine := New()
	img := createTestImage(32, 32)

	// All stages still execute with minimal effect
	out := engine.Apply(img, model.StyleAnime, 0)
	if out == nil {
		t.Fatal("Apply returned nil")
	}
	if out.Bounds() != image.Rect(0, 0, 32, 32) {
		t.Errorf("unexpected bounds: %v", out.Bounds())
	}
}

func TestApplyClampsIntensity(t *testing.T) {
	engine := New()
	img := createTestImage(16, 16)

	over := engine.Apply(img, model.StyleAnime, 3.5)
	unit := engine.Apply(img, model.StyleAnime, 1.0)

	if !samePixels(over, unit) {
		t.Error("intensity above 1 should behave like intensity 1")
	}
}

func TestApplyDeterministic(t *testing.T) {
	engine := New()
	img := createTestImage(32, 32)

	a := engine.Apply(img, model.StyleAnime, 0.8)
	b := engine.Apply(img, model.StyleAnime, 0.8)

	if !samePixels(a, b) {
		t.Error("two runs with identical inputs should be pixel-identical")
	}
}

func TestApplyNilAndUnknownStyle(t *testing.T) {
	engine := New()

	if out := engine.Apply(nil, model.StyleAnime, 0.5); out != nil {
		t.Error("nil input should be returned unchanged")
	}

	img := createTestImage(8, 8)
	out := engine.Apply(img, model.Style("sketch"), 0.5)
	if !samePixels(out, img) {
		t.Error("unknown style should return the input unchanged")
	}
}

func TestScreenBlendLightensOnly(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	glow := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(base.Pix); i += 4 {
		base.Pix[i], base.Pix[i+1], base.Pix[i+2], base.Pix[i+3] = 100, 150, 200, 255
		glow.Pix[i], glow.Pix[i+1], glow.Pix[i+2], glow.Pix[i+3] = 50, 50, 50, 255
	}

	out := screenBlend(base, glow)
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] < 100 || out.Pix[i+1] < 150 || out.Pix[i+2] < 200 {
			t.Fatal("screen blend must never darken the base")
		}
	}
}

func TestShiftTemperatureWarms(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}

	out := shiftTemperature(img, 6500, 500)
	if out.Pix[2] >= img.Pix[2] && out.Pix[0] <= img.Pix[0] {
		t.Errorf("warm shift should shift the red/blue balance, got r=%d b=%d", out.Pix[0], out.Pix[2])
	}
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

func BenchmarkApplyAnime(b *testing.B) {
	engine := New()
	img := createTestImage(200, 200)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Apply(img, model.StyleAnime, 0.8)
	}
}
