package model

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestNewArtifactID(t *testing.T) {
	a := NewArtifactID()
	b := NewArtifactID()
	if a == "" {
		t.Error("NewArtifactID returned empty id")
	}
	if a == b {
		t.Errorf("expected unique ids, got %s twice", a)
	}
}

func TestAnimationKindValidate(t *testing.T) {
	for _, kind := range AnimationKinds() {
		if err := kind.Validate(); err != nil {
			t.Errorf("kind %s should be valid: %v", kind, err)
		}
	}
	if err := AnimationKind("spin").Validate(); err == nil {
		t.Error("unknown kind should fail validation")
	}
}

func TestAnimationKindDisplayName(t *testing.T) {
	if AnimationBounce.DisplayName() != "Bounce" {
		t.Errorf("expected Bounce, got %s", AnimationBounce.DisplayName())
	}
	if AnimationWave.DisplayName() != "Wave" {
		t.Errorf("expected Wave, got %s", AnimationWave.DisplayName())
	}
}

func TestStyleValidate(t *testing.T) {
	if err := StyleAnime.Validate(); err != nil {
		t.Errorf("anime style should be valid: %v", err)
	}
	if err := Style("sketch").Validate(); err == nil {
		t.Error("unknown style should fail validation")
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		format  ExportFormat
		ext     string
		display string
	}{
		{FormatGIF, "gif", "GIF"},
		{FormatMP4, "mp4", "MP4"},
		{FormatPNG, "png", "PNG"},
	}

	for _, tt := range tests {
		if err := tt.format.Validate(); err != nil {
			t.Errorf("format %s should be valid: %v", tt.format, err)
		}
		if tt.format.Extension() != tt.ext {
			t.Errorf("expected extension %s, got %s", tt.ext, tt.format.Extension())
		}
		if tt.format.DisplayName() != tt.display {
			t.Errorf("expected display name %s, got %s", tt.display, tt.format.DisplayName())
		}
	}

	if err := ExportFormat("webm").Validate(); err == nil {
		t.Error("unknown format should fail validation")
	}
}

func TestArtifactValidate(t *testing.T) {
	valid := &Artifact{
		ID:        NewArtifactID(),
		Name:      "Emoji 12:00",
		CreatedAt: time.Now(),
		ImageData: encodeTestPNG(t, 10, 10),
		Animation: AnimationBounce,
		Duration:  2.0,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid artifact should pass: %v", err)
	}

	noID := *valid
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Error("artifact without id should fail validation")
	}

	zeroDuration := *valid
	zeroDuration.Duration = 0
	if err := zeroDuration.Validate(); err == nil {
		t.Error("artifact with zero duration should fail validation")
	}

	badKind := *valid
	badKind.Animation = "spin"
	if err := badKind.Validate(); err == nil {
		t.Error("artifact with unknown animation should fail validation")
	}
}

func TestArtifactDecode(t *testing.T) {
	a := &Artifact{
		ID:        NewArtifactID(),
		ImageData: encodeTestPNG(t, 32, 24),
		Animation: AnimationWave,
		Duration:  1.0,
	}

	img, err := a.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("expected 32x24, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestArtifactDecodeCorrupt(t *testing.T) {
	a := &Artifact{ID: NewArtifactID(), ImageData: []byte("not a png")}
	if _, err := a.Decode(); err == nil {
		t.Error("corrupt payload should fail to decode")
	}

	empty := &Artifact{ID: NewArtifactID()}
	if _, err := empty.Decode(); err == nil {
		t.Error("empty payload should fail to decode")
	}
}
