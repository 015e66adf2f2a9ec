package facedetect

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// createPortraitImage draws a bright high-contrast disc on a dark flat
// background, roughly where a face would sit in a portrait.
func createPortraitImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{20, 20, 30, 255})
		}
	}

	cx, cy := width/2, height/3
	r := width / 5
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				// Checkered fill keeps edge strength high inside the disc
				if (x+y)%2 == 0 {
					img.Set(x, y, color.RGBA{230, 190, 160, 255})
				} else {
					img.Set(x, y, color.RGBA{90, 60, 50, 255})
				}
			}
		}
	}
	return img
}

func createFlatImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	return img
}

func TestLocateFaceOnPortrait(t *testing.T) {
	locator := NewSaliencyLocator()

	res, ok := locator.LocateFace(context.Background(), createPortraitImage(160, 160))
	if !ok {
		t.Fatal("expected a face candidate on a high-contrast portrait")
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Errorf("confidence out of range: %f", res.Confidence)
	}

	// Box must be normalized
	if res.Box.X < 0 || res.Box.X > 1 || res.Box.Y < 0 || res.Box.Y > 1 {
		t.Errorf("box origin not normalized: %+v", res.Box)
	}
	if res.Box.W <= 0 || res.Box.W > 1 || res.Box.H <= 0 || res.Box.H > 1 {
		t.Errorf("box size not normalized: %+v", res.Box)
	}
	if res.Box.X+res.Box.W > 1.0001 || res.Box.Y+res.Box.H > 1.0001 {
		t.Errorf("box extends past image: %+v", res.Box)
	}
}

func TestLocateFaceFlatImage(t *testing.T) {
	locator := NewSaliencyLocator()

	if _, ok := locator.LocateFace(context.Background(), createFlatImage(160, 160)); ok {
		t.Error("flat image should not produce a face candidate")
	}
}

func TestLocateFaceDegenerateInputs(t *testing.T) {
	locator := NewSaliencyLocator()

	if _, ok := locator.LocateFace(context.Background(), nil); ok {
		t.Error("nil image should report not-found")
	}
	if _, ok := locator.LocateFace(context.Background(), createFlatImage(2, 2)); ok {
		t.Error("tiny image should report not-found")
	}
}

func TestLocateFaceCoversBrightRegion(t *testing.T) {
	locator := NewSaliencyLocator()

	img := createPortraitImage(200, 200)
	res, ok := locator.LocateFace(context.Background(), img)
	if !ok {
		t.Fatal("expected a face candidate")
	}

	// Best window should overlap the disc centered at (100, 66)
	boxCenterX := (res.Box.X + res.Box.W/2) * 200
	boxCenterY := (res.Box.Y + res.Box.H/2) * 200
	if boxCenterX < 40 || boxCenterX > 160 {
		t.Errorf("box center x=%f far from subject", boxCenterX)
	}
	if boxCenterY < 10 || boxCenterY > 140 {
		t.Errorf("box center y=%f far from subject", boxCenterY)
	}
}

func TestParseFaceResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		face    bool
	}{
		{
			name: "plain JSON",
			raw:  `{"face": {"x": 0.2, "y": 0.1, "w": 0.5, "h": 0.5}, "confidence": 0.9}`,
			face: true,
		},
		{
			name: "code fenced",
			raw:  "```json\n{\"face\": {\"x\": 0.2, \"y\": 0.1, \"w\": 0.5, \"h\": 0.5}, \"confidence\": 0.9}\n```",
			face: true,
		},
		{
			name: "surrounding prose",
			raw:  `Here is the result: {"face": {"x": 0.1, "y": 0.1, "w": 0.3, "h": 0.3}, "confidence": 0.7} hope that helps`,
			face: true,
		},
		{
			name: "null face",
			raw:  `{"face": null, "confidence": 0.0}`,
			face: false,
		},
		{
			name:    "garbage",
			raw:     "I could not find anything",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseFaceResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Error("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.face && resp.Face == nil {
				t.Error("expected a face box")
			}
			if !tt.face && resp.Face != nil {
				t.Error("expected null face")
			}
		})
	}
}

func TestParseFaceResponseClampedByCaller(t *testing.T) {
	resp, err := parseFaceResponse(`{"face": {"x": -0.5, "y": 1.5, "w": 2.0, "h": 0.5}, "confidence": 3.0}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clamp(resp.Face.X, 0, 1) != 0 {
		t.Error("negative x should clamp to 0")
	}
	if clamp(resp.Face.Y, 0, 1) != 1 {
		t.Error("y above 1 should clamp to 1")
	}
	if clamp(resp.Confidence, 0, 1) != 1 {
		t.Error("confidence above 1 should clamp to 1")
	}
}
