// Package facedetect locates a face-like subject in a raster image. The
// result is advisory: locators report a typed optional outcome and never
// fail the calling pipeline.
package facedetect

import (
	"context"
	"image"
	"math"
)

// Box is a bounding box normalized to [0,1] in both axes
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Result holds a located face bounding box and the locator's confidence
type Result struct {
	Box        Box
	Confidence float64
}

// Locator finds the dominant face-like region in an image. The boolean is
// false when no face was found or the locator failed; callers treat both
// the same way.
type Locator interface {
	LocateFace(ctx context.Context, img image.Image) (*Result, bool)
}

// SaliencyLocator is a local, model-free locator. It scores image regions
// by edge strength and contrast and reports the best-scoring central
// region as the face candidate.
type SaliencyLocator struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for saliency-based location
type DetectionConfig struct {
	EdgeThreshold  float64
	ContrastWeight float64
	ColorWeight    float64
	MinConfidence  float64
}

// NewSaliencyLocator creates a SaliencyLocator with default configuration
func NewSaliencyLocator() *SaliencyLocator {
	return &SaliencyLocator{
		config: DetectionConfig{
			EdgeThreshold:  0.01,
			ContrastWeight: 0.3,
			ColorWeight:    0.2,
			MinConfidence:  0.02,
		},
	}
}

// NewSaliencyLocatorWithConfig creates a SaliencyLocator with custom configuration
func NewSaliencyLocatorWithConfig(config DetectionConfig) *SaliencyLocator {
	return &SaliencyLocator{config: config}
}

// LocateFace scans the image with sliding windows over a saliency map and
// returns the best region, or not-found for flat images.
func (l *SaliencyLocator) LocateFace(_ context.Context, img image.Image) (*Result, bool) {
	if img == nil {
		return nil, false
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return nil, false
	}

	saliency := l.saliencyMap(img)

	bestScore := 0.0
	var bestX, bestY, bestW, bestH int

	windowSizes := []int{width / 8, width / 4, width / 2}
	for _, ws := range windowSizes {
		if ws < 10 {
			continue
		}
		step := ws / 4
		if step < 1 {
			step = 1
		}
		for y := 0; y+ws <= height; y += step {
			for x := 0; x+ws <= width; x += step {
				score := regionScore(saliency, x, y, ws, ws)
				if score > bestScore {
					bestScore = score
					bestX, bestY, bestW, bestH = x, y, ws, ws
				}
			}
		}
	}

	if bestScore < l.config.MinConfidence || bestW == 0 {
		return nil, false
	}

	return &Result{
		Box: Box{
			X: float64(bestX) / float64(width),
			Y: float64(bestY) / float64(height),
			W: float64(bestW) / float64(width),
			H: float64(bestH) / float64(height),
		},
		Confidence: clamp(bestScore*10, 0, 1),
	}, true
}

// saliencyMap combines edge strength and brightness per pixel
func (l *SaliencyLocator) saliencyMap(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	saliency := make([][]float64, height)
	for i := range saliency {
		saliency[i] = make([]float64, width)
	}

	neighbors := [][]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			var edgeStrength float64
			for _, offset := range neighbors {
				nx, ny := x+offset[0], y+offset[1]
				r2, g2, b2, _ := img.At(nx+bounds.Min.X, ny+bounds.Min.Y).RGBA()

				dr := float64(r1) - float64(r2)
				dg := float64(g1) - float64(g2)
				db := float64(b1) - float64(b2)
				edgeStrength += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edgeStrength /= 8.0 * 65535.0

			brightness := (float64(r1) + float64(g1) + float64(b1)) / (3.0 * 65535.0)

			saliency[y][x] = l.config.ContrastWeight*edgeStrength + l.config.ColorWeight*brightness*edgeStrength
		}
	}

	return saliency
}

func regionScore(saliency [][]float64, x, y, w, h int) float64 {
	var total float64
	count := 0
	for ry := y; ry < y+h && ry < len(saliency); ry++ {
		for rx := x; rx < x+w && rx < len(saliency[0]); rx++ {
			total += saliency[ry][rx]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
