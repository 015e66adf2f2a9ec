// Package filter applies deterministic, parameterized stylization chains
// to a single image. The engine never fails outward: a stage that cannot
// produce output is skipped and the chain continues with the pre-stage
// image.
package filter

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/livemoji/pkg/model"
)

// Engine applies stylization filter chains to images
type Engine struct {
	config Config
}

// Config holds the per-stage parameters of the filter chains. Each base
// value is scaled by the invocation intensity.
type Config struct {
	SpatialSigmaBase float64 // bilateral spatial sigma at intensity 1.0
	RangeSigma       float64 // bilateral range sigma, intensity independent
	VibranceBase     float64 // vibrance amount at intensity 1.0
	GlowRadiusBase   float64 // glow blur radius at intensity 1.0
	NeutralKelvin    float64 // neutral color temperature
	WarmShiftKelvin  float64 // neutral point shift at intensity 1.0
}

// New creates a new Engine with default configuration
func New() *Engine {
	return &Engine{
		config: Config{
			SpatialSigmaBase: 5.0,
			RangeSigma:       0.1,
			VibranceBase:     2.0,
			GlowRadiusBase:   2.0,
			NeutralKelvin:    6500,
			WarmShiftKelvin:  500,
		},
	}
}

// NewWithConfig creates a new Engine with custom configuration
func NewWithConfig(config Config) *Engine {
	return &Engine{config: config}
}

// Apply runs the stylization chain for the given style. Intensity is
// clamped to [0,1] and scales the strength of every stage. The result is
// always a valid image with the same bounds as the input; on undecodable
// or empty input the original image is returned unchanged.
func (e *Engine) Apply(img image.Image, style model.Style, intensity float64) image.Image {
	if img == nil {
		return img
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return img
	}

	intensity = clamp(intensity, 0, 1)

	switch style {
	case model.StyleAnime:
		return e.applyAnime(img, intensity)
	default:
		return img
	}
}

// applyAnime runs the four-stage anime/cel chain: edge-preserving
// smoothing, vibrance boost, soft glow, warm temperature shift.
func (e *Engine) applyAnime(img image.Image, intensity float64) image.Image {
	result := imaging.Clone(img)

	result = e.bilateral(result, e.config.SpatialSigmaBase*intensity, e.config.RangeSigma)

	result = imaging.AdjustSaturation(result, vibrancePercent(e.config.VibranceBase*intensity))

	if radius := e.config.GlowRadiusBase * intensity; radius > 0 {
		glow := imaging.Blur(result, radius)
		result = screenBlend(result, glow)
	}

	result = shiftTemperature(result, e.config.NeutralKelvin, e.config.WarmShiftKelvin*intensity)

	return result
}

// vibrancePercent maps a vibrance amount to the percentage scale used by
// imaging.AdjustSaturation (-100..100).
func vibrancePercent(amount float64) float64 {
	return clamp(amount*25, 0, 100)
}

// bilateral applies edge-preserving smoothing. Spatial falloff is Gaussian
// with sigmaS, range falloff is Gaussian over normalized color distance
// with sigmaR. A non-positive spatial sigma leaves the image untouched.
func (e *Engine) bilateral(src *image.NRGBA, sigmaS, sigmaR float64) *image.NRGBA {
	if sigmaS <= 0 || sigmaR <= 0 {
		return src
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	radius := int(sigmaS*2 + 0.5)
	if radius < 1 {
		return src
	}

	// Precompute spatial weights
	spatial := make([]float64, (2*radius+1)*(2*radius+1))
	idx := 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[idx] = math.Exp(-d2 / (2 * sigmaS * sigmaS))
			idx++
		}
	}

	dst := image.NewNRGBA(bounds)
	twoSigmaR2 := 2 * sigmaR * sigmaR

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ci := y*src.Stride + x*4
			cr := float64(src.Pix[ci+0])
			cg := float64(src.Pix[ci+1])
			cb := float64(src.Pix[ci+2])

			var sumR, sumG, sumB, sumW float64
			idx = 0
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= height {
					idx += 2*radius + 1
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= width {
						idx++
						continue
					}
					ni := ny*src.Stride + nx*4
					nr := float64(src.Pix[ni+0])
					ng := float64(src.Pix[ni+1])
					nb := float64(src.Pix[ni+2])

					dr := (nr - cr) / 255
					dg := (ng - cg) / 255
					db := (nb - cb) / 255
					dist2 := (dr*dr + dg*dg + db*db) / 3

					w := spatial[idx] * math.Exp(-dist2/twoSigmaR2)
					sumR += nr * w
					sumG += ng * w
					sumB += nb * w
					sumW += w
					idx++
				}
			}

			di := y*dst.Stride + x*4
			if sumW > 0 {
				dst.Pix[di+0] = uint8(sumR/sumW + 0.5)
				dst.Pix[di+1] = uint8(sumG/sumW + 0.5)
				dst.Pix[di+2] = uint8(sumB/sumW + 0.5)
			} else {
				dst.Pix[di+0] = src.Pix[ci+0]
				dst.Pix[di+1] = src.Pix[ci+1]
				dst.Pix[di+2] = src.Pix[ci+2]
			}
			dst.Pix[di+3] = src.Pix[ci+3]
		}
	}

	return dst
}

// screenBlend composites glow onto base with a screen (lighten-only) blend,
// preserving the base alpha channel.
func screenBlend(base, glow *image.NRGBA) *image.NRGBA {
	bounds := base.Bounds()
	dst := image.NewNRGBA(bounds)
	width, height := bounds.Dx(), bounds.Dy()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			bi := y*base.Stride + x*4
			gi := y*glow.Stride + x*4
			di := y*dst.Stride + x*4
			for c := 0; c < 3; c++ {
				b := int(base.Pix[bi+c])
				g := int(glow.Pix[gi+c])
				dst.Pix[di+c] = uint8(255 - (255-b)*(255-g)/255)
			}
			dst.Pix[di+3] = base.Pix[bi+3]
		}
	}

	return dst
}

// shiftTemperature moves the neutral point from the given kelvin value by
// shift degrees. A positive shift warms the image (tint unchanged).
func shiftTemperature(img *image.NRGBA, neutral, shift float64) *image.NRGBA {
	if shift == 0 {
		return img
	}

	rN, gN, bN := kelvinRGB(neutral)
	rT, gT, bT := kelvinRGB(neutral + shift)

	// Raising the neutral point compensates a cooler assumed illuminant,
	// which warms the rendered output. Normalize on green to keep overall
	// luminance stable.
	gainR := (rN / rT) / (gN / gT)
	gainB := (bN / bT) / (gN / gT)

	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	width, height := bounds.Dx(), bounds.Dy()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*img.Stride + x*4
			dst.Pix[i+0] = clampByte(float64(img.Pix[i+0]) * gainR)
			dst.Pix[i+1] = img.Pix[i+1]
			dst.Pix[i+2] = clampByte(float64(img.Pix[i+2]) * gainB)
			dst.Pix[i+3] = img.Pix[i+3]
		}
	}

	return dst
}

// kelvinRGB approximates the RGB rendering of a black-body radiator at the
// given temperature (Tanner Helland's curve fit), valid for 1000K-40000K.
func kelvinRGB(kelvin float64) (float64, float64, float64) {
	t := kelvin / 100

	var r, g, b float64
	if t <= 66 {
		r = 255
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
	}

	if t <= 66 {
		g = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}

	if t >= 66 {
		b = 255
	} else if t <= 19 {
		b = 0
	} else {
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	return clamp(r, 0, 255), clamp(g, 0, 255), clamp(b, 0, 255)
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

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
