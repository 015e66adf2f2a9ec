// Package pipeline orchestrates the image-to-emoji flow: best-effort face
// location, stylization, circular composition, artifact record creation
// and export of stored artifacts to media files.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/m-mizutani/goerr/v2"

	"github.com/menta2k/livemoji/internal/logging"
	"github.com/menta2k/livemoji/pkg/animation"
	"github.com/menta2k/livemoji/pkg/export"
	"github.com/menta2k/livemoji/pkg/facedetect"
	"github.com/menta2k/livemoji/pkg/filter"
	"github.com/menta2k/livemoji/pkg/imageio"
	"github.com/menta2k/livemoji/pkg/model"
	"github.com/menta2k/livemoji/pkg/store"
)

var ErrBusy = goerr.New("another operation is already in progress")

// Progress checkpoints reported by ProcessImage, in order
const (
	progressStart    = 0.0
	progressLocated  = 0.15
	progressFiltered = 0.6
	progressComposed = 0.8
	progressDone     = 1.0
)

// Config holds the orchestrator parameters
type Config struct {
	Style     model.Style
	Animation model.AnimationKind
	Intensity float64
	Duration  float64

	CanvasSize  int
	InsetMargin int
	BorderWidth int
	BorderInset int

	Background color.NRGBA
	Border     color.NRGBA
}

// DefaultConfig returns the reference pipeline parameters
func DefaultConfig() Config {
	return Config{
		Style:       model.StyleAnime,
		Animation:   model.AnimationBounce,
		Intensity:   0.8,
		Duration:    2.0,
		CanvasSize:  200,
		InsetMargin: 20,
		BorderWidth: 4,
		BorderInset: 2,
		Background:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Border:      color.NRGBA{R: 17, G: 17, B: 17, A: 255},
	}
}

// Pipeline sequences the processing and export stages. A single Pipeline
// runs one operation at a time; overlapping calls fail fast with ErrBusy.
type Pipeline struct {
	filter  *filter.Engine
	synth   *animation.Synthesizer
	encoder *export.Encoder
	locator facedetect.Locator
	store   *store.RecordStore
	config  Config

	onProgress func(float64)
	busy       atomic.Bool
	now        func() time.Time
}

// New creates a Pipeline with the reference configuration
func New(recordStore *store.RecordStore, encoder *export.Encoder, locator facedetect.Locator) *Pipeline {
	return NewWithConfig(recordStore, encoder, locator, DefaultConfig())
}

// NewWithConfig creates a Pipeline with custom configuration
func NewWithConfig(recordStore *store.RecordStore, encoder *export.Encoder, locator facedetect.Locator, config Config) *Pipeline {
	return &Pipeline{
		filter:  filter.New(),
		synth:   animation.New(),
		encoder: encoder,
		locator: locator,
		store:   recordStore,
		config:  config,
		now:     time.Now,
	}
}

// SetProgressFunc registers a callback receiving the progress checkpoints.
// Progress is reset to 0 when a call completes, success or failure.
func (p *Pipeline) SetProgressFunc(fn func(float64)) {
	p.onProgress = fn
}

func (p *Pipeline) report(v float64) {
	if p.onProgress != nil {
		p.onProgress(v)
	}
}

// ProcessImage runs the full creation pass: face locate (advisory),
// filter, circular composition, record creation and persist. A failure in
// any required stage aborts the call and leaves the record list untouched.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image) (*model.Artifact, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)
	defer p.report(0)

	logger := logging.From(ctx)
	p.report(progressStart)

	if img == nil {
		return nil, goerr.New("cannot process nil image")
	}

	// Advisory only: the location result is not consumed downstream
	if p.locator != nil {
		if res, ok := p.locator.LocateFace(ctx, img); ok {
			logger.Debug("face located", "box", res.Box, "confidence", res.Confidence)
		} else {
			logger.Debug("no face located, continuing")
		}
	}
	p.report(progressLocated)

	filtered := p.filter.Apply(img, p.config.Style, p.config.Intensity)
	p.report(progressFiltered)

	emoji := p.composeEmoji(filtered)
	p.report(progressComposed)

	data, err := imageio.EncodePNG(emoji)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode emoji image")
	}

	now := p.now()
	artifact := &model.Artifact{
		ID:        model.NewArtifactID(),
		Name:      fmt.Sprintf("Emoji %s", now.Format("15:04")),
		CreatedAt: now,
		ImageData: data,
		Animation: p.config.Animation,
		Duration:  p.config.Duration,
	}

	if err := p.store.Add(artifact); err != nil {
		return nil, goerr.Wrap(err, "failed to persist artifact")
	}
	p.report(progressDone)

	logger.Info("created emoji artifact", "id", artifact.ID, "name", artifact.Name)
	return artifact, nil
}

// composeEmoji renders the circular emoji: background-filled circle, the
// stylized image inset by a fixed margin, and a stroked circular border.
func (p *Pipeline) composeEmoji(img image.Image) *image.NRGBA {
	size := p.config.CanvasSize
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := image.Pt(size/2, size/2)

	mask := &circleMask{center: center, radius: size / 2, rect: canvas.Bounds()}
	draw.DrawMask(canvas, canvas.Bounds(), &image.Uniform{p.config.Background}, image.Point{}, mask, image.Point{}, draw.Over)

	inner := canvas.Bounds().Inset(p.config.InsetMargin)
	fitted := imaging.Fill(img, inner.Dx(), inner.Dy(), imaging.Center, imaging.Lanczos)
	draw.Draw(canvas, inner, fitted, image.Point{}, draw.Over)

	strokeRing(canvas, center, size/2-p.config.BorderInset, p.config.BorderWidth, p.config.Border)

	return canvas
}

// Export regenerates the frame sequence for a stored artifact and writes
// it in the requested format. Frames are produced fresh on every call.
func (p *Pipeline) Export(ctx context.Context, artifact *model.Artifact, format model.ExportFormat) (string, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer p.busy.Store(false)

	return p.doExport(ctx, artifact, format)
}

func (p *Pipeline) doExport(ctx context.Context, artifact *model.Artifact, format model.ExportFormat) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}

	img, err := artifact.Decode()
	if err != nil {
		return "", err
	}

	switch format {
	case model.FormatPNG:
		return p.encoder.SavePNG(img)
	case model.FormatGIF:
		frames, err := p.synth.GenerateFrames(img, artifact.Animation, artifact.Duration)
		if err != nil {
			return "", err
		}
		return p.encoder.ExportGIF(frames, artifact.Duration)
	case model.FormatMP4:
		frames, err := p.synth.GenerateFrames(img, artifact.Animation, artifact.Duration)
		if err != nil {
			return "", err
		}
		return p.encoder.ExportMP4(ctx, frames, artifact.Duration)
	default:
		return "", goerr.Wrap(model.ErrInvalidFormat, "", goerr.V("format", format))
	}
}

// ExportAll exports every stored artifact in the given format, continuing
// past individual failures. Only the successful output paths are returned.
func (p *Pipeline) ExportAll(ctx context.Context, format model.ExportFormat) ([]string, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.busy.Store(false)

	logger := logging.From(ctx)
	var paths []string
	for _, artifact := range p.store.List() {
		path, err := p.doExport(ctx, artifact, format)
		if err != nil {
			logger.Warn("export failed, skipping artifact", "id", artifact.ID, "error", err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// circleMask is an alpha mask selecting the inscribed circle of a square
type circleMask struct {
	center image.Point
	radius int
	rect   image.Rectangle
}

func (m *circleMask) ColorModel() color.Model { return color.AlphaModel }
func (m *circleMask) Bounds() image.Rectangle { return m.rect }

func (m *circleMask) At(x, y int) color.Color {
	dx := float64(x-m.center.X) + 0.5
	dy := float64(y-m.center.Y) + 0.5
	if dx*dx+dy*dy <= float64(m.radius)*float64(m.radius) {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// strokeRing draws a circular border of the given width whose outer edge
// has the given radius.
func strokeRing(img *image.NRGBA, center image.Point, outerRadius, width int, c color.NRGBA) {
	bounds := img.Bounds()
	rOut := float64(outerRadius)
	rIn := float64(outerRadius - width)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := float64(x-center.X) + 0.5
			dy := float64(y-center.Y) + 0.5
			d2 := dx*dx + dy*dy
			if d2 <= rOut*rOut && d2 > rIn*rIn {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
