// Package export turns frame sequences into GIF or MP4 files and persists
// single images as PNG. Every export writes a fresh, uniquely named file;
// a failed export leaves no partial output behind.
package export

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/m-mizutani/goerr/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrNoFrames       = goerr.New("no animation frames available")
	ErrNoValidFrames  = goerr.New("no valid frames to encode")
	ErrEncoderFailed  = goerr.New("encoder finalize failed")
	ErrFFmpegNotFound = goerr.New("ffmpeg binary not found")
)

// Encoder writes frame sequences and still images to durable storage
type Encoder struct {
	config Config
}

// Config holds configuration for media encoding
type Config struct {
	OutputDir   string
	FilePrefix  string
	FFmpegPath  string
	Timescale   int // MP4 video track time base, units per second
	JPEGQuality int // staging quality for MP4 frames
}

// New creates a new Encoder writing into the given directory
func New(outputDir string) *Encoder {
	return NewWithConfig(Config{OutputDir: outputDir})
}

// NewWithConfig creates a new Encoder with custom configuration. Zero
// fields fall back to defaults.
func NewWithConfig(config Config) *Encoder {
	if config.FilePrefix == "" {
		config.FilePrefix = "livemoji"
	}
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.Timescale <= 0 {
		config.Timescale = 600
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = 90
	}
	return &Encoder{config: config}
}

// newOutputPath reserves a fresh uniquely named destination file
func (e *Encoder) newOutputPath(ext string) (string, error) {
	if err := os.MkdirAll(e.config.OutputDir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create output directory", goerr.V("dir", e.config.OutputDir))
	}
	token, err := gonanoid.New()
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate file token")
	}
	name := fmt.Sprintf("%s_%s.%s", e.config.FilePrefix, token, ext)
	return filepath.Join(e.config.OutputDir, name), nil
}

// SavePNG encodes a single image to PNG and writes it once
func (e *Encoder) SavePNG(img image.Image) (string, error) {
	if img == nil {
		return "", goerr.New("cannot save nil image")
	}
	path, err := e.newOutputPath("png")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create PNG file", goerr.V("path", path))
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(path)
		return "", goerr.Wrap(err, "failed to encode PNG")
	}
	return path, nil
}

// ExportGIF encodes the frame sequence as an infinitely looping GIF with a
// uniform per-frame delay of duration/len(frames). Nil frames are skipped
// silently; they reduce the displayed frame count but not the computed
// delay. Zero valid frames at finalize is a hard error.
func (e *Encoder) ExportGIF(frames []image.Image, duration float64) (string, error) {
	if len(frames) == 0 {
		return "", ErrNoFrames
	}

	// GIF delays are centiseconds
	delay := int(duration/float64(len(frames))*100 + 0.5)

	anim := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		if frame == nil {
			continue
		}
		anim.Image = append(anim.Image, quantize(frame))
		anim.Delay = append(anim.Delay, delay)
	}
	if len(anim.Image) == 0 {
		return "", ErrNoValidFrames
	}

	path, err := e.newOutputPath("gif")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create GIF file", goerr.V("path", path))
	}
	defer f.Close()

	if err := gif.EncodeAll(f, anim); err != nil {
		os.Remove(path)
		return "", goerr.Wrap(ErrEncoderFailed, err.Error())
	}
	return path, nil
}

// quantize converts a frame to a paletted image with dithering
func quantize(frame image.Image) *image.Paletted {
	bounds := frame.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Bounds(), frame, bounds.Min)
	return p
}

// ExportMP4 encodes the frame sequence as an H.264 MP4 via ffmpeg. The
// video dimensions come from the first frame, the frame rate is exactly
// len(frames)/duration, and the call returns only after the container has
// been fully flushed or has failed.
func (e *Encoder) ExportMP4(ctx context.Context, frames []image.Image, duration float64) (string, error) {
	if len(frames) == 0 {
		return "", ErrNoFrames
	}

	first := firstValid(frames)
	if first == nil {
		return "", ErrNoValidFrames
	}
	// libx264 requires even dimensions
	width := even(first.Bounds().Dx())
	height := even(first.Bounds().Dy())

	stageDir, err := os.MkdirTemp("", "livemoji-mp4-*")
	if err != nil {
		return "", goerr.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(stageDir)

	written, err := e.stageFrames(frames, stageDir, width, height)
	if err != nil {
		return "", err
	}
	if written == 0 {
		return "", ErrNoValidFrames
	}

	path, err := e.newOutputPath("mp4")
	if err != nil {
		return "", err
	}

	args := e.ffmpegArgs(stageDir, len(frames), duration, path)
	cmd := exec.CommandContext(ctx, e.config.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(path)
		if _, lookErr := exec.LookPath(e.config.FFmpegPath); lookErr != nil {
			return "", goerr.Wrap(ErrFFmpegNotFound, "", goerr.V("path", e.config.FFmpegPath))
		}
		return "", goerr.Wrap(ErrEncoderFailed, err.Error(), goerr.V("output", string(out)))
	}

	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		os.Remove(path)
		return "", goerr.Wrap(ErrEncoderFailed, "ffmpeg produced no output", goerr.V("path", path))
	}
	return path, nil
}

// stageFrames writes the frames as a numbered JPEG sequence for ffmpeg,
// resizing any frame that deviates from the video dimensions. Nil frames
// are skipped; numbering stays contiguous.
func (e *Encoder) stageFrames(frames []image.Image, dir string, width, height int) (int, error) {
	written := 0
	for _, frame := range frames {
		if frame == nil {
			continue
		}
		if frame.Bounds().Dx() != width || frame.Bounds().Dy() != height {
			frame = imaging.Resize(frame, width, height, imaging.Lanczos)
		}
		written++
		name := filepath.Join(dir, fmt.Sprintf("frame%06d.jpg", written))
		if err := e.writeJPEG(name, frame); err != nil {
			return 0, err
		}
	}
	return written, nil
}

func (e *Encoder) writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create staging frame", goerr.V("path", path))
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20)
	defer bw.Flush()

	if err := jpeg.Encode(bw, img, &jpeg.Options{Quality: e.config.JPEGQuality}); err != nil {
		return goerr.Wrap(err, "failed to encode staging frame")
	}
	return nil
}

// ffmpegArgs builds the encoder invocation: exact frame rate, H.264,
// yuv420p and the fixed track timescale.
func (e *Encoder) ffmpegArgs(stageDir string, frameCount int, duration float64, outPath string) []string {
	fps := float64(frameCount) / duration
	return []string{
		"-y",
		"-framerate", fmt.Sprintf("%.6g", fps),
		"-i", filepath.Join(stageDir, "frame%06d.jpg"),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-video_track_timescale", fmt.Sprintf("%d", e.config.Timescale),
		"-movflags", "+faststart",
		outPath,
	}
}

func firstValid(frames []image.Image) image.Image {
	for _, f := range frames {
		if f != nil {
			return f
		}
	}
	return nil
}

func even(n int) int {
	if n%2 == 0 {
		return n
	}
	return n + 1
}
