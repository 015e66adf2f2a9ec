// Package imageio handles raster image ingestion and encoding for the
// emoji pipeline. Input photos may arrive as PNG, JPEG or WebP; artifact
// payloads are always PNG.
package imageio

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/m-mizutani/goerr/v2"
	_ "golang.org/x/image/webp"
)

// Load loads an image from a file path with WebP support
func Load(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open image file", goerr.V("path", path))
	}
	defer f.Close()

	low := strings.ToLower(path)
	if strings.Contains(low, ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	} else {
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	}
	return nil, goerr.New("unknown image format", goerr.V("path", path))
}

// Decode decodes an image from a reader, trying the registered decoders
// first and WebP as a fallback.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read image data")
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an image from byte data with WebP support
func DecodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, goerr.New("unknown or unsupported image format")
}

// EncodePNG encodes an image to PNG bytes
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, goerr.New("cannot encode nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, goerr.Wrap(err, "failed to encode PNG")
	}
	if buf.Len() == 0 {
		return nil, goerr.New("PNG encoder produced no data")
	}
	return buf.Bytes(), nil
}
