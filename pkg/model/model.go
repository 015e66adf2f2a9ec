package model

import (
	"bytes"
	"image"
	_ "image/png"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidAnimation = goerr.New("invalid animation kind")
	ErrInvalidStyle     = goerr.New("invalid style")
	ErrInvalidFormat    = goerr.New("invalid export format")
	ErrInvalidDuration  = goerr.New("duration must be positive")
	ErrEmptyImageData   = goerr.New("artifact has no image data")
)

type ArtifactID string

// NewArtifactID generates a new unique ArtifactID
func NewArtifactID() ArtifactID {
	return ArtifactID(uuid.New().String())
}

// AnimationKind selects the procedural motion recipe used when
// synthesizing frames from a stored artifact.
type AnimationKind string

const (
	AnimationBounce AnimationKind = "bounce"
	AnimationWave   AnimationKind = "wave"
)

// AnimationKinds returns all supported animation kinds
func AnimationKinds() []AnimationKind {
	return []AnimationKind{AnimationBounce, AnimationWave}
}

func (k AnimationKind) DisplayName() string {
	switch k {
	case AnimationBounce:
		return "Bounce"
	case AnimationWave:
		return "Wave"
	default:
		return string(k)
	}
}

// Validate checks if the animation kind is a member of the closed set
func (k AnimationKind) Validate() error {
	switch k {
	case AnimationBounce, AnimationWave:
		return nil
	default:
		return goerr.Wrap(ErrInvalidAnimation, "", goerr.V("kind", k))
	}
}

// Style is a named image stylization recipe
type Style string

const (
	StyleAnime Style = "anime"
)

// Styles returns all supported filter styles
func Styles() []Style {
	return []Style{StyleAnime}
}

func (s Style) DisplayName() string {
	switch s {
	case StyleAnime:
		return "Anime"
	default:
		return string(s)
	}
}

func (s Style) Description() string {
	switch s {
	case StyleAnime:
		return "Edge-preserving smoothing with vibrance, glow and a warm shift"
	default:
		return ""
	}
}

// Validate checks if the style is a member of the closed set
func (s Style) Validate() error {
	switch s {
	case StyleAnime:
		return nil
	default:
		return goerr.Wrap(ErrInvalidStyle, "", goerr.V("style", s))
	}
}

// ExportFormat selects the media container produced by an export
type ExportFormat string

const (
	FormatGIF ExportFormat = "gif"
	FormatMP4 ExportFormat = "mp4"
	FormatPNG ExportFormat = "png"
)

// ExportFormats returns all supported export formats
func ExportFormats() []ExportFormat {
	return []ExportFormat{FormatGIF, FormatMP4, FormatPNG}
}

func (f ExportFormat) DisplayName() string {
	switch f {
	case FormatGIF:
		return "GIF"
	case FormatMP4:
		return "MP4"
	case FormatPNG:
		return "PNG"
	default:
		return string(f)
	}
}

// Extension returns the canonical file extension without the dot
func (f ExportFormat) Extension() string {
	return string(f)
}

// Validate checks if the export format is a member of the closed set
func (f ExportFormat) Validate() error {
	switch f {
	case FormatGIF, FormatMP4, FormatPNG:
		return nil
	default:
		return goerr.Wrap(ErrInvalidFormat, "", goerr.V("format", f))
	}
}

// Artifact is a stored, user-created emoji record. The PNG payload in
// ImageData is the canonical source for all later exports; frames are
// regenerated from it on every export request.
type Artifact struct {
	ID        ArtifactID    `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	ImageData []byte        `json:"imageData"`
	Animation AnimationKind `json:"animationType"`
	Duration  float64       `json:"duration"`
}

// Validate checks the record invariants: non-empty id, positive duration
// and a known animation kind.
func (a *Artifact) Validate() error {
	if a.ID == "" {
		return goerr.New("artifact id is empty")
	}
	if a.Duration <= 0 {
		return goerr.Wrap(ErrInvalidDuration, "", goerr.V("duration", a.Duration))
	}
	if err := a.Animation.Validate(); err != nil {
		return err
	}
	return nil
}

// Decode decodes the raw pixel payload. A payload that does not decode to
// a valid raster image is an error state, not a silent default.
func (a *Artifact) Decode() (image.Image, error) {
	if len(a.ImageData) == 0 {
		return nil, goerr.Wrap(ErrEmptyImageData, "", goerr.V("id", a.ID))
	}
	img, _, err := image.Decode(bytes.NewReader(a.ImageData))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode artifact image", goerr.V("id", a.ID))
	}
	return img, nil
}
