// Package livemoji turns a face photo into a small circular emoji with a
// stylized filter applied, and renders it as an animated GIF, an MP4 video
// or a still PNG.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/livemoji"
//		"github.com/menta2k/livemoji/pkg/imageio"
//		"github.com/menta2k/livemoji/pkg/model"
//	)
//
//	func main() {
//		studio, err := livemoji.New("emojis.json", "exports")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := imageio.Load("face.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		artifact, err := studio.CreateEmoji(context.Background(), img)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		path, err := studio.Export(context.Background(), artifact.ID, model.FormatGIF)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("exported %s", path)
//	}
//
// The package consists of four main components:
//
// 1. Filter engine (pkg/filter): deterministic stylization chains
// 2. Frame synthesizer (pkg/animation): procedural bounce/wave frames
// 3. Media encoder (pkg/export): GIF, MP4 (H.264 via ffmpeg) and PNG output
// 4. Orchestrator (pkg/pipeline): face locate, filter, compose, persist
//
// Face location (pkg/facedetect) is best-effort and advisory; processing
// proceeds whether or not a face is found.
package livemoji

import (
	"context"
	"image"

	"github.com/m-mizutani/goerr/v2"

	"github.com/menta2k/livemoji/pkg/export"
	"github.com/menta2k/livemoji/pkg/facedetect"
	"github.com/menta2k/livemoji/pkg/model"
	"github.com/menta2k/livemoji/pkg/pipeline"
	"github.com/menta2k/livemoji/pkg/store"
)

// Version of the livemoji library
const Version = "1.0.0"

// Studio is the high-level interface over the emoji pipeline
type Studio struct {
	store    *store.RecordStore
	pipeline *pipeline.Pipeline
}

// New creates a Studio with default configuration: a saliency-based face
// locator, records persisted at storePath and exports written to outputDir.
func New(storePath, outputDir string) (*Studio, error) {
	recordStore, err := store.Open(storePath)
	if err != nil {
		return nil, err
	}

	encoder := export.New(outputDir)
	locator := facedetect.NewSaliencyLocator()

	return &Studio{
		store:    recordStore,
		pipeline: pipeline.New(recordStore, encoder, locator),
	}, nil
}

// NewWithPipeline creates a Studio over a preconfigured pipeline
func NewWithPipeline(recordStore *store.RecordStore, p *pipeline.Pipeline) *Studio {
	return &Studio{store: recordStore, pipeline: p}
}

// SetProgressFunc registers a progress callback for CreateEmoji
func (s *Studio) SetProgressFunc(fn func(float64)) {
	s.pipeline.SetProgressFunc(fn)
}

// CreateEmoji processes a raw photo into a stored emoji artifact
func (s *Studio) CreateEmoji(ctx context.Context, img image.Image) (*model.Artifact, error) {
	return s.pipeline.ProcessImage(ctx, img)
}

// Export writes the artifact with the given id in the requested format and
// returns the produced file path.
func (s *Studio) Export(ctx context.Context, id model.ArtifactID, format model.ExportFormat) (string, error) {
	artifact := s.store.Get(id)
	if artifact == nil {
		return "", goerr.New("artifact not found", goerr.V("id", id))
	}
	return s.pipeline.Export(ctx, artifact, format)
}

// ExportAll exports every stored artifact, skipping individual failures
func (s *Studio) ExportAll(ctx context.Context, format model.ExportFormat) ([]string, error) {
	return s.pipeline.ExportAll(ctx, format)
}

// List returns a snapshot of the stored artifacts, newest first
func (s *Studio) List() []*model.Artifact {
	return s.store.List()
}

// Delete removes the artifact with the given id; unknown ids are a no-op
func (s *Studio) Delete(id model.ArtifactID) error {
	return s.store.Delete(id)
}
