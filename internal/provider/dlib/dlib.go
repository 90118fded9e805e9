//go:build dlib

// Package dlib extracts 128-dimensional face descriptors in process with
// dlib through go-face. Building it needs cgo and the dlib libraries, so it
// is only compiled with the dlib build tag.
package dlib

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

const Available = true

// Provider wraps a go-face recognizer. The recognizer is not safe for
// concurrent use, so calls are serialised.
type Provider struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// New loads the shape predictor, recognition and detector models from
// modelsDir.
func New(modelsDir string) (*Provider, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models from %s: %w", modelsDir, err)
	}
	return &Provider{rec: rec}, nil
}

func (p *Provider) Name() string { return "dlib" }

// Extract runs detection and descriptor extraction. go-face only reads
// JPEG, so the normalised buffer is re-encoded first.
func (p *Provider) Extract(ctx context.Context, img *imaging.Image) ([]provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewExtractionError(img.Ref, err)
	}

	data, err := img.JPEG()
	if err != nil {
		return nil, domain.NewExtractionError(img.Ref, err)
	}

	p.mu.Lock()
	faces, err := p.rec.Recognize(data)
	p.mu.Unlock()
	if err != nil {
		return nil, domain.NewExtractionError(img.Ref, fmt.Errorf("recognize: %w", err))
	}

	detections := make([]provider.Detection, 0, len(faces))
	for _, f := range faces {
		embedding := make([]float64, len(f.Descriptor))
		for i, v := range f.Descriptor {
			embedding[i] = float64(v)
		}
		r := f.Rectangle
		detections = append(detections, provider.Detection{
			Box: provider.BoundingBox{
				X:      float64(r.Min.X),
				Y:      float64(r.Min.Y),
				Width:  float64(r.Dx()),
				Height: float64(r.Dy()),
			},
			Confidence: 1,
			Embedding:  embedding,
		})
	}

	return detections, nil
}

// CountFaces reports how many faces the detector found.
func (p *Provider) CountFaces(ctx context.Context, img *imaging.Image) (int, error) {
	dets, err := p.Extract(ctx, img)
	if err != nil {
		return 0, err
	}
	return len(dets), nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rec != nil {
		p.rec.Close()
		p.rec = nil
	}
	return nil
}

var (
	_ provider.Extractor   = (*Provider)(nil)
	_ provider.FaceCounter = (*Provider)(nil)
)
