package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
)

// Extractor detects faces in an image and returns one embedding per face.
type Extractor interface {
	// Extract returns detections in detector order. An image without faces
	// yields an empty slice and a nil error. Failures are reported as
	// *domain.ExtractionError.
	Extract(ctx context.Context, img *imaging.Image) ([]Detection, error)

	// Name identifies the backend in logs and audits.
	Name() string
}

// FaceCounter counts faces without computing embeddings. Used by the
// single-face preflight on the query image.
type FaceCounter interface {
	CountFaces(ctx context.Context, img *imaging.Image) (int, error)
}

// Detection is one detected face with its identity embedding. The embedding
// dimension is constant for a given extractor configuration.
type Detection struct {
	Box        BoundingBox `json:"bounding_box"`
	Confidence float64     `json:"confidence"`
	Embedding  []float64   `json:"-"`
}

// BoundingBox represents the face area in the image, in pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}
