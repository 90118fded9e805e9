package deepface

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

// Provider implements provider.Extractor using the DeepFace HTTP API
type Provider struct {
	client       *Client
	maxImageSide int
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client:       NewClient(config),
		maxImageSide: config.MaxImageSide,
	}
}

func (p *Provider) Name() string { return "deepface" }

// Extract sends the normalised image to /represent. Bounding boxes are
// scaled back to the coordinates of the image passed in.
func (p *Provider) Extract(ctx context.Context, img *imaging.Image) ([]provider.Detection, error) {
	sent := img.Fit(p.maxImageSide)
	scale := float64(img.Width()) / float64(sent.Width())

	data, err := sent.JPEG()
	if err != nil {
		return nil, domain.NewExtractionError(img.Ref, err)
	}

	resp, err := p.client.Represent(ctx, data)
	if err != nil {
		if isNoFace(err) {
			return []provider.Detection{}, nil
		}
		return nil, domain.NewExtractionError(img.Ref, fmt.Errorf("represent: %w", err))
	}

	detections := make([]provider.Detection, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Embedding) == 0 {
			return nil, domain.NewExtractionError(img.Ref, ErrEmptyEmbedding)
		}
		detections = append(detections, provider.Detection{
			Box: provider.BoundingBox{
				X:      float64(result.FacialArea.X) * scale,
				Y:      float64(result.FacialArea.Y) * scale,
				Width:  float64(result.FacialArea.W) * scale,
				Height: float64(result.FacialArea.H) * scale,
			},
			Confidence: result.FaceConfidence,
			Embedding:  result.Embedding,
		})
	}

	return detections, nil
}

// Ensure Provider implements provider.Extractor
var _ provider.Extractor = (*Provider)(nil)
