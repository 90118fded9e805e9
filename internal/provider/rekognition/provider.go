package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

// maxImageSize is the maximum inline image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

// Provider counts faces with Rekognition DetectFaces. Rekognition does not
// expose embeddings, so it only serves the single-face preflight.
type Provider struct {
	api    DetectFacesAPI
	config Config
}

// Ensure Provider implements provider.FaceCounter at compile time
var _ provider.FaceCounter = (*Provider)(nil)

// NewProvider creates a provider backed by a real AWS client
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithAPI(client, cfg), nil
}

// NewProviderWithAPI creates a provider on top of any DetectFacesAPI
func NewProviderWithAPI(api DetectFacesAPI, cfg Config) *Provider {
	return &Provider{api: api, config: cfg}
}

// CountFaces returns the number of faces at or above MinConfidence
func (p *Provider) CountFaces(ctx context.Context, img *imaging.Image) (int, error) {
	data, err := img.Fit(p.config.MaxImageSide).JPEG()
	if err != nil {
		return 0, domain.NewExtractionError(img.Ref, err)
	}
	if len(data) > maxImageSize {
		return 0, domain.NewExtractionError(img.Ref,
			fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(data), maxImageSize))
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: data},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return 0, domain.NewExtractionError(img.Ref, classifyError(err))
	}

	count := 0
	for _, detail := range output.FaceDetails {
		if detail.Confidence != nil && float64(*detail.Confidence) >= p.config.MinConfidence {
			count++
		}
	}

	return count, nil
}
