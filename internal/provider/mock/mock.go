package mock

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

const (
	embeddingDimension = 128
	minSide            = 16
)

var ErrImageTooSmall = errors.New("image too small for mock detector")

// Provider implementa provider.Extractor para testes e desenvolvimento.
// Uma imagem de cor única não tem face; qualquer outra tem exatamente uma,
// cujo embedding deriva do hash dos pixels. Imagens idênticas casam.
type Provider struct{}

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return "mock" }

// Extract simula detecção de faces
func (p *Provider) Extract(ctx context.Context, img *imaging.Image) ([]provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewExtractionError(img.Ref, err)
	}
	if img.Width() < minSide || img.Height() < minSide {
		return nil, domain.NewExtractionError(img.Ref, ErrImageTooSmall)
	}
	if uniform(img.RGB.Pix) {
		return []provider.Detection{}, nil
	}

	return []provider.Detection{
		{
			Box: provider.BoundingBox{
				Width:  float64(img.Width()),
				Height: float64(img.Height()),
			},
			Confidence: 0.99,
			Embedding:  generateEmbedding(img.RGB.Pix),
		},
	}, nil
}

// CountFaces permite usar o mock também no preflight
func (p *Provider) CountFaces(ctx context.Context, img *imaging.Image) (int, error) {
	dets, err := p.Extract(ctx, img)
	if err != nil {
		return 0, err
	}
	return len(dets), nil
}

func uniform(pix []byte) bool {
	for i := 4; i+3 < len(pix); i += 4 {
		if pix[i] != pix[0] || pix[i+1] != pix[1] || pix[i+2] != pix[2] {
			return false
		}
	}
	return true
}

// generateEmbedding gera embedding determinístico baseado no hash da imagem
func generateEmbedding(pix []byte) []float64 {
	hash := sha256.Sum256(pix)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		// mistura o índice para que blocos repetidos do hash não se alinhem
		b := hash[i%hashLen] ^ byte(i*31)
		embedding[i] = (float64(b)/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var (
	_ provider.Extractor   = (*Provider)(nil)
	_ provider.FaceCounter = (*Provider)(nil)
)
