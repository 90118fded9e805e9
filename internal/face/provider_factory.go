package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/config"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider/rekognition"
)

// ProviderType defines supported embedding extractor types
type ProviderType string

const (
	// ProviderTypeDeepFace calls a DeepFace HTTP service
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeDlib runs dlib in process (requires the dlib build tag)
	ProviderTypeDlib ProviderType = "dlib"
	// ProviderTypeMock is deterministic and needs no models, for dev/test
	ProviderTypeMock ProviderType = "mock"
)

// NewExtractor creates the embedding extractor selected by FACE_PROVIDER.
// Extractors holding native resources also implement io.Closer.
func NewExtractor(cfg *config.Config) (provider.Extractor, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeDlib:
		p, err := dlib.New(cfg.DlibModelsDir)
		if err != nil {
			return nil, fmt.Errorf("create dlib provider: %w", err)
		}
		return p, nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeDlib, ProviderTypeMock)
	}
}

// NewFaceCounter returns the preflight face counter, or nil when
// REQUIRE_SINGLE_FACE is off. PREFLIGHT_PROVIDER=extractor reuses the
// embedding extractor's own detector instead of Rekognition.
func NewFaceCounter(ctx context.Context, cfg *config.Config, extractor provider.Extractor) (provider.FaceCounter, error) {
	if !cfg.RequireSingleFace {
		return nil, nil
	}

	switch cfg.PreflightProvider {
	case "rekognition", "":
		rekogConfig := rekognition.DefaultConfig()
		rekogConfig.Region = cfg.AWSRegion

		prov, err := rekognition.NewProvider(ctx, rekogConfig)
		if err != nil {
			return nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return prov, nil

	case "extractor":
		if c, ok := extractor.(provider.FaceCounter); ok {
			return c, nil
		}
		return ExtractorCounter{Extractor: extractor}, nil

	default:
		return nil, fmt.Errorf("unknown preflight provider: %s", cfg.PreflightProvider)
	}
}

// ExtractorCounter counts faces by running a full extraction.
type ExtractorCounter struct {
	Extractor provider.Extractor
}

func (c ExtractorCounter) CountFaces(ctx context.Context, img *imaging.Image) (int, error) {
	dets, err := c.Extractor.Extract(ctx, img)
	if err != nil {
		return 0, err
	}
	return len(dets), nil
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) provider.Extractor {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}
	deepfaceConfig.RetryCount = cfg.DeepFaceRetries

	return deepface.NewProvider(deepfaceConfig)
}
