package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/sorria/internal/config"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor/deepface"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor/mock"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor/rekognition"
)

// ExtractorType defines supported embedding extractor types
type ExtractorType string

const (
	// ExtractorTypeDeepFace uses a DeepFace server for descriptors and expressions
	ExtractorTypeDeepFace ExtractorType = "deepface"
	// ExtractorTypeRekognition uses Rekognition for smiles and landmarks, DeepFace for descriptors
	ExtractorTypeRekognition ExtractorType = "rekognition"
	// ExtractorTypeMock is a deterministic extractor for local development
	ExtractorTypeMock ExtractorType = "mock"
)

// mockIdentity seeds the descriptor the mock extractor reports
const mockIdentity = "sorria-development-face"

// NewExtractor creates an Extractor based on configuration
//
// Environment variables:
//   - EXTRACTOR_TYPE: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - DEEPFACE_MODEL: DeepFace model name (default: "Facenet", 128 dimensions)
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
func NewExtractor(ctx context.Context, cfg *config.Config) (extractor.Extractor, error) {
	switch ExtractorType(cfg.ExtractorType) {
	case ExtractorTypeDeepFace, "":
		return createDeepFaceExtractor(cfg), nil

	case ExtractorTypeRekognition:
		attributes, err := rekognition.NewExtractor(ctx, rekognition.Config{Region: cfg.AWSRegion})
		if err != nil {
			return nil, fmt.Errorf("create rekognition extractor: %w", err)
		}
		return extractor.NewComposite(attributes, createDeepFaceExtractor(cfg)), nil

	case ExtractorTypeMock:
		if cfg.IsProduction() {
			return nil, fmt.Errorf("mock extractor is not allowed in production")
		}
		return mock.New(mockIdentity), nil

	default:
		return nil, fmt.Errorf("unknown extractor type: %s (supported: %s, %s, %s)",
			cfg.ExtractorType, ExtractorTypeDeepFace, ExtractorTypeRekognition, ExtractorTypeMock)
	}
}

func createDeepFaceExtractor(cfg *config.Config) *deepface.Extractor {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DetectTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DetectTimeout
	}

	return deepface.NewExtractor(deepfaceConfig)
}
