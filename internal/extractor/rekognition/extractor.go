package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// API is the subset of the Rekognition client used here
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Config holds configuration for AWS Rekognition extractor
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region: "us-east-1",
	}
}

// Extractor implements extractor.Extractor using Rekognition DetectFaces.
// Rekognition exposes no embeddings, so detections carry no descriptor; pair it
// with a descriptor extractor through extractor.Composite.
type Extractor struct {
	api API
}

// NewExtractor loads the AWS default credential chain and creates an Extractor
func NewExtractor(ctx context.Context, cfg Config) (*Extractor, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewExtractorWithAPI(rekognition.NewFromConfig(awsCfg)), nil
}

// NewExtractorWithAPI creates an Extractor around an existing client
func NewExtractorWithAPI(api API) *Extractor {
	return &Extractor{api: api}
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// Detect detects faces with all attributes, mapping the Smile attribute to a
// probability and keeping eye and mouth landmarks
func (e *Extractor) Detect(ctx context.Context, frame []byte) ([]extractor.Detection, error) {
	if err := validateImage(frame); err != nil {
		return nil, err
	}

	output, err := e.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: frame,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		return nil, parseDetectError(err)
	}

	detections := make([]extractor.Detection, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}

		detection := extractor.Detection{
			Box: extractor.BoundingBox{
				X:      float64(aws.ToFloat32(detail.BoundingBox.Left)),
				Y:      float64(aws.ToFloat32(detail.BoundingBox.Top)),
				Width:  float64(aws.ToFloat32(detail.BoundingBox.Width)),
				Height: float64(aws.ToFloat32(detail.BoundingBox.Height)),
			},
			Landmarks: mapLandmarks(detail.Landmarks),
		}

		if detail.Smile != nil && detail.Smile.Confidence != nil {
			detection.Smile = extractor.Float64(smileProbability(detail.Smile))
		}

		detections = append(detections, detection)
	}

	return detections, nil
}

// smileProbability turns Rekognition's boolean-plus-confidence into P(smiling)
func smileProbability(smile *types.Smile) float64 {
	confidence := float64(aws.ToFloat32(smile.Confidence)) / 100
	if smile.Value {
		return confidence
	}
	return 1 - confidence
}

// mapLandmarks returns nil unless all six points are present
func mapLandmarks(landmarks []types.Landmark) *domain.Landmarks {
	points := make(map[types.LandmarkType]domain.Point, len(landmarks))
	for _, l := range landmarks {
		points[l.Type] = domain.Point{
			X: float64(aws.ToFloat32(l.X)),
			Y: float64(aws.ToFloat32(l.Y)),
		}
	}

	required := []types.LandmarkType{
		types.LandmarkTypeEyeLeft,
		types.LandmarkTypeEyeRight,
		types.LandmarkTypeMouthLeft,
		types.LandmarkTypeMouthRight,
		types.LandmarkTypeMouthUp,
		types.LandmarkTypeMouthDown,
	}
	for _, t := range required {
		if _, ok := points[t]; !ok {
			return nil
		}
	}

	return &domain.Landmarks{
		LeftEye:    points[types.LandmarkTypeEyeLeft],
		RightEye:   points[types.LandmarkTypeEyeRight],
		MouthLeft:  points[types.LandmarkTypeMouthLeft],
		MouthRight: points[types.LandmarkTypeMouthRight],
		MouthUp:    points[types.LandmarkTypeMouthUp],
		MouthDown:  points[types.LandmarkTypeMouthDown],
	}
}

// Ensure Extractor implements extractor.Extractor interface at compile time
var _ extractor.Extractor = (*Extractor)(nil)
