package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

const (
	// minFaceConfidence drops detector hits DeepFace itself is unsure about
	minFaceConfidence = 0.5
	// emotion probabilities are reported as percentages
	happyKey = "happy"
)

// Extractor implements extractor.Extractor using a DeepFace server
type Extractor struct {
	client *Client
}

// NewExtractor creates a new DeepFace extractor
func NewExtractor(config Config) *Extractor {
	return &Extractor{
		client: NewClient(config),
	}
}

// Detect calls /represent and /analyze concurrently and joins the results by
// facial area. Descriptors are L2-normalized.
func (e *Extractor) Detect(ctx context.Context, frame []byte) ([]extractor.Detection, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extractor.ErrInvalidFrame, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: empty image", extractor.ErrInvalidFrame)
	}

	imageBase64 := base64.StdEncoding.EncodeToString(frame)

	var (
		represent *RepresentResponse
		analyze   *AnalyzeResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		represent, err = e.client.Represent(gctx, imageBase64)
		return err
	})
	g.Go(func() error {
		var err error
		analyze, err = e.client.Analyze(gctx, imageBase64)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	w, h := float64(cfg.Width), float64(cfg.Height)

	detections := make([]extractor.Detection, 0, len(represent.Results))
	for _, result := range represent.Results {
		if !isRealFace(result.FacialArea, result.FaceConfidence, cfg.Width, cfg.Height) {
			continue
		}

		box := normalizeArea(result.FacialArea, w, h)
		detection := extractor.Detection{
			Box:        box,
			Descriptor: NormalizeEmbedding(result.Embedding),
		}

		if smile, ok := matchSmile(box, analyze.Results, w, h); ok {
			detection.Smile = extractor.Float64(smile)
		}

		detections = append(detections, detection)
	}

	return detections, nil
}

// isRealFace filters the whole-frame placeholder DeepFace returns when
// enforce_detection is off and nothing was found.
func isRealFace(area FacialArea, confidence *float64, width, height int) bool {
	if area.W <= 0 || area.H <= 0 {
		return false
	}
	if area.X == 0 && area.Y == 0 && area.W >= width && area.H >= height {
		return false
	}
	if confidence != nil && *confidence < minFaceConfidence {
		return false
	}
	return true
}

func normalizeArea(area FacialArea, w, h float64) extractor.BoundingBox {
	return extractor.BoundingBox{
		X:      float64(area.X) / w,
		Y:      float64(area.Y) / h,
		Width:  float64(area.W) / w,
		Height: float64(area.H) / h,
	}
}

// matchSmile picks the analyze result whose region best overlaps box
func matchSmile(box extractor.BoundingBox, results []AnalyzeResult, w, h float64) (float64, bool) {
	best, bestIoU := -1, 0.0
	for i, r := range results {
		if iou := box.IoU(normalizeArea(r.Region, w, h)); iou > bestIoU {
			best, bestIoU = i, iou
		}
	}
	if best < 0 {
		return 0, false
	}

	happy, ok := results[best].Emotion[happyKey]
	if !ok {
		return 0, false
	}
	return math.Max(0, math.Min(1, happy/100)), true
}

// Ensure Extractor implements extractor.Extractor
var _ extractor.Extractor = (*Extractor)(nil)
