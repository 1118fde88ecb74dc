package liveness

import (
	"math"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

const (
	// centerTolerance is the maximum offset of the box center from the image
	// center, as a fraction of width and height
	centerTolerance = 0.2
	minFaceArea     = 0.08
	maxFaceArea     = 0.85

	// Landmark heuristic: mouth width over eye distance grows from about 0.78
	// at rest to 1.0 in a full smile; lip opening adds a smaller share.
	neutralWidthRatio = 0.78
	smileWidthRatio   = 1.0
	closedOpenness    = 0.1
	openOpenness      = 0.35
	widthWeight       = 0.7
	opennessWeight    = 0.3
)

// IsPositioned reports whether box is centered and neither too small nor too large
func IsPositioned(box extractor.BoundingBox) bool {
	cx, cy := box.Center()
	if math.Abs(cx-0.5) > centerTolerance || math.Abs(cy-0.5) > centerTolerance {
		return false
	}

	area := box.Area()
	return area >= minFaceArea && area <= maxFaceArea
}

// SmileConfidence prefers the extractor's expression signal and falls back to
// the landmark ratios. Detections with neither score zero.
func SmileConfidence(d extractor.Detection) float64 {
	if d.Smile != nil {
		return clamp01(*d.Smile)
	}
	if d.Landmarks != nil {
		return LandmarkSmile(*d.Landmarks)
	}
	return 0
}

// LandmarkSmile derives a smile score in [0,1] from mouth and eye positions
func LandmarkSmile(l domain.Landmarks) float64 {
	eyeDistance := distance(l.LeftEye, l.RightEye)
	mouthWidth := distance(l.MouthLeft, l.MouthRight)
	if eyeDistance == 0 || mouthWidth == 0 {
		return 0
	}
	mouthHeight := distance(l.MouthUp, l.MouthDown)

	width := normalize(mouthWidth/eyeDistance, neutralWidthRatio, smileWidthRatio)
	openness := normalize(mouthHeight/mouthWidth, closedOpenness, openOpenness)

	return clamp01(widthWeight*width + opennessWeight*openness)
}

func distance(a, b domain.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func normalize(v, lo, hi float64) float64 {
	return clamp01((v - lo) / (hi - lo))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
