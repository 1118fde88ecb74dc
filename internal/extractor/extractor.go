package extractor

import (
	"context"
	"errors"
	"math"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

var (
	// ErrUnavailable marks infrastructure failures (service down, model not
	// loaded, credentials missing). Capture sessions treat it as fatal.
	ErrUnavailable = errors.New("embedding extractor unavailable")

	// ErrInvalidFrame marks a frame that could not be decoded. The tick is skipped.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Extractor detects faces in a single frame.
type Extractor interface {
	// Detect returns zero, one or many detections. An empty slice is not an error.
	Detect(ctx context.Context, frame []byte) ([]Detection, error)
}

// Detection is one face found in a frame.
type Detection struct {
	Box       BoundingBox       `json:"box"`
	Landmarks *domain.Landmarks `json:"landmarks,omitempty"`

	// Smile is the expression signal in [0,1] when the extractor provides one.
	Smile *float64 `json:"smile,omitempty"`

	// Descriptor is nil when the extractor cannot produce embeddings.
	Descriptor domain.Descriptor `json:"descriptor,omitempty"`
}

// FaceDescriptor returns the descriptor together with its landmarks.
func (d Detection) FaceDescriptor() domain.FaceDescriptor {
	return domain.FaceDescriptor{
		Descriptor: d.Descriptor,
		Landmarks:  d.Landmarks,
	}
}

// BoundingBox is expressed as fractions of the image width and height.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the box center.
func (b BoundingBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns the box area as a fraction of the image area.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// IoU returns the intersection over union of two boxes.
func (b BoundingBox) IoU(o BoundingBox) float64 {
	left := math.Max(b.X, o.X)
	top := math.Max(b.Y, o.Y)
	right := math.Min(b.X+b.Width, o.X+o.Width)
	bottom := math.Min(b.Y+b.Height, o.Y+o.Height)

	if right <= left || bottom <= top {
		return 0
	}

	inter := (right - left) * (bottom - top)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
