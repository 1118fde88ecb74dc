package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

type fixedExtractor struct {
	detections []Detection
	err        error
}

func (f fixedExtractor) Detect(context.Context, []byte) ([]Detection, error) {
	return f.detections, f.err
}

func TestBoundingBox_IoU(t *testing.T) {
	a := BoundingBox{X: 0, Y: 0, Width: 0.5, Height: 0.5}

	assert.InDelta(t, 1.0, a.IoU(a), 1e-9)
	assert.InDelta(t, 0.0, a.IoU(BoundingBox{X: 0.6, Y: 0.6, Width: 0.2, Height: 0.2}), 1e-9)
	// half overlap: inter 0.125, union 0.375
	assert.InDelta(t, 1.0/3, a.IoU(BoundingBox{X: 0.25, Y: 0, Width: 0.5, Height: 0.5}), 1e-9)
}

func TestBoundingBox_CenterArea(t *testing.T) {
	b := BoundingBox{X: 0.3, Y: 0.2, Width: 0.4, Height: 0.6}

	cx, cy := b.Center()
	assert.InDelta(t, 0.5, cx, 1e-9)
	assert.InDelta(t, 0.5, cy, 1e-9)
	assert.InDelta(t, 0.24, b.Area(), 1e-9)
}

func TestComposite_Detect(t *testing.T) {
	face := BoundingBox{X: 0.3, Y: 0.25, Width: 0.4, Height: 0.5}
	shifted := BoundingBox{X: 0.31, Y: 0.26, Width: 0.4, Height: 0.5}
	other := BoundingBox{X: 0.0, Y: 0.0, Width: 0.1, Height: 0.1}

	attrs := fixedExtractor{detections: []Detection{
		{Box: face, Smile: Float64(0.9), Landmarks: &domain.Landmarks{}},
	}}
	descs := fixedExtractor{detections: []Detection{
		{Box: other, Descriptor: domain.Descriptor{0, 1}},
		{Box: shifted, Descriptor: domain.Descriptor{1, 0}},
	}}

	got, err := NewComposite(attrs, descs).Detect(context.Background(), []byte("frame"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, face, got[0].Box)
	assert.Equal(t, domain.Descriptor{1, 0}, got[0].Descriptor)
	require.NotNil(t, got[0].Smile)
	assert.InDelta(t, 0.9, *got[0].Smile, 1e-9)

	// unpaired descriptor face is still reported
	assert.Equal(t, other, got[1].Box)
	assert.Nil(t, got[1].Smile)
}

func TestComposite_Detect_PropagatesErrors(t *testing.T) {
	attrs := fixedExtractor{}
	descs := fixedExtractor{err: ErrUnavailable}

	_, err := NewComposite(attrs, descs).Detect(context.Background(), []byte("frame"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
