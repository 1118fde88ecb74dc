package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

var frame = make([]byte, 64)

func TestExtractor_Detect_Cycle(t *testing.T) {
	ex := New("alice")

	var smiling []int
	for i := 0; i < smileCycle*2; i++ {
		detections, err := ex.Detect(context.Background(), frame)
		require.NoError(t, err)
		require.Len(t, detections, 1)
		if *detections[0].Smile > 0.5 {
			smiling = append(smiling, i)
		}
	}

	assert.Len(t, smiling, smileTicks*2)
	assert.Equal(t, smileCycle-smileTicks, smiling[0])
	assert.Equal(t, smileCycle*2, ex.Calls())
}

func TestExtractor_Detect_InvalidFrame(t *testing.T) {
	_, err := New("alice").Detect(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, extractor.ErrInvalidFrame)
}

func TestExtractor_Detect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("alice").Detect(ctx, frame)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewScripted(t *testing.T) {
	one := []extractor.Detection{{Box: extractor.BoundingBox{Width: 0.5, Height: 0.5}}}
	two := append(one, one[0])

	ex := NewScripted(nil, one, two)

	for _, want := range []int{0, 1, 2, 2} {
		got, err := ex.Detect(context.Background(), frame)
		require.NoError(t, err)
		assert.Len(t, got, want)
	}
}

func TestGenerateDescriptor(t *testing.T) {
	a := GenerateDescriptor([]byte("alice"))
	b := GenerateDescriptor([]byte("alice"))
	c := GenerateDescriptor([]byte("bob"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 128)

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}
