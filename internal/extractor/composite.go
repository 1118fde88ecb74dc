package extractor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// minPairingIoU is the overlap two boxes need to be considered the same face.
const minPairingIoU = 0.5

// Composite merges the output of two extractors: one providing expressions and
// landmarks, another providing descriptors. Both run concurrently on every frame.
type Composite struct {
	attributes  Extractor
	descriptors Extractor
}

// NewComposite creates a Composite extractor.
func NewComposite(attributes, descriptors Extractor) *Composite {
	return &Composite{
		attributes:  attributes,
		descriptors: descriptors,
	}
}

// Detect returns the attribute detections, each enriched with the descriptor of
// the best overlapping descriptor detection. Unpaired descriptor detections are
// appended unchanged so face counts are never understated.
func (c *Composite) Detect(ctx context.Context, frame []byte) ([]Detection, error) {
	var attrs, descs []Detection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attrs, err = c.attributes.Detect(gctx, frame)
		if err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		descs, err = c.descriptors.Detect(gctx, frame)
		if err != nil {
			return fmt.Errorf("descriptors: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	used := make([]bool, len(descs))
	merged := make([]Detection, 0, len(attrs))

	for _, a := range attrs {
		best, bestIoU := -1, minPairingIoU
		for i, d := range descs {
			if used[i] {
				continue
			}
			if iou := a.Box.IoU(d.Box); iou >= bestIoU {
				best, bestIoU = i, iou
			}
		}

		if best >= 0 {
			used[best] = true
			a.Descriptor = descs[best].Descriptor
			if a.Landmarks == nil {
				a.Landmarks = descs[best].Landmarks
			}
			if a.Smile == nil {
				a.Smile = descs[best].Smile
			}
		}
		merged = append(merged, a)
	}

	for i, d := range descs {
		if !used[i] {
			merged = append(merged, d)
		}
	}

	return merged, nil
}

var _ Extractor = (*Composite)(nil)
