package detection

import (
	"context"
	"image"

	"humandetector/internal/model"
)

// Model is a loaded detector. Detect returns at most maxResults detections
// in img's own pixel coordinates, in the detector's ranking order.
type Model interface {
	Detect(ctx context.Context, img image.Image, maxResults int) ([]model.Detection, error)
	Close() error
}

// Loader builds a Model. Backend options are bound when the Loader is
// constructed.
type Loader interface {
	Load(ctx context.Context) (Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (Model, error)

func (f LoaderFunc) Load(ctx context.Context) (Model, error) {
	return f(ctx)
}

// Postprocessor filters or modifies raw detections.
type Postprocessor func([]model.Detection) []model.Detection

// NewScoreFilter drops detections below the given confidence.
func NewScoreFilter(minScore float64) Postprocessor {
	return func(in []model.Detection) []model.Detection {
		out := make([]model.Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= minScore {
				out = append(out, d)
			}
		}
		return out
	}
}
