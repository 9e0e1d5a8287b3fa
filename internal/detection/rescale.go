package detection

import (
	"errors"
	"fmt"

	"humandetector/internal/model"
)

var (
	// ErrInvalidDimensions is returned when the natural or rendered size has
	// no area, so boxes cannot be mapped between them.
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	// ErrDetectorUnavailable is returned when the model cannot be loaded or
	// fails during inference.
	ErrDetectorUnavailable = errors.New("detector unavailable")
)

// Rescale maps every box from natural to rendered coordinates with a
// per-axis scale. The input is left untouched and order is preserved.
func Rescale(detections []model.Detection, natural, rendered model.Size) ([]model.RescaledDetection, error) {
	if natural.Degenerate() {
		return nil, fmt.Errorf("%w: natural size %v", ErrInvalidDimensions, natural)
	}
	if rendered.Degenerate() {
		return nil, fmt.Errorf("%w: rendered size %v", ErrInvalidDimensions, rendered)
	}

	scaleX := rendered.Width / natural.Width
	scaleY := rendered.Height / natural.Height

	out := make([]model.RescaledDetection, 0, len(detections))
	for _, det := range detections {
		out = append(out, model.RescaledDetection{Detection: model.Detection{
			Label:      det.Label,
			Confidence: det.Confidence,
			Box: model.Box{
				X:      det.Box.X * scaleX,
				Y:      det.Box.Y * scaleY,
				Width:  det.Box.Width * scaleX,
				Height: det.Box.Height * scaleY,
			},
		}})
	}
	return out, nil
}

// Partition splits detections into person and non-person entries. Relative
// order inside each partition follows the input.
func Partition(detections []model.RescaledDetection) (persons, others []model.RescaledDetection) {
	persons = make([]model.RescaledDetection, 0, len(detections))
	others = make([]model.RescaledDetection, 0, len(detections))
	for _, det := range detections {
		if det.IsPerson() {
			persons = append(persons, det)
		} else {
			others = append(others, det)
		}
	}
	return persons, others
}
