package dto

import "humandetector/internal/model"

// DetectionResult is one box as the page draws it, in rendered pixels.
type DetectionResult struct {
	Class   string     `json:"class"`
	Score   float64    `json:"score"`
	BBox    [4]float64 `json:"bbox"` // x, y, width, height
	Caption string     `json:"caption"`
}

func NewDetectionResults(detections []model.RescaledDetection) []DetectionResult {
	results := make([]DetectionResult, 0, len(detections))
	for _, d := range detections {
		results = append(results, DetectionResult{
			Class:   d.Label,
			Score:   d.Confidence,
			BBox:    [4]float64{d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height},
			Caption: d.Caption(),
		})
	}
	return results
}
