package model

import (
	"fmt"
	"math"
)

// PersonLabel is the detector class that gets the person treatment.
const PersonLabel = "person"

// Size is a pixel width/height pair. It describes both the natural
// (decoded) size of an image and its rendered (on-screen) size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Degenerate reports whether the size has no usable area.
func (s Size) Degenerate() bool {
	return !(s.Width > 0) || !(s.Height > 0) || math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0)
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// Box is an axis-aligned rectangle: top-left corner plus extent.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one object reported by the detector, in the coordinate
// space of the image the detector was given.
type Detection struct {
	Label      string  `json:"class"`
	Confidence float64 `json:"score"`
	Box        Box     `json:"box"`
}

// IsPerson reports whether the detection belongs to the person partition.
func (d Detection) IsPerson() bool {
	return d.Label == PersonLabel
}

// Caption is the overlay label, e.g. "person 87.0%".
func (d Detection) Caption() string {
	return fmt.Sprintf("%s %.1f%%", d.Label, d.Confidence*100)
}

// RescaledDetection is a Detection whose box has been mapped from natural
// to rendered coordinates.
type RescaledDetection struct {
	Detection
}
