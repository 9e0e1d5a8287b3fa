// Package layout measures the on-screen size of an attached bitmap.
package layout

import (
	"math"

	"humandetector/internal/model"
)

// Layout reports the rendered size of a bitmap with the given natural size.
// It must only be consulted once the bitmap is attached to the display.
type Layout interface {
	Measure(natural model.Size) model.Size
}

// Fixed is a rendered size measured by the client itself.
type Fixed model.Size

func (f Fixed) Measure(model.Size) model.Size {
	return model.Size(f)
}

// Fit scales the bitmap down to fit the viewer box, keeping its aspect
// ratio. Images smaller than the box keep their natural size.
type Fit struct {
	MaxWidth  float64
	MaxHeight float64
}

func (f Fit) Measure(natural model.Size) model.Size {
	if natural.Degenerate() {
		return model.Size{}
	}

	scale := 1.0
	if f.MaxWidth > 0 {
		scale = math.Min(scale, f.MaxWidth/natural.Width)
	}
	if f.MaxHeight > 0 {
		scale = math.Min(scale, f.MaxHeight/natural.Height)
	}

	return model.Size{
		Width:  math.Round(natural.Width * scale),
		Height: math.Round(natural.Height * scale),
	}
}
