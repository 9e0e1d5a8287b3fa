package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"humandetector/internal/detection"
	"humandetector/internal/model"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func rescaled(label string, score float64, box model.Box) model.RescaledDetection {
	return model.RescaledDetection{Detection: model.Detection{Label: label, Confidence: score, Box: box}}
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestOverlay_SizeAndColors(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	box := model.Box{X: 20, Y: 60, Width: 100, Height: 60}

	out, err := Overlay(solid(400, 300, blue), model.Size{Width: 200, Height: 150}, []model.RescaledDetection{
		rescaled("dog", 0.7, model.Box{X: 140, Y: 100, Width: 40, Height: 40}),
		rescaled("person", 0.87, box),
	})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}

	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Fatalf("Expected 200x150 overlay, got %dx%d", b.Dx(), b.Dy())
	}
	if got := out.At(20, 100); !sameColor(got, PersonStyle.Border) {
		t.Errorf("Expected person border at left edge, got %v", got)
	}
	if got := out.At(140, 120); !sameColor(got, OtherStyle.Border) {
		t.Errorf("Expected other border at dog's left edge, got %v", got)
	}
	if got := out.At(70, 90); !sameColor(got, blue) {
		t.Errorf("Expected box interior to stay transparent, got %v", got)
	}
}

func TestOverlay_PersonsDrawnOnTop(t *testing.T) {
	box := model.Box{X: 20, Y: 60, Width: 100, Height: 60}

	// The other box comes after the person in detector order but must be drawn under it.
	out, err := Overlay(solid(200, 150, color.Black), model.Size{Width: 200, Height: 150}, []model.RescaledDetection{
		rescaled("person", 0.9, box),
		rescaled("chair", 0.8, box),
	})
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if got := out.At(20, 100); !sameColor(got, PersonStyle.Border) {
		t.Errorf("Expected person border on top, got %v", got)
	}
}

func TestOverlay_InvalidSize(t *testing.T) {
	_, err := Overlay(solid(4, 4, color.White), model.Size{}, nil)
	if !errors.Is(err, detection.ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
}

func TestEncodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, solid(8, 6, color.White)); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("Expected 8x6, got %dx%d", cfg.Width, cfg.Height)
	}
}
