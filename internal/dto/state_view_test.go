package dto

import (
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"humandetector/internal/intake"
	"humandetector/internal/model"
	"humandetector/internal/viewer"
)

var testBitmap = &intake.Bitmap{
	Name:    "street.png",
	MIME:    "image/png",
	Data:    []byte{1, 2, 3},
	Image:   image.NewRGBA(image.Rect(0, 0, 640, 480)),
	Natural: model.Size{Width: 640, Height: 480},
}

func TestNewStateView_Idle(t *testing.T) {
	view := NewStateView("s1", viewer.Idle{})

	if view.Phase != "idle" || view.Seq != 0 || view.Busy {
		t.Errorf("Unexpected idle view %+v", view)
	}
	if view.Image != nil || view.Error != nil {
		t.Error("Idle view must have no image and no error")
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"persons":[]`) || !strings.Contains(string(data), `"objects":[]`) {
		t.Errorf("Expected empty partitions in JSON, got %s", data)
	}
}

func TestNewStateView_Ready(t *testing.T) {
	st := viewer.Ready{
		Sequence: 3,
		Bitmap:   testBitmap,
		Rendered: model.Size{Width: 320, Height: 240},
		Detections: []model.RescaledDetection{
			{Detection: model.Detection{Label: "person", Confidence: 0.87, Box: model.Box{X: 50, Y: 25, Width: 100, Height: 75}}},
			{Detection: model.Detection{Label: "dog", Confidence: 0.5, Box: model.Box{X: 1, Y: 2, Width: 3, Height: 4}}},
		},
	}

	view := NewStateView("s1", st)

	want := []DetectionResult{{Class: "person", Score: 0.87, BBox: [4]float64{50, 25, 100, 75}, Caption: "person 87.0%"}}
	if diff := cmp.Diff(want, view.Persons); diff != "" {
		t.Errorf("Persons mismatch (-want +got):\n%s", diff)
	}
	if len(view.Objects) != 1 || view.Objects[0].Class != "dog" {
		t.Errorf("Expected dog in objects, got %+v", view.Objects)
	}
	if view.Image.RenderedWidth != 320 || view.Image.NaturalHeight != 480 {
		t.Errorf("Unexpected image info %+v", view.Image)
	}
	if !strings.HasPrefix(view.Image.DataURL, "data:image/png;base64,") {
		t.Errorf("Unexpected data URL %q", view.Image.DataURL)
	}
}

func TestNewStateView_FailedKeepsImage(t *testing.T) {
	st := viewer.Failed{
		Sequence: 2,
		Kind:     viewer.FailureInvalidDimensions,
		Err:      errors.New("zero size"),
		Bitmap:   testBitmap,
	}

	view := NewStateView("s1", st)

	if view.Phase != "failed" || view.Error == nil || view.Error.Kind != "invalid_dimensions" {
		t.Errorf("Unexpected failed view %+v", view)
	}
	if view.Image == nil {
		t.Error("Expected image to stay on display")
	}
	if len(view.Persons) != 0 || len(view.Objects) != 0 {
		t.Error("Failed view must have no boxes")
	}
}

func TestNewStateView_Busy(t *testing.T) {
	if !NewStateView("s1", viewer.Decoding{Sequence: 1}).Busy {
		t.Error("Decoding must be busy")
	}
	view := NewStateView("s1", viewer.Detecting{Sequence: 1, Bitmap: testBitmap})
	if !view.Busy || view.Image == nil {
		t.Errorf("Detecting must be busy with image shown, got %+v", view)
	}
}
