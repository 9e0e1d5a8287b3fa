package detection

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"humandetector/internal/logger"
	"humandetector/internal/model"
)

type fakeModel struct {
	detections []model.Detection
	err        error
	lastMax    int
	calls      atomic.Int32
	closed     bool
}

func (m *fakeModel) Detect(ctx context.Context, img image.Image, maxResults int) ([]model.Detection, error) {
	m.calls.Add(1)
	m.lastMax = maxResults
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

func newTestPipeline(loader Loader, max int) *Pipeline {
	return NewPipeline(loader, max, logger.New(&bytes.Buffer{}))
}

func staticLoader(m Model) Loader {
	return LoaderFunc(func(ctx context.Context) (Model, error) { return m, nil })
}

var (
	testImage = image.NewRGBA(image.Rect(0, 0, 640, 480))
	natural   = model.Size{Width: 640, Height: 480}
	rendered  = model.Size{Width: 320, Height: 240}
)

func TestPipeline_Detect(t *testing.T) {
	m := &fakeModel{detections: []model.Detection{
		det("person", 0.87, 100, 50, 200, 150),
		det("dog", 0.66, 0, 0, 64, 48),
	}}
	p := newTestPipeline(staticLoader(m), 6)

	got, err := p.Detect(context.Background(), testImage, natural, rendered)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if m.lastMax != 6 {
		t.Errorf("Expected cap 6 passed to model, got %d", m.lastMax)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(got))
	}
	if got[0].Box != (model.Box{X: 50, Y: 25, Width: 100, Height: 75}) {
		t.Errorf("Unexpected first box %+v", got[0].Box)
	}
	if got[1].Label != "dog" || got[1].Box != (model.Box{X: 0, Y: 0, Width: 32, Height: 24}) {
		t.Errorf("Unexpected second detection %+v", got[1])
	}
	if m.detections[0].Box.X != 100 {
		t.Error("Pipeline mutated the detector output")
	}
}

func TestPipeline_EmptyDetections(t *testing.T) {
	p := newTestPipeline(staticLoader(&fakeModel{}), 6)

	got, err := p.Detect(context.Background(), testImage, natural, rendered)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty list, got %#v", got)
	}
}

func TestPipeline_TruncatesToCap(t *testing.T) {
	var many []model.Detection
	for i := 0; i < 10; i++ {
		many = append(many, det("cup", 0.9-float64(i)*0.01, float64(i), 0, 1, 1))
	}
	p := newTestPipeline(staticLoader(&fakeModel{detections: many}), 3)

	got, err := p.Detect(context.Background(), testImage, natural, natural)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 detections, got %d", len(got))
	}
	for i := range got {
		if got[i].Box.X != float64(i) {
			t.Errorf("Entry %d out of order: %+v", i, got[i])
		}
	}
}

func TestPipeline_InvalidDimensionsSkipsDetector(t *testing.T) {
	m := &fakeModel{}
	p := newTestPipeline(staticLoader(m), 6)

	_, err := p.Detect(context.Background(), testImage, model.Size{Width: 0, Height: 480}, rendered)
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("Expected ErrInvalidDimensions, got %v", err)
	}
	if m.calls.Load() != 0 {
		t.Error("Detector must not run for degenerate sizes")
	}
}

func TestPipeline_LoadsModelOnce(t *testing.T) {
	var loads atomic.Int32
	m := &fakeModel{}
	loader := LoaderFunc(func(ctx context.Context) (Model, error) {
		loads.Add(1)
		return m, nil
	})
	p := newTestPipeline(loader, 6)

	if err := p.Warm(context.Background()); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Detect(context.Background(), testImage, natural, rendered); err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
	}

	if loads.Load() != 1 {
		t.Errorf("Expected 1 model load, got %d", loads.Load())
	}
	if !p.Ready() {
		t.Error("Pipeline should report ready after load")
	}
	if err := p.Close(); err != nil || !m.closed {
		t.Errorf("Expected model to be closed, err=%v", err)
	}
}

func TestPipeline_LoadFailureIsRetried(t *testing.T) {
	var loads atomic.Int32
	loader := LoaderFunc(func(ctx context.Context) (Model, error) {
		if loads.Add(1) == 1 {
			return nil, errors.New("model file not found")
		}
		return &fakeModel{}, nil
	})
	p := newTestPipeline(loader, 6)

	_, err := p.Detect(context.Background(), testImage, natural, rendered)
	if !errors.Is(err, ErrDetectorUnavailable) {
		t.Fatalf("Expected ErrDetectorUnavailable, got %v", err)
	}
	if p.Ready() {
		t.Error("Failed load must not be cached")
	}

	if _, err := p.Detect(context.Background(), testImage, natural, rendered); err != nil {
		t.Fatalf("Expected second run to load the model, got %v", err)
	}
}

func TestPipeline_InferenceFailure(t *testing.T) {
	cause := errors.New("forward pass failed")
	p := newTestPipeline(staticLoader(&fakeModel{err: cause}), 6)

	_, err := p.Detect(context.Background(), testImage, natural, rendered)
	if !errors.Is(err, ErrDetectorUnavailable) {
		t.Fatalf("Expected ErrDetectorUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected cause to be wrapped, got %v", err)
	}
}
