package detection

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"humandetector/internal/logger"
	"humandetector/internal/model"
)

// Pipeline runs the detector on a decoded bitmap and maps its output into
// rendered coordinates. The model is loaded once and shared by every run.
type Pipeline struct {
	loader     Loader
	maxResults int
	logger     *logger.Logger

	mu    sync.Mutex
	model Model
}

func NewPipeline(loader Loader, maxResults int, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		loader:     loader,
		maxResults: maxResults,
		logger:     logger,
	}
}

// MaxResults is the per-run detection cap handed to the model.
func (p *Pipeline) MaxResults() int {
	return p.maxResults
}

// Warm loads the model ahead of the first run.
func (p *Pipeline) Warm(ctx context.Context) error {
	_, err := p.loadModel(ctx)
	return err
}

// Ready reports whether a model has been loaded.
func (p *Pipeline) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model != nil
}

// loadModel returns the cached model, loading it on first use. A failed
// load is not cached so the next run tries again.
func (p *Pipeline) loadModel(ctx context.Context) (Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model, nil
	}

	start := time.Now()
	m, err := p.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load model: %w", ErrDetectorUnavailable, err)
	}
	p.model = m
	p.logger.Info("Detection model loaded in %v", time.Since(start))
	return m, nil
}

// Detect runs the model on bitmap, which is natural-sized, and returns the
// detections rescaled to rendered.
func (p *Pipeline) Detect(ctx context.Context, bitmap image.Image, natural, rendered model.Size) ([]model.RescaledDetection, error) {
	if natural.Degenerate() || rendered.Degenerate() {
		return nil, fmt.Errorf("%w: natural %v, rendered %v", ErrInvalidDimensions, natural, rendered)
	}

	m, err := p.loadModel(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := m.Detect(ctx, bitmap, p.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: inference: %w", ErrDetectorUnavailable, err)
	}
	if len(raw) > p.maxResults {
		raw = raw[:p.maxResults]
	}
	p.logger.Info("Detected %d objects in %v", len(raw), time.Since(start))

	return Rescale(raw, natural, rendered)
}

// Close releases the loaded model, if any.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	return err
}
