// Package ai runs the SSD MobileNet COCO graph in-process with OpenCV DNN.
package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"humandetector/internal/config"
	"humandetector/internal/detection"
	"humandetector/internal/logger"
	"humandetector/internal/model"
)

// SSD MobileNet input geometry.
const (
	inputSize  = 300
	inputScale = 1.0 / 127.5
	inputMean  = 127.5
)

// Loader reads the network from the configured model and config files.
type Loader struct {
	modelPath  string
	configPath string
	labelsPath string
	minScore   float64
	logger     *logger.Logger
}

func NewLoader(config *config.Config, logger *logger.Logger) *Loader {
	return &Loader{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		labelsPath: config.LabelsPath,
		minScore:   config.MinScore,
		logger:     logger,
	}
}

// Load initializes the DNN network and sets backend/target preferences.
func (l *Loader) Load(ctx context.Context) (detection.Model, error) {
	if _, err := os.Stat(l.modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", l.modelPath)
	}
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", l.configPath)
	}

	labels := detection.COCOLabels()
	if l.labelsPath != "" {
		loaded, err := detection.LoadLabels(l.labelsPath)
		if err != nil {
			return nil, err
		}
		labels = loaded
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	net := gocv.ReadNet(l.modelPath, l.configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", l.modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	l.logger.Info("Detection network initialized from %s (%d labels)", l.modelPath, len(labels))
	return &Detector{
		net:    net,
		labels: labels,
		filter: detection.NewScoreFilter(l.minScore),
		logger: l.logger,
	}, nil
}

// Detector is a loaded network. The underlying net is not safe for
// concurrent use, so Detect calls are serialized.
type Detector struct {
	mu     sync.Mutex
	net    gocv.Net
	labels detection.Labels
	filter detection.Postprocessor
	logger *logger.Logger
}

// Detect returns up to maxResults detections in img's pixel coordinates,
// highest confidence first.
func (d *Detector) Detect(ctx context.Context, img image.Image, maxResults int) ([]model.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("converted image is empty")
	}

	blob := gocv.BlobFromImage(mat, inputScale, image.Pt(inputSize, inputSize),
		gocv.NewScalar(inputMean, inputMean, inputMean, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	cols, rows := float64(mat.Cols()), float64(mat.Rows())

	// Each row: [batch_id, class_id, confidence, x1, y1, x2, y2], corners normalized.
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	results := make([]model.Detection, 0, reshaped.Rows())
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := float64(reshaped.GetFloatAt(i, 2))
		if confidence <= 0 {
			continue
		}
		x1 := clamp01(float64(reshaped.GetFloatAt(i, 3))) * cols
		y1 := clamp01(float64(reshaped.GetFloatAt(i, 4))) * rows
		x2 := clamp01(float64(reshaped.GetFloatAt(i, 5))) * cols
		y2 := clamp01(float64(reshaped.GetFloatAt(i, 6))) * rows

		results = append(results, model.Detection{
			Label:      d.labels.Name(int(reshaped.GetFloatAt(i, 1))),
			Confidence: confidence,
			Box:        model.Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1},
		})
	}

	results = d.filter(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	for _, object := range results {
		d.logger.Info("Detected %s", object.Caption())
	}
	return results, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
