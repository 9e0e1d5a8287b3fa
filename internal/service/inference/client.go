// Package inference talks to an external HTTP detection service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"humandetector/internal/config"
	"humandetector/internal/detection"
	"humandetector/internal/logger"
	"humandetector/internal/model"
)

const jpegQuality = 90

// Loader checks that the inference service is reachable and returns a
// client bound to it.
type Loader struct {
	inferenceURL string
	timeout      time.Duration
	minScore     float64
	logger       *logger.Logger
}

func NewLoader(config *config.Config, logger *logger.Logger) *Loader {
	return &Loader{
		inferenceURL: config.InferenceURL,
		timeout:      time.Duration(config.InferenceTimeout) * time.Second,
		minScore:     config.MinScore,
		logger:       logger,
	}
}

func (l *Loader) Load(ctx context.Context) (detection.Model, error) {
	endpoint, err := url.Parse(l.inferenceURL)
	if err != nil {
		return nil, fmt.Errorf("parse inference url: %w", err)
	}

	client := &Client{
		endpoint: endpoint.String(),
		health:   (&url.URL{Scheme: endpoint.Scheme, Host: endpoint.Host, Path: "/health"}).String(),
		http:     &http.Client{Timeout: l.timeout},
		filter:   detection.NewScoreFilter(l.minScore),
		logger:   l.logger,
	}
	if err := client.CheckHealth(ctx); err != nil {
		return nil, err
	}

	l.logger.Info("Inference service at %s is healthy", client.endpoint)
	return client, nil
}

// Client posts images to the inference service.
type Client struct {
	endpoint string
	health   string
	http     *http.Client
	filter   detection.Postprocessor
	logger   *logger.Logger
}

type wireDetection struct {
	Class string     `json:"class"`
	Score float64    `json:"score"`
	BBox  [4]float64 `json:"bbox"`
}

type wireResponse struct {
	Detections []wireDetection `json:"detections"`
}

// Detect sends img as a JPEG together with maxResults and returns the
// service's detections in img's pixel coordinates.
func (c *Client) Detect(ctx context.Context, img image.Image, maxResults int) ([]model.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if err := writer.WriteField("maxResults", strconv.Itoa(maxResults)); err != nil {
		return nil, fmt.Errorf("write maxResults: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var result wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	detections := make([]model.Detection, 0, len(result.Detections))
	for _, d := range result.Detections {
		detections = append(detections, model.Detection{
			Label:      d.Class,
			Confidence: d.Score,
			Box:        model.Box{X: d.BBox[0], Y: d.BBox[1], Width: d.BBox[2], Height: d.BBox[3]},
		})
	}
	detections = c.filter(detections)
	if maxResults > 0 && len(detections) > maxResults {
		detections = detections[:maxResults]
	}
	return detections, nil
}

// CheckHealth reports whether the service answers its health endpoint.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.health, nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
