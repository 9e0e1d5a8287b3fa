package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	// BackendGoCV runs the SSD MobileNet COCO graph in-process through OpenCV DNN.
	BackendGoCV = "gocv"
	// BackendRemote posts images to an HTTP inference service.
	BackendRemote = "remote"
)

type Config struct {
	Port             int     `validate:"min=1,max=65535"`
	DetectorBackend  string  `validate:"oneof=gocv remote"`
	ModelPath        string  `validate:"required_if=DetectorBackend gocv"`
	ConfigPath       string  `validate:"required_if=DetectorBackend gocv"`
	LabelsPath       string  // optional, one label per line
	InferenceURL     string  `validate:"required_if=DetectorBackend remote,omitempty,url"`
	InferenceTimeout int     `validate:"min=1"` // seconds
	MaxDetections    int     `validate:"min=1,max=100"`
	MinScore         float64 `validate:"gte=0,lte=1"`
	MaxUploadMB      int64   `validate:"min=1"`
	DisplayMaxWidth  int     `validate:"min=1"`
	DisplayMaxHeight int     `validate:"min=1"`
	SessionTTL       int     `validate:"min=1"` // minutes
	RateLimit        float64 `validate:"gt=0"`  // uploads per second per client IP
	RateBurst        int     `validate:"min=1"`
	AllowedOrigins   []string
	StaticDirectory  string `validate:"required"`
	LogDirectory     string `validate:"required"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables always win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DetectorBackend:  getEnv("DETECTOR_BACKEND", BackendGoCV),
		ModelPath:        getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:       getEnv("CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		LabelsPath:       getEnv("LABELS_PATH", ""),
		InferenceURL:     getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		InferenceTimeout: getEnvAsInt("INFERENCE_TIMEOUT", 30),
		MaxDetections:    getEnvAsInt("MAX_DETECTIONS", 6), // coco-ssd detect(img, 6)
		MinScore:         getEnvAsFloat("MIN_SCORE", 0.5),
		MaxUploadMB:      getEnvAsInt64("MAX_UPLOAD_MB", 20),
		DisplayMaxWidth:  getEnvAsInt("DISPLAY_MAX_WIDTH", 1152), // 90vw of a 1280px window
		DisplayMaxHeight: getEnvAsInt("DISPLAY_MAX_HEIGHT", 700),
		SessionTTL:       getEnvAsInt("SESSION_TTL", 30),
		RateLimit:        getEnvAsFloat("RATE_LIMIT", 2),
		RateBurst:        getEnvAsInt("RATE_BURST", 5),
		AllowedOrigins:   getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		StaticDirectory:  getEnv("STATIC_DIR", filepath.Join(".", "static")),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// Validate checks the loaded values against the struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// MaxUploadBytes is the request body cap for image uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
