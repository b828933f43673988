package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultSegmenterURL is the fixed location of the person segmentation weights.
const DefaultSegmenterURL = "https://github.com/opencv/opencv_zoo/raw/main/models/human_segmentation_pphumanseg/human_segmentation_pphumanseg_2023mar.onnx"

type Config struct {
	// Server
	Host         string `envconfig:"HOST" default:"0.0.0.0"`
	Port         int    `envconfig:"PORT" default:"8080"`
	Environment  string `envconfig:"ENV" default:"development"`
	MaxImageSize int    `envconfig:"MAX_IMAGE_SIZE" default:"10485760"`

	// Backends
	FaceDetector string `envconfig:"FACE_DETECTOR" default:"yunet"`
	Segmenter    string `envconfig:"SEGMENTER" default:"onnx"`

	// Model storage
	ModelsDir      string `envconfig:"MODELS_DIR" default:"models"`
	ONNXRuntimeLib string `envconfig:"ONNXRUNTIME_LIB" default:"libonnxruntime.so"`
	PoolSize       int    `envconfig:"SESSION_POOL_SIZE" default:"2"`
	ModelThreads   int    `envconfig:"MODEL_THREADS" default:"0"`

	// YuNet face detector
	YuNetModel          string  `envconfig:"YUNET_MODEL" default:"face_detection_yunet_2023mar.onnx"`
	YuNetScoreThreshold float64 `envconfig:"YUNET_SCORE_THRESHOLD" default:"0.9"`
	YuNetNMSThreshold   float64 `envconfig:"YUNET_NMS_THRESHOLD" default:"0.3"`
	YuNetTopK           int     `envconfig:"YUNET_TOP_K" default:"5000"`
	YuNetInputWidth     int     `envconfig:"YUNET_INPUT_WIDTH" default:"0"`
	YuNetInputHeight    int     `envconfig:"YUNET_INPUT_HEIGHT" default:"0"`

	// Person segmenter
	SegmenterModel       string `envconfig:"SEGMENTER_MODEL" default:"human_segmentation_pphumanseg_2023mar.onnx"`
	SegmenterModelURL    string `envconfig:"SEGMENTER_MODEL_URL"`
	SegmenterInputWidth  int    `envconfig:"SEGMENTER_INPUT_WIDTH" default:"192"`
	SegmenterInputHeight int    `envconfig:"SEGMENTER_INPUT_HEIGHT" default:"192"`

	DownloadTimeout time.Duration `envconfig:"MODEL_DOWNLOAD_TIMEOUT" default:"5m"`

	// AWS Rekognition
	AWSRegion string `envconfig:"AWS_REGION" default:"us-east-1"`

	// DeepFace server
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceRetries  int    `envconfig:"DEEPFACE_RETRIES" default:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SegmenterModelURL == "" {
		cfg.SegmenterModelURL = DefaultSegmenterURL
	}
	if cfg.PoolSize <= 0 {
		return nil, fmt.Errorf("load config: SESSION_POOL_SIZE must be positive, got %d", cfg.PoolSize)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// YuNetPath resolves the detector weight file inside ModelsDir.
func (c *Config) YuNetPath() string {
	return c.modelPath(c.YuNetModel)
}

// SegmenterPath resolves the segmenter weight file inside ModelsDir.
func (c *Config) SegmenterPath() string {
	return c.modelPath(c.SegmenterModel)
}

func (c *Config) modelPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ModelsDir, name)
}
