package face

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/config"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/humanseg"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/onnx"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/rekognition"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/yunet"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provision"
)

// DetectorType selects the face detection backend
type DetectorType string

const (
	// DetectorYuNet runs the YuNet ONNX model in-process
	DetectorYuNet DetectorType = "yunet"
	// DetectorRekognition delegates detection to AWS Rekognition
	DetectorRekognition DetectorType = "rekognition"
	// DetectorDeepFace delegates detection to a DeepFace HTTP server
	DetectorDeepFace DetectorType = "deepface"
	// DetectorMock returns no faces, for dev/test
	DetectorMock DetectorType = "mock"
)

// SegmenterType selects the person segmentation backend
type SegmenterType string

const (
	// SegmenterONNX runs the PP-HumanSeg ONNX model in-process
	SegmenterONNX SegmenterType = "onnx"
	// SegmenterMock marks every pixel as background, for dev/test
	SegmenterMock SegmenterType = "mock"
)

// Host owns the models loaded for the lifetime of the process
type Host struct {
	Faces     provider.FaceDetector
	Segmenter provider.PersonSegmenter

	closers   []io.Closer
	reporters []provider.StatsReporter
	ortReady  bool
}

// NewHost provisions model files and builds the configured backends.
//
// Environment variables:
//   - FACE_DETECTOR: "yunet", "rekognition", "deepface" or "mock" (default: "yunet")
//   - SEGMENTER: "onnx" or "mock" (default: "onnx")
//   - MODELS_DIR: directory holding the weight files (default: "models")
//   - ONNXRUNTIME_LIB: path to the onnxruntime shared library
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
func NewHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Host, error) {
	detector := DetectorType(cfg.FaceDetector)
	switch detector {
	case DetectorYuNet, DetectorRekognition, DetectorDeepFace, DetectorMock:
	default:
		return nil, fmt.Errorf("unknown face detector: %s (supported: %s, %s, %s, %s)",
			cfg.FaceDetector, DetectorYuNet, DetectorRekognition, DetectorDeepFace, DetectorMock)
	}

	segmenter := SegmenterType(cfg.Segmenter)
	switch segmenter {
	case SegmenterONNX, SegmenterMock:
	default:
		return nil, fmt.Errorf("unknown segmenter: %s (supported: %s, %s)",
			cfg.Segmenter, SegmenterONNX, SegmenterMock)
	}

	h := &Host{}

	if detector == DetectorYuNet || segmenter == SegmenterONNX {
		if err := provisionModels(ctx, cfg, detector, segmenter, logger); err != nil {
			return nil, err
		}
		if err := onnx.InitEnvironment(cfg.ONNXRuntimeLib); err != nil {
			return nil, fmt.Errorf("init onnxruntime: %w", err)
		}
		h.ortReady = true
	}

	if err := h.buildDetector(ctx, cfg, detector); err != nil {
		_ = h.Close()
		return nil, err
	}
	if err := h.buildSegmenter(cfg, segmenter); err != nil {
		_ = h.Close()
		return nil, err
	}

	logger.Info("model host ready",
		slog.String("face_detector", string(detector)),
		slog.String("segmenter", string(segmenter)),
		slog.Int("pool_size", cfg.PoolSize),
	)

	return h, nil
}

// Provision fetches or checks the weight files the configured backends need
// without loading them.
func Provision(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	return provisionModels(ctx, cfg, DetectorType(cfg.FaceDetector), SegmenterType(cfg.Segmenter), logger)
}

func provisionModels(ctx context.Context, cfg *config.Config, detector DetectorType, segmenter SegmenterType, logger *slog.Logger) error {
	p := provision.New(cfg.DownloadTimeout, logger)

	if segmenter == SegmenterONNX {
		asset := provision.Asset{Name: "segmenter", Path: cfg.SegmenterPath(), URL: cfg.SegmenterModelURL}
		if err := p.Ensure(ctx, asset); err != nil {
			return fmt.Errorf("provision segmenter: %w", err)
		}
	}
	if detector == DetectorYuNet {
		asset := provision.Asset{Name: "face detector", Path: cfg.YuNetPath()}
		if err := p.Ensure(ctx, asset); err != nil {
			return fmt.Errorf("provision face detector: %w", err)
		}
	}
	return nil
}

func (h *Host) buildDetector(ctx context.Context, cfg *config.Config, t DetectorType) error {
	switch t {
	case DetectorYuNet:
		d, err := yunet.NewDetector(yunet.Config{
			ModelPath:      cfg.YuNetPath(),
			ScoreThreshold: float32(cfg.YuNetScoreThreshold),
			NMSThreshold:   float32(cfg.YuNetNMSThreshold),
			TopK:           cfg.YuNetTopK,
			InputWidth:     cfg.YuNetInputWidth,
			InputHeight:    cfg.YuNetInputHeight,
			PoolSize:       cfg.PoolSize,
			Threads:        cfg.ModelThreads,
		})
		if err != nil {
			return err
		}
		h.Faces = d
		h.track(d)

	case DetectorRekognition:
		rcfg := rekognition.DefaultConfig()
		rcfg.Region = cfg.AWSRegion
		d, err := rekognition.NewDetector(ctx, rcfg)
		if err != nil {
			return fmt.Errorf("create rekognition detector: %w", err)
		}
		h.Faces = d

	case DetectorDeepFace:
		dcfg := deepface.DefaultConfig()
		if cfg.DeepFaceURL != "" {
			dcfg.BaseURL = cfg.DeepFaceURL
		}
		if cfg.DeepFaceDetector != "" {
			dcfg.Detector = cfg.DeepFaceDetector
		}
		dcfg.RetryCount = cfg.DeepFaceRetries
		h.Faces = deepface.NewDetector(dcfg)

	case DetectorMock:
		h.Faces = mock.NewDetector()
	}
	return nil
}

func (h *Host) buildSegmenter(cfg *config.Config, t SegmenterType) error {
	switch t {
	case SegmenterONNX:
		scfg := humanseg.DefaultConfig()
		scfg.ModelPath = cfg.SegmenterPath()
		scfg.InputWidth = cfg.SegmenterInputWidth
		scfg.InputHeight = cfg.SegmenterInputHeight
		scfg.PoolSize = cfg.PoolSize
		scfg.Threads = cfg.ModelThreads

		s, err := humanseg.NewSegmenter(scfg)
		if err != nil {
			return err
		}
		h.Segmenter = s
		h.track(s)

	case SegmenterMock:
		h.Segmenter = mock.NewSegmenter(nil)
	}
	return nil
}

func (h *Host) track(backend any) {
	if c, ok := backend.(io.Closer); ok {
		h.closers = append(h.closers, c)
	}
	if r, ok := backend.(provider.StatsReporter); ok {
		h.reporters = append(h.reporters, r)
	}
}

// Stats snapshots every pooled backend
func (h *Host) Stats() []provider.PoolStats {
	stats := make([]provider.PoolStats, 0, len(h.reporters))
	for _, r := range h.reporters {
		stats = append(stats, r.PoolStats())
	}
	return stats
}

// Close releases model sessions and the onnxruntime environment
func (h *Host) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	h.reporters = nil

	if h.ortReady {
		if err := onnx.DestroyEnvironment(); err != nil {
			errs = append(errs, err)
		}
		h.ortReady = false
	}
	return errors.Join(errs...)
}
