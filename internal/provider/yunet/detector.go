package yunet

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider/onnx"
)

// ErrEmptyImage is returned for frames with no pixels.
var ErrEmptyImage = errors.New("yunet: empty image")

const inputName = "input"

// Config holds the detector settings.
type Config struct {
	ModelPath      string
	ScoreThreshold float32
	NMSThreshold   float32
	TopK           int

	// InputWidth and InputHeight pin the network input size for models
	// exported with static shapes. Zero means the frame's own size, padded
	// to a multiple of 32.
	InputWidth  int
	InputHeight int

	PoolSize int
	Threads  int
}

// DefaultConfig mirrors the reference FaceDetectorYN settings.
func DefaultConfig() Config {
	return Config{
		ModelPath:      "models/face_detection_yunet_2023mar.onnx",
		ScoreThreshold: 0.9,
		NMSThreshold:   0.3,
		TopK:           5000,
		PoolSize:       2,
	}
}

// Detector implements provider.FaceDetector with the YuNet ONNX model.
type Detector struct {
	cfg  Config
	pool *onnx.Pool[*ort.DynamicAdvancedSession]
}

// NewDetector opens cfg.PoolSize sessions. The onnxruntime environment must
// already be initialized.
func NewDetector(cfg Config) (*Detector, error) {
	if (cfg.InputWidth == 0) != (cfg.InputHeight == 0) {
		return nil, fmt.Errorf("yunet: input width and height must both be set or both be zero")
	}

	pool, err := onnx.NewPool("yunet", cfg.PoolSize, func() (*ort.DynamicAdvancedSession, error) {
		return onnx.NewSession(cfg.ModelPath, []string{inputName}, outputNames(), cfg.Threads)
	})
	if err != nil {
		return nil, fmt.Errorf("create yunet detector: %w", err)
	}

	return &Detector{cfg: cfg, pool: pool}, nil
}

// DetectFaces runs the model sized to img and returns rows in descending
// score order.
func (d *Detector) DetectFaces(ctx context.Context, img *image.NRGBA) ([]provider.RawFace, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	frame, sx, sy := d.fit(img)
	netW, netH := padTo32(frame.Bounds().Dx()), padTo32(frame.Bounds().Dy())
	blob := toBlob(frame, netW, netH)

	shapes := make([]ort.Shape, 0, 4*len(strides))
	for _, width := range []int64{1, 1, 4, 10} {
		for _, s := range strides {
			shapes = append(shapes, ort.NewShape(1, int64(cells(netW, netH, s)), width))
		}
	}

	var outs [][]float32
	err := d.pool.With(ctx, func(session *ort.DynamicAdvancedSession) error {
		var runErr error
		outs, runErr = onnx.Run(session, ort.NewShape(1, 3, int64(netH), int64(netW)), blob, shapes)
		return runErr
	})
	if err != nil {
		return nil, fmt.Errorf("yunet detect: %w", err)
	}

	faces := suppress(decode(outs, netW, netH, d.cfg.ScoreThreshold), d.cfg.NMSThreshold, d.cfg.TopK)
	rescale(faces, sx, sy)
	return faces, nil
}

// fit resizes img to the pinned input size, returning the factors that map
// network coordinates back to img.
func (d *Detector) fit(img *image.NRGBA) (*image.NRGBA, float32, float32) {
	if d.cfg.InputWidth == 0 {
		return img, 1, 1
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	resized := imaging.Resize(img, d.cfg.InputWidth, d.cfg.InputHeight, imaging.Linear)
	return resized, float32(w) / float32(d.cfg.InputWidth), float32(h) / float32(d.cfg.InputHeight)
}

// PoolStats implements provider.StatsReporter.
func (d *Detector) PoolStats() provider.PoolStats {
	return d.pool.PoolStats()
}

// Close destroys all sessions.
func (d *Detector) Close() error {
	d.pool.Destroy()
	return nil
}

func padTo32(v int) int {
	return (v + 31) / 32 * 32
}

// toBlob lays img out as BGR float planes (values 0..255) on a zeroed
// netW x netH canvas anchored at the top-left corner.
func toBlob(img *image.NRGBA, netW, netH int) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := netW * netH
	blob := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4:]
			i := y*netW + x
			blob[i] = float32(px[2])
			blob[plane+i] = float32(px[1])
			blob[2*plane+i] = float32(px[0])
		}
	}
	return blob
}

var _ provider.FaceDetector = (*Detector)(nil)
