// Package humanseg runs a person segmentation network (PP-HumanSeg layout by
// default) and upsamples its category map to frame resolution.
package humanseg

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

var (
	ErrEmptyImage   = errors.New("humanseg: empty image")
	ErrModelLayout  = errors.New("humanseg: unsupported model layout")
	errOutputLength = errors.New("humanseg: unexpected output length")
)

// Config holds the segmenter settings.
type Config struct {
	ModelPath   string
	InputWidth  int
	InputHeight int
	Mean        float32
	Std         float32
	PoolSize    int
	Threads     int
}

// DefaultConfig matches the opencv_zoo PP-HumanSeg export.
func DefaultConfig() Config {
	return Config{
		ModelPath:   "models/human_segmentation_pphumanseg_2023mar.onnx",
		InputWidth:  192,
		InputHeight: 192,
		Mean:        0.5,
		Std:         0.5,
		PoolSize:    2,
	}
}

// Segmenter implements provider.PersonSegmenter.
type Segmenter struct {
	cfg      Config
	classes  int
	pool     *onnx.Pool[*ort.DynamicAdvancedSession]
	inShape  ort.Shape
	outShape ort.Shape
}

// NewSegmenter reads the model's declared input and output names, then opens
// cfg.PoolSize sessions. The onnxruntime environment must already be initialized.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		return nil, fmt.Errorf("%w: input size %dx%d", ErrModelLayout, cfg.InputWidth, cfg.InputHeight)
	}
	if cfg.Std == 0 {
		cfg.Std = 1
	}

	info, err := onnx.Inspect(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("create segmenter: %w", err)
	}
	if len(info.Inputs) != 1 || len(info.Outputs) < 1 {
		return nil, fmt.Errorf("%w: %d inputs, %d outputs", ErrModelLayout, len(info.Inputs), len(info.Outputs))
	}

	classes, err := classCount(info.Outputs[0].Shape)
	if err != nil {
		return nil, err
	}

	inputName := info.Inputs[0].Name
	outputName := info.Outputs[0].Name

	pool, err := onnx.NewPool("humanseg", cfg.PoolSize, func() (*ort.DynamicAdvancedSession, error) {
		return onnx.NewSession(cfg.ModelPath, []string{inputName}, []string{outputName}, cfg.Threads)
	})
	if err != nil {
		return nil, fmt.Errorf("create segmenter: %w", err)
	}

	h, w := int64(cfg.InputHeight), int64(cfg.InputWidth)
	return &Segmenter{
		cfg:      cfg,
		classes:  classes,
		pool:     pool,
		inShape:  ort.NewShape(1, 3, h, w),
		outShape: ort.NewShape(1, int64(classes), h, w),
	}, nil
}

// classCount reads C from an NCHW output shape, assuming two classes when the
// dimension is dynamic.
func classCount(shape []int64) (int, error) {
	if len(shape) != 4 {
		return 0, fmt.Errorf("%w: output rank %d, want 4 (NCHW)", ErrModelLayout, len(shape))
	}
	if shape[1] <= 0 {
		return 2, nil
	}
	return int(shape[1]), nil
}

// SegmentPerson returns a mask aligned with img.
func (s *Segmenter) SegmentPerson(ctx context.Context, img *image.NRGBA) (*provider.Mask, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	resized := imaging.Resize(img, s.cfg.InputWidth, s.cfg.InputHeight, imaging.Linear)
	blob := normalize(resized, s.cfg.Mean, s.cfg.Std)

	var out []float32
	err := s.pool.With(ctx, func(session *ort.DynamicAdvancedSession) error {
		outs, runErr := onnx.Run(session, s.inShape, blob, []ort.Shape{s.outShape})
		if runErr != nil {
			return runErr
		}
		out = outs[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("segment person: %w", err)
	}

	low, err := categoryMask(out, s.classes, s.cfg.InputWidth, s.cfg.InputHeight)
	if err != nil {
		return nil, fmt.Errorf("segment person: %w", err)
	}

	return upsample(low, b.Dx(), b.Dy()), nil
}

// PoolStats implements provider.StatsReporter.
func (s *Segmenter) PoolStats() provider.PoolStats {
	return s.pool.PoolStats()
}

// Close destroys all sessions.
func (s *Segmenter) Close() error {
	s.pool.Destroy()
	return nil
}

// normalize lays img out as RGB planes scaled to (v/255 - mean) / std.
func normalize(img *image.NRGBA, mean, std float32) []float32 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	plane := w * h
	blob := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4:]
			i := y*w + x
			blob[i] = (float32(px[0])/255 - mean) / std
			blob[plane+i] = (float32(px[1])/255 - mean) / std
			blob[2*plane+i] = (float32(px[2])/255 - mean) / std
		}
	}
	return blob
}

// categoryMask reduces an NCHW score map to a binary mask. A single channel
// is a foreground probability; otherwise category 0 is background and the
// argmax decides.
func categoryMask(scores []float32, classes, w, h int) (*provider.Mask, error) {
	plane := w * h
	if len(scores) != classes*plane {
		return nil, fmt.Errorf("%w: got %d, want %d", errOutputLength, len(scores), classes*plane)
	}

	mask := provider.NewMask(w, h)
	for i := 0; i < plane; i++ {
		if classes == 1 {
			if scores[i] > 0.5 {
				mask.Pix[i] = 1
			}
			continue
		}

		best := 0
		for c := 1; c < classes; c++ {
			if scores[c*plane+i] > scores[best*plane+i] {
				best = c
			}
		}
		if best != 0 {
			mask.Pix[i] = 1
		}
	}
	return mask, nil
}

// upsample resizes a mask with nearest-neighbour sampling.
func upsample(m *provider.Mask, w, h int) *provider.Mask {
	if m.Width == w && m.Height == h {
		return m
	}

	gray := &image.Gray{
		Pix:    make([]uint8, len(m.Pix)),
		Stride: m.Width,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
	for i, v := range m.Pix {
		if v != 0 {
			gray.Pix[i] = 255
		}
	}

	scaled := imaging.Resize(gray, w, h, imaging.NearestNeighbor)

	out := provider.NewMask(w, h)
	for y := 0; y < h; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		for x := 0; x < w; x++ {
			if row[x*4] >= 128 {
				out.Pix[y*w+x] = 1
			}
		}
	}
	return out
}

var _ provider.PersonSegmenter = (*Segmenter)(nil)
