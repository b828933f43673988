package provider

import (
	"context"
	"fmt"
	"image"
)

// FaceDetector locates faces in a frame.
type FaceDetector interface {
	// DetectFaces returns one raw vector per face, in pixel space of img.
	// The detector sizes its input from img on every call.
	DetectFaces(ctx context.Context, img *image.NRGBA) ([]RawFace, error)
}

// PersonSegmenter classifies every pixel of a frame as person or background.
type PersonSegmenter interface {
	// SegmentPerson returns a mask with the same dimensions as img.
	SegmentPerson(ctx context.Context, img *image.NRGBA) (*Mask, error)
}

// Raw vector offsets.
const (
	// ScoreIndex is where the confidence lives in the long (YuNet) layout:
	// box (4), five landmarks (10), score.
	ScoreIndex = 14
	// FallbackScoreIndex is the confidence offset in the short layout [x, y, w, h, score].
	FallbackScoreIndex = 4
)

// RawFace is a detector output row. The first four values are the top-left
// corner, width and height in pixels.
type RawFace []float32

// Box returns the pixel-space box of the face.
func (f RawFace) Box() (x, y, w, h float64) {
	if len(f) < 4 {
		return 0, 0, 0, 0
	}
	return float64(f[0]), float64(f[1]), float64(f[2]), float64(f[3])
}

// Confidence reads the score at ScoreIndex, or at FallbackScoreIndex when the
// vector is too short to carry landmarks.
func (f RawFace) Confidence() float64 {
	if len(f) > ScoreIndex {
		return float64(f[ScoreIndex])
	}
	if len(f) > FallbackScoreIndex {
		return float64(f[FallbackScoreIndex])
	}
	return 0
}

// Mask is a binary per-pixel foreground map, row-major, 1 = person.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Foreground reports whether (x, y) belongs to the person.
func (m *Mask) Foreground(x, y int) bool {
	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, fg bool) {
	var v uint8
	if fg {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// ForegroundCount counts foreground pixels.
func (m *Mask) ForegroundCount() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Coverage is the foreground fraction of the mask.
func (m *Mask) Coverage() float64 {
	total := m.Width * m.Height
	if total == 0 {
		return 0
	}
	return float64(m.ForegroundCount()) / float64(total)
}

// Matches checks that the mask is aligned with bounds.
func (m *Mask) Matches(bounds image.Rectangle) error {
	if m.Width != bounds.Dx() || m.Height != bounds.Dy() || len(m.Pix) != m.Width*m.Height {
		return fmt.Errorf("mask %dx%d does not match image %dx%d", m.Width, m.Height, bounds.Dx(), bounds.Dy())
	}
	return nil
}

// PoolStats is a snapshot of a model session pool.
type PoolStats struct {
	Name            string `json:"name"`
	Size            int    `json:"pool_size"`
	InUse           int    `json:"sessions_in_use"`
	TotalAcquired   int64  `json:"total_acquired"`
	TotalReleased   int64  `json:"total_released"`
	AcquireFailures int64  `json:"acquire_failures"`
}

// StatsReporter is implemented by backends that hold pooled sessions.
type StatsReporter interface {
	PoolStats() PoolStats
}
