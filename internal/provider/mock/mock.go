package mock

import (
	"context"
	"image"
	"image/color"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

// Box is a face rectangle in ratios of the frame size
type Box struct {
	X, Y, Width, Height float32
	Confidence          float32
}

// CenterFace is a single face covering the middle of the frame
var CenterFace = Box{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8, Confidence: 0.99}

// Detector implements provider.FaceDetector for tests and development
type Detector struct {
	boxes []Box

	// Err, when set, is returned by every call
	Err error
}

// NewDetector returns a Detector reporting boxes on every frame, none if empty
func NewDetector(boxes ...Box) *Detector {
	return &Detector{boxes: boxes}
}

// DetectFaces scales the configured boxes to the frame in the short raw layout
func (d *Detector) DetectFaces(ctx context.Context, img *image.NRGBA) ([]provider.RawFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}

	w := float32(img.Bounds().Dx())
	h := float32(img.Bounds().Dy())

	faces := make([]provider.RawFace, 0, len(d.boxes))
	for _, b := range d.boxes {
		faces = append(faces, provider.RawFace{b.X * w, b.Y * h, b.Width * w, b.Height * h, b.Confidence})
	}
	return faces, nil
}

// Predicate decides whether a pixel belongs to the person
type Predicate func(x, y int, c color.NRGBA) bool

// Segmenter implements provider.PersonSegmenter with a pixel predicate
type Segmenter struct {
	predicate Predicate

	// Err, when set, is returned by every call
	Err error
}

// NewSegmenter returns a Segmenter; a nil predicate marks every pixel as background
func NewSegmenter(p Predicate) *Segmenter {
	return &Segmenter{predicate: p}
}

// SegmentPerson evaluates the predicate at every pixel
func (s *Segmenter) SegmentPerson(ctx context.Context, img *image.NRGBA) (*provider.Mask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	b := img.Bounds()
	mask := provider.NewMask(b.Dx(), b.Dy())
	if s.predicate == nil {
		return mask, nil
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			mask.Set(x, y, s.predicate(x, y, c))
		}
	}
	return mask, nil
}

// Rect returns a predicate selecting the pixels inside r
func Rect(r image.Rectangle) Predicate {
	return func(x, y int, _ color.NRGBA) bool {
		return image.Pt(x, y).In(r)
	}
}

var (
	_ provider.FaceDetector    = (*Detector)(nil)
	_ provider.PersonSegmenter = (*Segmenter)(nil)
)
