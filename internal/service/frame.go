package service

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/domain"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

// FrameProcessor turns model output into detection records and composites
type FrameProcessor struct {
	faces     provider.FaceDetector
	segmenter provider.PersonSegmenter
}

func NewFrameProcessor(faces provider.FaceDetector, segmenter provider.PersonSegmenter) *FrameProcessor {
	return &FrameProcessor{
		faces:     faces,
		segmenter: segmenter,
	}
}

// DetectFaces returns normalized face records in the detector's order
func (p *FrameProcessor) DetectFaces(ctx context.Context, img *image.NRGBA) ([]domain.Detection, error) {
	img = atOrigin(img)

	raws, err := p.faces.DetectFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	return normalizeFaces(raws, img.Bounds().Dx(), img.Bounds().Dy()), nil
}

// GrayscaleBackgroundWithFaces desaturates the frame except inside face boxes
func (p *FrameProcessor) GrayscaleBackgroundWithFaces(ctx context.Context, img *image.NRGBA) (*image.NRGBA, []domain.Detection, error) {
	img = atOrigin(img)

	raws, err := p.faces.DetectFaces(ctx, img)
	if err != nil {
		return nil, nil, fmt.Errorf("detect faces: %w", err)
	}

	out := imaging.Grayscale(img)
	for _, f := range raws {
		r := pixelRect(f, img.Bounds())
		if r.Empty() {
			continue
		}
		out = imaging.Paste(out, imaging.Crop(img, r), r.Min)
	}

	return out, normalizeFaces(raws, img.Bounds().Dx(), img.Bounds().Dy()), nil
}

// GrayscaleBackgroundWithPerson keeps person pixels in color over a grayscale
// background. The person record, when present, precedes the faces.
func (p *FrameProcessor) GrayscaleBackgroundWithPerson(ctx context.Context, img *image.NRGBA) (*image.NRGBA, []domain.Detection, error) {
	img = atOrigin(img)

	var (
		mask  *provider.Mask
		faces []domain.Detection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := p.segmenter.SegmentPerson(gctx, img)
		if err != nil {
			return fmt.Errorf("segment person: %w", err)
		}
		mask = m
		return nil
	})
	g.Go(func() error {
		d, err := p.DetectFaces(gctx, img)
		faces = d
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if err := mask.Matches(img.Bounds()); err != nil {
		return nil, nil, fmt.Errorf("segment person: %w", err)
	}

	out := composite(img, mask)

	detections := make([]domain.Detection, 0, len(faces)+1)
	if cov := mask.Coverage(); cov > domain.MinPersonCoverage {
		detections = append(detections, domain.NewPerson(cov))
	}
	detections = append(detections, faces...)

	return out, detections, nil
}

// composite takes the original pixel where mask is set and the grayscale one elsewhere
func composite(img *image.NRGBA, mask *provider.Mask) *image.NRGBA {
	out := imaging.Grayscale(img)
	w, h := mask.Width, mask.Height

	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		row := mask.Pix[y*w : (y+1)*w]
		for x, fg := range row {
			if fg != 0 {
				copy(dst[x*4:x*4+4], src[x*4:x*4+4])
			}
		}
	}
	return out
}

func normalizeFaces(raws []provider.RawFace, width, height int) []domain.Detection {
	out := make([]domain.Detection, 0, len(raws))
	if width == 0 || height == 0 {
		return out
	}

	W, H := float64(width), float64(height)
	for i, f := range raws {
		x, y, w, h := f.Box()
		x0, y0 := clamp(x, 0, W), clamp(y, 0, H)
		x1, y1 := clamp(x+w, 0, W), clamp(y+h, 0, H)

		out = append(out, domain.NewFace(i,
			x0/W,
			y0/H,
			math.Max(x1-x0, 0)/W,
			math.Max(y1-y0, 0)/H,
			f.Confidence(),
		))
	}
	return out
}

// pixelRect truncates the raw box to integer pixels and clips it to bounds
func pixelRect(f provider.RawFace, bounds image.Rectangle) image.Rectangle {
	x, y, w, h := f.Box()
	x0, y0 := int(x), int(y)
	return image.Rect(x0, y0, x0+int(w), y0+int(h)).Intersect(bounds)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// atOrigin rebases img so its bounds start at (0, 0)
func atOrigin(img *image.NRGBA) *image.NRGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return imaging.Clone(img)
}
