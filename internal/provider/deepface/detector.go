package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Detector implements provider.FaceDetector against a DeepFace server
type Detector struct {
	client  *Client
	quality int
}

// NewDetector creates a new DeepFace detector
func NewDetector(config Config) *Detector {
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = DefaultConfig().JPEGQuality
	}
	return &Detector{
		client:  NewClient(config),
		quality: config.JPEGQuality,
	}
}

// DetectFaces uploads the frame and returns short-layout rows in the server's order
func (d *Detector) DetectFaces(ctx context.Context, img *image.NRGBA) ([]provider.RawFace, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(d.quality)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	resp, err := d.client.Represent(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.RawFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		area := result.FacialArea
		if area.W <= 0 || area.H <= 0 {
			continue
		}
		// without enforce_detection a faceless frame comes back as one
		// whole-image area with zero confidence
		if result.FaceConfidence != nil && *result.FaceConfidence == 0 {
			continue
		}

		confidence := calculateConfidence(float64(area.W * area.H))
		if result.FaceConfidence != nil {
			confidence = *result.FaceConfidence
		}

		faces = append(faces, provider.RawFace{
			float32(area.X),
			float32(area.Y),
			float32(area.W),
			float32(area.H),
			float32(confidence),
		})
	}

	return faces, nil
}

// calculateConfidence estimates confidence from face area for servers that
// do not report face_confidence
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// Ensure Detector implements provider.FaceDetector
var _ provider.FaceDetector = (*Detector)(nil)
