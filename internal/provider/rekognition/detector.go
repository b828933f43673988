package rekognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/disintegration/imaging"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024

	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeThroughput         = "ProvisionedThroughputExceededException"
	errCodeThrottling         = "ThrottlingException"
)

// DetectFacesAPI is the subset of the Rekognition client used by Detector
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Detector implements provider.FaceDetector using the Rekognition DetectFaces API
type Detector struct {
	api DetectFacesAPI
	cfg Config
}

// NewDetector creates a Detector using the AWS default credential chain
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewDetectorWithAPI(rekognition.NewFromConfig(awsCfg), cfg), nil
}

// NewDetectorWithAPI creates a Detector around an existing client
func NewDetectorWithAPI(api DetectFacesAPI, cfg Config) *Detector {
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = DefaultConfig().JPEGQuality
	}
	return &Detector{api: api, cfg: cfg}
}

// DetectFaces uploads the frame and converts each face to the short raw
// layout [x, y, w, h, confidence] in pixels, keeping the service's order.
// Returns an empty slice if no faces are detected (not an error)
func (d *Detector) DetectFaces(ctx context.Context, img *image.NRGBA) ([]provider.RawFace, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(d.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if buf.Len() > maxImageSize {
		return nil, fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, buf.Len(), maxImageSize)
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: buf.Bytes(),
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", classify(err))
	}

	w := float32(img.Bounds().Dx())
	h := float32(img.Bounds().Dy())

	faces := make([]provider.RawFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		box := detail.BoundingBox
		faces = append(faces, provider.RawFace{
			aws.ToFloat32(box.Left) * w,
			aws.ToFloat32(box.Top) * h,
			aws.ToFloat32(box.Width) * w,
			aws.ToFloat32(box.Height) * h,
			aws.ToFloat32(detail.Confidence) / 100,
		})
	}

	return faces, nil
}

// classify maps AWS API error codes onto package sentinels
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
	case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
		return fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage())
	case errCodeThroughput, errCodeThrottling:
		return fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
	}
	return err
}

// Ensure Detector implements provider.FaceDetector interface at compile time
var _ provider.FaceDetector = (*Detector)(nil)
