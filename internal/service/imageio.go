package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// JPEGQuality is the quality of processed frames
const JPEGQuality = 75

const jpegDataURIPrefix = "data:image/jpeg;base64,"

// DecodeRGB decodes any supported image format into opaque NRGBA at the origin
func DecodeRGB(r io.Reader) (*image.NRGBA, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := imaging.Clone(src)
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode image: empty image")
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img, nil
}

// EncodeJPEG encodes img at the given quality
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGDataURI encodes img as a base64 JPEG data URI
func JPEGDataURI(img image.Image) (string, error) {
	data, err := EncodeJPEG(img, JPEGQuality)
	if err != nil {
		return "", err
	}
	return jpegDataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}
