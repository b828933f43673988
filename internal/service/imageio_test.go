package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRGB_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeRGB(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, img.NRGBAAt(2, 1))

	for i := 3; i < len(img.Pix); i += 4 {
		assert.Equal(t, uint8(0xff), img.Pix[i])
	}
}

func TestDecodeRGB_Invalid(t *testing.T) {
	_, err := DecodeRGB(strings.NewReader("definitely not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
}

func TestJPEGDataURI_RoundTrip(t *testing.T) {
	img := solid(16, 9, red)

	uri, err := JPEGDataURI(img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 9, decoded.Bounds().Dy())
}

func TestEncodeJPEG_QualityAffectsSize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 31)
	}

	low, err := EncodeJPEG(img, 10)
	require.NoError(t, err)
	high, err := EncodeJPEG(img, 95)
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
}
