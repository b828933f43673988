package mock

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_DetectFaces(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	ctx := context.Background()

	tests := []struct {
		name      string
		boxes     []Box
		wantFaces int
	}{
		{name: "no faces", boxes: nil, wantFaces: 0},
		{name: "one face", boxes: []Box{CenterFace}, wantFaces: 1},
		{name: "two faces", boxes: []Box{CenterFace, {X: 0, Y: 0, Width: 0.1, Height: 0.1, Confidence: 0.5}}, wantFaces: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := NewDetector(tt.boxes...).DetectFaces(ctx, img)
			require.NoError(t, err)
			assert.NotNil(t, faces)
			assert.Len(t, faces, tt.wantFaces)
		})
	}
}

func TestDetector_ScalesToFrame(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))

	faces, err := NewDetector(CenterFace).DetectFaces(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, faces, 1)

	x, y, w, h := faces[0].Box()
	assert.InDelta(t, 20, x, 1e-4)
	assert.InDelta(t, 10, y, 1e-4)
	assert.InDelta(t, 160, w, 1e-4)
	assert.InDelta(t, 80, h, 1e-4)
	assert.InDelta(t, 0.99, faces[0].Confidence(), 1e-6)
}

func TestDetector_Errors(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	boom := errors.New("boom")

	d := NewDetector(CenterFace)
	d.Err = boom
	_, err := d.DetectFaces(context.Background(), img)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDetector().DetectFaces(ctx, img)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSegmenter_SegmentPerson(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	t.Run("nil predicate is all background", func(t *testing.T) {
		mask, err := NewSegmenter(nil).SegmentPerson(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, 10, mask.Width)
		assert.Equal(t, 10, mask.Height)
		assert.Zero(t, mask.ForegroundCount())
	})

	t.Run("rect predicate", func(t *testing.T) {
		mask, err := NewSegmenter(Rect(image.Rect(0, 0, 5, 2))).SegmentPerson(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, 10, mask.ForegroundCount())
		assert.True(t, mask.Foreground(4, 1))
		assert.False(t, mask.Foreground(5, 1))
		assert.InDelta(t, 0.1, mask.Coverage(), 1e-9)
	})

	t.Run("color predicate", func(t *testing.T) {
		colored := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		colored.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 255})
		red := func(_, _ int, c color.NRGBA) bool { return c.R > 200 }

		mask, err := NewSegmenter(red).SegmentPerson(context.Background(), colored)
		require.NoError(t, err)
		assert.Equal(t, []uint8{0, 1}, mask.Pix)
	})

	t.Run("injected error", func(t *testing.T) {
		boom := errors.New("segment failed")
		s := NewSegmenter(nil)
		s.Err = boom

		_, err := s.SegmentPerson(context.Background(), img)
		assert.ErrorIs(t, err, boom)
	})
}
