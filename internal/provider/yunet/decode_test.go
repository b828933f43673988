package yunet

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

// emptyHeads allocates zeroed outputs for a netW x netH input.
func emptyHeads(netW, netH int) [][]float32 {
	outs := make([][]float32, 0, 12)
	for _, width := range []int{1, 1, 4, 10} {
		for _, s := range strides {
			outs = append(outs, make([]float32, cells(netW, netH, s)*width))
		}
	}
	return outs
}

func TestOutputNames(t *testing.T) {
	assert.Equal(t, []string{
		"cls_8", "cls_16", "cls_32",
		"obj_8", "obj_16", "obj_32",
		"bbox_8", "bbox_16", "bbox_32",
		"kps_8", "kps_16", "kps_32",
	}, outputNames())
}

func TestDecode_SingleCell(t *testing.T) {
	outs := emptyHeads(32, 32)

	// stride 8 head, row 1, column 2 of a 4x4 grid
	idx := 1*4 + 2
	outs[0][idx] = 1   // cls_8
	outs[3][idx] = 0.81 // obj_8
	copy(outs[6][idx*4:], []float32{0.5, 0.5, 0, 0})
	copy(outs[9][idx*10:], []float32{0, 0, 1, 0, 0.5, 0.5, 0, 1, 1, 1})

	faces := decode(outs, 32, 32, 0.5)
	require.Len(t, faces, 1)

	f := faces[0]
	require.Len(t, f, 15)
	assert.InDelta(t, 16, f[0], 1e-5) // cx 20 - w/2
	assert.InDelta(t, 8, f[1], 1e-5)  // cy 12 - h/2
	assert.InDelta(t, 8, f[2], 1e-5)
	assert.InDelta(t, 8, f[3], 1e-5)
	assert.InDelta(t, 16, f[4], 1e-5) // first landmark x = (0+2)*8
	assert.InDelta(t, 8, f[5], 1e-5)  // first landmark y = (0+1)*8
	assert.InDelta(t, 24, f[6], 1e-5)
	assert.InDelta(t, 0.9, f[provider.ScoreIndex], 1e-5)
	assert.InDelta(t, 0.9, f.Confidence(), 1e-5)
}

func TestDecode_ThresholdAndClamp(t *testing.T) {
	outs := emptyHeads(32, 32)

	outs[2][0] = 0.5 // cls_32 below threshold once combined
	outs[5][0] = 0.5
	outs[1][3] = 2 // cls_16 clamps to 1
	outs[4][3] = 1.5

	faces := decode(outs, 32, 32, 0.9)
	require.Len(t, faces, 1)
	assert.InDelta(t, 1.0, faces[0][provider.ScoreIndex], 1e-6)
}

func face(x, y, w, h, score float32) provider.RawFace {
	f := make(provider.RawFace, rowLen)
	f[0], f[1], f[2], f[3] = x, y, w, h
	f[provider.ScoreIndex] = score
	return f
}

func TestSuppress(t *testing.T) {
	faces := []provider.RawFace{
		face(0, 0, 10, 10, 0.91),
		face(1, 1, 10, 10, 0.97), // overlaps the first, higher score
		face(50, 50, 10, 10, 0.95),
		face(100, 100, 5, 5, 0.92),
	}

	kept := suppress(faces, 0.3, 0)
	require.Len(t, kept, 3)
	assert.Equal(t, float32(0.97), kept[0][provider.ScoreIndex])
	assert.Equal(t, float32(0.95), kept[1][provider.ScoreIndex])
	assert.Equal(t, float32(0.92), kept[2][provider.ScoreIndex])
}

func TestSuppress_TopK(t *testing.T) {
	faces := []provider.RawFace{
		face(0, 0, 10, 10, 0.91),
		face(50, 50, 10, 10, 0.99),
		face(100, 100, 10, 10, 0.95),
	}

	kept := suppress(faces, 0.3, 2)
	require.Len(t, kept, 2)
	assert.Equal(t, float32(0.99), kept[0][provider.ScoreIndex])
	assert.Equal(t, float32(0.95), kept[1][provider.ScoreIndex])
}

func TestIOU(t *testing.T) {
	a := face(0, 0, 10, 10, 1)
	assert.InDelta(t, 1.0, iou(a, a), 1e-9)
	assert.InDelta(t, 0.0, iou(a, face(20, 20, 5, 5, 1)), 1e-9)
	assert.InDelta(t, 25.0/175.0, iou(a, face(5, 5, 10, 10, 1)), 1e-9)
}

func TestRescale(t *testing.T) {
	f := face(10, 20, 30, 40, 0.9)
	f[4], f[5] = 1, 2

	rescale([]provider.RawFace{f}, 2, 0.5)

	assert.Equal(t, []float32{20, 10, 60, 20, 2, 1}, []float32(f[:6]))
	assert.Equal(t, float32(0.9), f[provider.ScoreIndex])
}

func TestPadTo32(t *testing.T) {
	assert.Equal(t, 32, padTo32(1))
	assert.Equal(t, 32, padTo32(32))
	assert.Equal(t, 128, padTo32(100))
}

func TestToBlob_BGRPlanesWithPadding(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	blob := toBlob(img, 32, 32)
	plane := 32 * 32
	require.Len(t, blob, 3*plane)

	assert.Equal(t, float32(30), blob[0])
	assert.Equal(t, float32(20), blob[plane])
	assert.Equal(t, float32(10), blob[2*plane])
	assert.Equal(t, float32(60), blob[1])
	assert.Equal(t, float32(0), blob[32]) // padded row
}
