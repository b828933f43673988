package yunet

import (
	"math"
	"sort"
	"strconv"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

// Strides of the three detection heads.
var strides = [...]int{8, 16, 32}

// rowLen is box (4) + five landmarks (10) + score.
const rowLen = 15

// outputNames in the order decode expects them.
func outputNames() []string {
	names := make([]string, 0, 4*len(strides))
	for _, head := range []string{"cls", "obj", "bbox", "kps"} {
		for _, s := range strides {
			names = append(names, head+"_"+strconv.Itoa(s))
		}
	}
	return names
}

// cells is the number of anchor points a head produces for a padded input.
func cells(netW, netH, stride int) int {
	return (netW / stride) * (netH / stride)
}

// decode turns the twelve head outputs into candidate rows in network pixel
// space, dropping anything under threshold. outs follows outputNames order.
func decode(outs [][]float32, netW, netH int, threshold float32) []provider.RawFace {
	var faces []provider.RawFace

	for i, s := range strides {
		cls, obj, bbox, kps := outs[i], outs[len(strides)+i], outs[2*len(strides)+i], outs[3*len(strides)+i]
		cols := netW / s
		rows := netH / s
		stride := float32(s)

		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				idx := r*cols + c

				score := float32(math.Sqrt(float64(clamp01(cls[idx]) * clamp01(obj[idx]))))
				if score < threshold {
					continue
				}

				cx := (float32(c) + bbox[idx*4+0]) * stride
				cy := (float32(r) + bbox[idx*4+1]) * stride
				w := float32(math.Exp(float64(bbox[idx*4+2]))) * stride
				h := float32(math.Exp(float64(bbox[idx*4+3]))) * stride

				row := make(provider.RawFace, rowLen)
				row[0] = cx - w/2
				row[1] = cy - h/2
				row[2] = w
				row[3] = h
				for n := 0; n < 5; n++ {
					row[4+2*n] = (kps[idx*10+2*n] + float32(c)) * stride
					row[4+2*n+1] = (kps[idx*10+2*n+1] + float32(r)) * stride
				}
				row[provider.ScoreIndex] = score

				faces = append(faces, row)
			}
		}
	}

	return faces
}

// suppress keeps the topK best candidates and applies greedy non-maximum
// suppression. The result is ordered by descending score.
func suppress(faces []provider.RawFace, iouThreshold float32, topK int) []provider.RawFace {
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i][provider.ScoreIndex] > faces[j][provider.ScoreIndex]
	})
	if topK > 0 && len(faces) > topK {
		faces = faces[:topK]
	}

	kept := make([]provider.RawFace, 0, len(faces))
	for _, candidate := range faces {
		overlaps := false
		for _, k := range kept {
			if iou(candidate, k) > float64(iouThreshold) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func iou(a, b provider.RawFace) float64 {
	ax, ay, aw, ah := a.Box()
	bx, by, bw, bh := b.Box()

	x1 := math.Max(ax, bx)
	y1 := math.Max(ay, by)
	x2 := math.Min(ax+aw, bx+bw)
	y2 := math.Min(ay+ah, by+bh)

	if x2 <= x1 || y2 <= y1 {
		return 0.0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := aw*ah + bw*bh - intersection
	if union <= 0 {
		return 0.0
	}

	return intersection / union
}

// rescale maps rows from network to image pixel space.
func rescale(faces []provider.RawFace, sx, sy float32) {
	if sx == 1 && sy == 1 {
		return
	}
	for _, f := range faces {
		for i := 0; i < provider.ScoreIndex; i += 2 {
			f[i] *= sx
			f[i+1] *= sy
		}
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
