package stitch

import (
	"math"

	imgpkg "panostitch/internal/image"
)

// keypointOverlay draws a small ring at every keypoint on a copy of
// img, for debug output. The source buffer is left untouched.
func keypointOverlay(img *imgpkg.RGB, kps []Keypoint) *imgpkg.RGB {
	out := img.Clone()
	for _, kp := range kps {
		drawRing(out, int(math.Round(kp.X)), int(math.Round(kp.Y)), 3)
	}
	return out
}

// drawRing plots a one-pixel circle of the given radius, clipped at
// the image edges.
func drawRing(img *imgpkg.RGB, cx, cy, r int) {
	x, y := r, 0
	d := 1 - r
	for x >= y {
		plot8(img, cx, cy, x, y)
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func plot8(img *imgpkg.RGB, cx, cy, x, y int) {
	pts := [8][2]int{
		{cx + x, cy + y}, {cx - x, cy + y}, {cx + x, cy - y}, {cx - x, cy - y},
		{cx + y, cy + x}, {cx - y, cy + x}, {cx + y, cy - x}, {cx - y, cy - x},
	}
	for _, p := range pts {
		if img.In(p[0], p[1]) {
			img.Set(p[0], p[1], 0, 255, 0)
		}
	}
}
