// Package warp resamples a source image into a destination canvas
// under a planar projective transform.
package warp

import (
	"math"

	imgpkg "panostitch/internal/image"
	"panostitch/pkg/geometry"
)

// Perspective warps src into a width x height canvas under h, where h
// maps source coordinates into destination coordinates. The inverse of
// h is built once; every destination pixel is mapped back into the
// source and sampled bilinearly. Destination pixels whose inverse
// image falls outside a one-pixel-tolerant source bound stay black,
// which implicitly defines the valid-region mask consumed by blending.
//
// Returns false if h is not invertible.
func Perspective(src *imgpkg.RGB, h geometry.Homography, width, height int) (*imgpkg.RGB, bool) {
	hinv, ok := h.Inverse()
	if !ok {
		return nil, false
	}
	dst := imgpkg.NewRGB(width, height)

	w := float64(src.Width)
	ht := float64(src.Height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := hinv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			if p.X < -1 || p.Y < -1 || p.X >= w || p.Y >= ht {
				continue
			}
			r, g, b := bilinear(src, p.X, p.Y)
			dst.Set(x, y, r, g, b)
		}
	}
	return dst, true
}

// bilinear samples src at a fractional coordinate by blending the four
// surrounding pixels. Neighbors outside the image contribute black,
// matching the zero fill of the destination.
func bilinear(src *imgpkg.RGB, x, y float64) (uint8, uint8, uint8) {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1, y1 := x0+1, y0+1
	ax := x - float64(x0)
	ay := y - float64(y0)

	var c00, c10, c01, c11 [3]float64
	fetch(src, x0, y0, &c00)
	fetch(src, x1, y0, &c10)
	fetch(src, x0, y1, &c01)
	fetch(src, x1, y1, &c11)

	var out [3]uint8
	for c := 0; c < 3; c++ {
		top := c00[c]*(1-ax) + c10[c]*ax
		bot := c01[c]*(1-ax) + c11[c]*ax
		out[c] = saturate(top*(1-ay) + bot*ay)
	}
	return out[0], out[1], out[2]
}

func fetch(src *imgpkg.RGB, x, y int, dst *[3]float64) {
	if !src.In(x, y) {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return
	}
	r, g, b := src.At(x, y)
	dst[0], dst[1], dst[2] = float64(r), float64(g), float64(b)
}

func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
