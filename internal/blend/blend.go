// Package blend composites two aligned images of equal size, either by
// hard overlay under a mask or by distance-weighted feathering.
package blend

import (
	"fmt"

	imgpkg "panostitch/internal/image"
)

// Mode selects how the composer merges the warped image into the
// canvas.
type Mode int

const (
	// ModeOverlay copies top pixels wherever the mask is set.
	ModeOverlay Mode = iota
	// ModeFeather mixes base and top per-pixel by interior distance.
	ModeFeather
)

func (m Mode) String() string {
	switch m {
	case ModeOverlay:
		return "overlay"
	case ModeFeather:
		return "feather"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "overlay":
		return ModeOverlay, nil
	case "feather":
		return ModeFeather, nil
	default:
		return 0, fmt.Errorf("blend: unknown mode %q", s)
	}
}

// checkSizes panics when the images disagree in size; the composer
// always hands in same-size canvases, so disagreement is a bug.
func checkSizes(base, top *imgpkg.RGB) {
	if base.Width != top.Width || base.Height != top.Height {
		panic(fmt.Sprintf("blend: size mismatch: %dx%d vs %dx%d",
			base.Width, base.Height, top.Width, top.Height))
	}
}

// Overlay returns base with top copied over it wherever mask is
// nonzero. A nil mask degenerates to a full copy of top.
func Overlay(base, top *imgpkg.RGB, mask *imgpkg.Mask) *imgpkg.RGB {
	checkSizes(base, top)
	if mask == nil {
		return top.Clone()
	}
	out := base.Clone()
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if mask.At(x, y) != 0 {
				r, g, b := top.At(x, y)
				out.Set(x, y, r, g, b)
			}
		}
	}
	return out
}

// Feather mixes base and top per pixel: out = base*(1-w) + top*w,
// computed in floating point and rounded back to 8 bits. weights holds
// one top-weight per pixel in [0, 1]; nil falls back to a uniform
// 0.5/0.5 blend.
func Feather(base, top *imgpkg.RGB, weights []float64) *imgpkg.RGB {
	checkSizes(base, top)
	out := imgpkg.NewRGB(base.Width, base.Height)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			w := 0.5
			if weights != nil {
				w = weights[y*out.Width+x]
			}
			br, bg, bb := base.At(x, y)
			tr, tg, tb := top.At(x, y)
			out.Set(x, y,
				mix(br, tr, w),
				mix(bg, tg, w),
				mix(bb, tb, w))
		}
	}
	return out
}

func mix(base, top uint8, w float64) uint8 {
	v := float64(base)*(1-w) + float64(top)*w
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// FeatherWeights derives the per-pixel top weight for the stitching
// path from two Euclidean distance transforms: one over the warped
// image's valid-pixel mask, one over the existing panorama footprint.
// Weights are normalized so wTop + wBase = 1; the epsilon keeps pixels
// that are zero-distance in both masks from dividing by zero. The seam
// ends up favoring whichever source is more interior at each pixel.
func FeatherWeights(topMask, baseMask *imgpkg.Mask) []float64 {
	const eps = 1e-6
	dtTop := imgpkg.DistanceTransform(topMask)
	dtBase := imgpkg.DistanceTransform(baseMask)
	w := make([]float64, len(dtTop))
	for i := range w {
		w[i] = dtTop[i] / (dtTop[i] + dtBase[i] + eps)
	}
	return w
}
