package blend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgpkg "panostitch/internal/image"
)

func solidImage(w, h int, r, g, b uint8) *imgpkg.RGB {
	img := imgpkg.NewRGB(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, r, g, b)
		}
	}
	return img
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("overlay")
	require.NoError(t, err)
	assert.Equal(t, ModeOverlay, m)
	m, err = ParseMode("feather")
	require.NoError(t, err)
	assert.Equal(t, ModeFeather, m)
	_, err = ParseMode("multiply")
	assert.Error(t, err)
}

func TestOverlayDisjointHalves(t *testing.T) {
	base := solidImage(10, 4, 10, 20, 30)
	top := solidImage(10, 4, 200, 210, 220)
	mask := imgpkg.NewMask(10, 4)
	for y := 0; y < 4; y++ {
		for x := 5; x < 10; x++ {
			mask.Set(x, y, 255)
		}
	}

	out := Overlay(base, top, mask)
	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			r, g, b := out.At(x, y)
			if x >= 5 {
				require.Equal(t, [3]uint8{200, 210, 220}, [3]uint8{r, g, b}, "masked half must equal top")
			} else {
				require.Equal(t, [3]uint8{10, 20, 30}, [3]uint8{r, g, b}, "unmasked half must equal base")
			}
		}
	}
}

func TestOverlayNilMaskCopiesTop(t *testing.T) {
	base := solidImage(3, 3, 1, 1, 1)
	top := solidImage(3, 3, 9, 9, 9)
	out := Overlay(base, top, nil)
	assert.Equal(t, top.Pix, out.Pix)
}

func TestOverlaySizeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		Overlay(solidImage(2, 2, 0, 0, 0), solidImage(3, 2, 0, 0, 0), nil)
	})
}

func TestFeatherDefaultsToHalfBlend(t *testing.T) {
	base := solidImage(4, 4, 100, 0, 0)
	top := solidImage(4, 4, 200, 0, 0)
	out := Feather(base, top, nil)
	r, _, _ := out.At(2, 2)
	assert.Equal(t, uint8(150), r)
}

func TestFeatherSymmetry(t *testing.T) {
	base := solidImage(6, 6, 40, 80, 120)
	top := solidImage(6, 6, 240, 200, 160)

	weights := make([]float64, 36)
	for i := range weights {
		weights[i] = float64(i) / 35
	}
	inverted := make([]float64, 36)
	for i := range weights {
		inverted[i] = 1 - weights[i]
	}

	a := Feather(base, top, weights)
	b := Feather(top, base, inverted)
	for i := range a.Pix {
		assert.InDelta(t, float64(a.Pix[i]), float64(b.Pix[i]), 1,
			"swapping images and inverting weights must agree up to rounding")
	}
}

func TestFeatherWeightsFavorInterior(t *testing.T) {
	// Top mask occupies the right half, base mask the left half, with
	// overlap in the middle two columns.
	topMask := imgpkg.NewMask(10, 5)
	baseMask := imgpkg.NewMask(10, 5)
	for y := 0; y < 5; y++ {
		for x := 4; x < 10; x++ {
			topMask.Set(x, y, 255)
		}
		for x := 0; x < 6; x++ {
			baseMask.Set(x, y, 255)
		}
	}

	w := FeatherWeights(topMask, baseMask)
	// Deep inside the top-only region the top weight approaches 1.
	assert.Greater(t, w[2*10+8], 0.8)
	// Deep inside the base-only region it approaches 0.
	assert.Less(t, w[2*10+1], 0.2)
	// Weights always lie in [0, 1].
	for _, v := range w {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestFeatherWeightsZeroDistanceEpsilon(t *testing.T) {
	// Both masks empty: every pixel is zero-distance in both
	// transforms and the epsilon must keep the division finite.
	topMask := imgpkg.NewMask(4, 4)
	baseMask := imgpkg.NewMask(4, 4)
	w := FeatherWeights(topMask, baseMask)
	for _, v := range w {
		assert.Equal(t, 0.0, v)
	}
}
