package warp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgpkg "panostitch/internal/image"
	"panostitch/pkg/geometry"
)

// noiseImage fills a buffer with deterministic non-black noise.
func noiseImage(w, h int, seed int64) *imgpkg.RGB {
	rng := rand.New(rand.NewSource(seed))
	img := imgpkg.NewRGB(w, h)
	for i := range img.Pix {
		img.Pix[i] = uint8(10 + rng.Intn(246))
	}
	return img
}

func TestPerspectiveIdentityIsExact(t *testing.T) {
	src := noiseImage(32, 24, 1)
	dst, ok := Perspective(src, geometry.IdentityHomography(), 32, 24)
	require.True(t, ok)
	assert.Equal(t, src.Pix, dst.Pix, "bilinear sampling at integer coordinates must be exact")
}

func TestPerspectiveTranslationShiftsPixels(t *testing.T) {
	src := noiseImage(20, 20, 2)
	h := geometry.TranslationHomography(5, 3)
	dst, ok := Perspective(src, h, 30, 30)
	require.True(t, ok)

	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			sr, sg, sb := src.At(x, y)
			dr, dg, db := dst.At(x+5, y+3)
			require.Equal(t, sr, dr)
			require.Equal(t, sg, dg)
			require.Equal(t, sb, db)
		}
	}
	// Untouched destination pixels stay black.
	r, g, b := dst.At(29, 29)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}

func TestPerspectiveOutOfRangeStaysBlack(t *testing.T) {
	src := noiseImage(10, 10, 3)
	// Shift far enough that nothing maps into the canvas.
	h := geometry.TranslationHomography(100, 100)
	dst, ok := Perspective(src, h, 20, 20)
	require.True(t, ok)
	for _, v := range dst.Pix {
		assert.Equal(t, uint8(0), v)
	}
}

func TestPerspectiveSingularHomography(t *testing.T) {
	src := noiseImage(10, 10, 4)
	var h geometry.Homography // zero matrix, no inverse
	_, ok := Perspective(src, h, 10, 10)
	assert.False(t, ok)
}

func TestBilinearInterpolatesMidpoint(t *testing.T) {
	src := imgpkg.NewRGB(2, 1)
	src.Set(0, 0, 100, 0, 0)
	src.Set(1, 0, 200, 0, 0)

	r, _, _ := bilinear(src, 0.5, 0)
	assert.Equal(t, uint8(150), r)
}

func TestBilinearEdgeNeighborsContributeBlack(t *testing.T) {
	src := imgpkg.NewRGB(1, 1)
	src.Set(0, 0, 200, 200, 200)

	// Sampling half a pixel outside blends with the zero border.
	r, g, b := bilinear(src, -0.5, 0)
	assert.Equal(t, uint8(100), r)
	assert.Equal(t, uint8(100), g)
	assert.Equal(t, uint8(100), b)
}
