package image

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panostitch/pkg/geometry"
)

func TestRGBRoundTripThroughGoImage(t *testing.T) {
	src := NewRGB(4, 3)
	v := uint8(0)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, v, v+1, v+2)
			v += 3
		}
	}

	back := FromGoImage(src.ToGoImage())
	assert.Equal(t, src.Pix, back.Pix)
}

func TestFromGoImageGenericPath(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.Pix = []uint8{0, 85, 170, 255}
	rgb := FromGoImage(gray)
	r, g, b := rgb.At(1, 0)
	assert.Equal(t, uint8(85), r)
	assert.Equal(t, uint8(85), g)
	assert.Equal(t, uint8(85), b)
}

func TestCropClampsToBounds(t *testing.T) {
	src := NewRGB(10, 10)
	src.Set(5, 5, 99, 98, 97)

	out := src.Crop(geometry.RectInt{X: 4, Y: 4, Width: 20, Height: 20})
	assert.Equal(t, 6, out.Width)
	assert.Equal(t, 6, out.Height)
	r, g, b := out.At(1, 1)
	assert.Equal(t, [3]uint8{99, 98, 97}, [3]uint8{r, g, b})
}

func TestPlaceClips(t *testing.T) {
	dst := NewRGB(4, 4)
	src := NewRGB(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			src.Set(x, y, 50, 60, 70)
		}
	}
	dst.Place(src, 2, 2)

	r, _, _ := dst.At(3, 3)
	assert.Equal(t, uint8(50), r)
	r, _, _ = dst.At(1, 1)
	assert.Equal(t, uint8(0), r)
}

func TestNonzeroMaskAndBounds(t *testing.T) {
	img := NewRGB(8, 8)
	img.Set(2, 3, 10, 0, 0)
	img.Set(5, 6, 0, 0, 10)

	m := NonzeroMask(img)
	assert.Equal(t, uint8(255), m.At(2, 3))
	assert.Equal(t, uint8(255), m.At(5, 6))
	assert.Equal(t, uint8(0), m.At(0, 0))

	b := NonzeroBounds(img)
	assert.Equal(t, geometry.RectInt{X: 2, Y: 3, Width: 4, Height: 4}, b)
}

func TestNonzeroBoundsAllBlack(t *testing.T) {
	img := NewRGB(5, 5)
	assert.True(t, NonzeroBounds(img).Empty())
}

func TestDistanceTransformSingleZero(t *testing.T) {
	// A fully-set 5x1 mask with one hole: distances grow linearly
	// away from the hole.
	m := NewMask(5, 1)
	for x := 0; x < 5; x++ {
		m.Set(x, 0, 255)
	}
	m.Set(2, 0, 0)

	d := DistanceTransform(m)
	require.Len(t, d, 5)
	assert.InDelta(t, 2, d[0], 1e-9)
	assert.InDelta(t, 1, d[1], 1e-9)
	assert.InDelta(t, 0, d[2], 1e-9)
	assert.InDelta(t, 1, d[3], 1e-9)
	assert.InDelta(t, 2, d[4], 1e-9)
}

func TestDistanceTransformEuclidean(t *testing.T) {
	// Zero at a corner of a filled 4x4 mask: the opposite corner is a
	// true Euclidean diagonal away.
	m := NewMask(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.Set(x, y, 255)
		}
	}
	m.Set(0, 0, 0)

	d := DistanceTransform(m)
	assert.InDelta(t, 0, d[0], 1e-9)
	// (3,0) is a straight line away; (3,3) is 3*sqrt(2).
	assert.InDelta(t, 3, d[3], 1e-9)
	assert.InDelta(t, 4.24264069, d[3*4+3], 1e-6)
}

func TestDistanceTransformOutsideMaskIsZero(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(1, 1, 255)
	d := DistanceTransform(m)
	assert.InDelta(t, 1, d[1*3+1], 1e-9)
	assert.InDelta(t, 0, d[0], 1e-9)
}

func TestFillRectClips(t *testing.T) {
	m := NewMask(4, 4)
	m.FillRect(geometry.RectInt{X: -2, Y: -2, Width: 4, Height: 4}, 255)
	assert.Equal(t, uint8(255), m.At(0, 0))
	assert.Equal(t, uint8(255), m.At(1, 1))
	assert.Equal(t, uint8(0), m.At(2, 2))
}
