package image

import (
	"math"

	"panostitch/pkg/geometry"
)

// Mask is a single-channel byte plane the size of an RGB buffer.
// Zero means "outside", nonzero means "inside".
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an all-zero mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Set writes the mask value at (x, y).
func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// FillRect sets every pixel of the clipped rectangle to v.
func (m *Mask) FillRect(r geometry.RectInt, v uint8) {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.Width, m.Width), min(r.Y+r.Height, m.Height)
	for y := y0; y < y1; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := x0; x < x1; x++ {
			row[x] = v
		}
	}
}

// NonzeroMask builds the validity mask of an image: a pixel is inside
// iff its luminance is above zero. Warped images leave unmapped pixels
// black, so this recovers the warp's valid region.
func NonzeroMask(img *RGB) *Mask {
	m := NewMask(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.GrayAt(x, y) > 0 {
				m.Pix[y*img.Width+x] = 255
			}
		}
	}
	return m
}

// NonzeroBounds returns the tight bounding box of nonzero-luminance
// pixels, or an empty rectangle if the image is entirely black.
func NonzeroBounds(img *RGB) geometry.RectInt {
	minX, minY := img.Width, img.Height
	maxX, maxY := -1, -1
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.GrayAt(x, y) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return geometry.RectInt{}
	}
	return geometry.RectInt{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// DistanceTransform computes the exact Euclidean distance from every
// pixel to the nearest zero pixel of the mask, using the
// Felzenszwalb-Huttenlocher two-pass squared-distance transform.
// Pixels outside the mask get distance 0.
func DistanceTransform(m *Mask) []float64 {
	w, h := m.Width, m.Height
	const inf = math.MaxFloat64 / 4

	f := make([]float64, w*h)
	for i, v := range m.Pix {
		if v != 0 {
			f[i] = inf
		}
	}

	// Columns first, then rows.
	col := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = f[y*w+x]
		}
		dt1d(col)
		for y := 0; y < h; y++ {
			f[y*w+x] = col[y]
		}
	}
	row := make([]float64, w)
	for y := 0; y < h; y++ {
		copy(row, f[y*w:(y+1)*w])
		dt1d(row)
		for x := 0; x < w; x++ {
			f[y*w+x] = math.Sqrt(row[x])
		}
	}
	return f
}

// dt1d is the 1D squared distance transform over the lower envelope of
// parabolas rooted at (i, f[i]).
func dt1d(f []float64) {
	n := len(f)
	if n == 0 {
		return
	}
	v := make([]int, n)       // parabola roots
	z := make([]float64, n+1) // boundaries between parabolas
	d := make([]float64, n)

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		var s float64
		for {
			p := v[k]
			s = ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*q-2*p)
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
	copy(f, d)
}
