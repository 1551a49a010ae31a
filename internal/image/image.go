// Package image provides the dense RGB pixel buffer the stitching
// pipeline operates on, plus the mask and cropping primitives the
// composer needs.
package image

import (
	"image"

	"panostitch/pkg/geometry"
)

// RGB is a dense width x height x 3 pixel buffer, 8 bits per channel,
// row-major with interleaved channels. It is treated as immutable once
// produced; pipeline stages allocate new buffers rather than editing in
// place.
type RGB struct {
	Width  int
	Height int
	Pix    []uint8 // len == Width*Height*3
}

// NewRGB allocates a zero-filled (black) buffer.
func NewRGB(width, height int) *RGB {
	return &RGB{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// At returns the channel values at (x, y). The caller must stay in bounds.
func (m *RGB) At(x, y int) (r, g, b uint8) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Set writes the channel values at (x, y). The caller must stay in bounds.
func (m *RGB) Set(x, y int, r, g, b uint8) {
	i := (y*m.Width + x) * 3
	m.Pix[i] = r
	m.Pix[i+1] = g
	m.Pix[i+2] = b
}

// In reports whether (x, y) lies inside the buffer.
func (m *RGB) In(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Bounds returns the buffer extent as an integer rectangle at the origin.
func (m *RGB) Bounds() geometry.RectInt {
	return geometry.RectInt{Width: m.Width, Height: m.Height}
}

// Clone returns a deep copy.
func (m *RGB) Clone() *RGB {
	out := NewRGB(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// FromGoImage converts any image.Image into an RGB buffer.
func FromGoImage(src image.Image) *RGB {
	b := src.Bounds()
	out := NewRGB(b.Dx(), b.Dy())
	if rgba, ok := src.(*image.RGBA); ok {
		for y := 0; y < out.Height; y++ {
			si := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * out.Width * 3
			for x := 0; x < out.Width; x++ {
				out.Pix[di] = rgba.Pix[si]
				out.Pix[di+1] = rgba.Pix[si+1]
				out.Pix[di+2] = rgba.Pix[si+2]
				si += 4
				di += 3
			}
		}
		return out
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Set(x, y, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return out
}

// ToGoImage converts the buffer to an opaque image.RGBA.
func (m *RGB) ToGoImage() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		si := y * m.Width * 3
		di := out.PixOffset(0, y)
		for x := 0; x < m.Width; x++ {
			out.Pix[di] = m.Pix[si]
			out.Pix[di+1] = m.Pix[si+1]
			out.Pix[di+2] = m.Pix[si+2]
			out.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return out
}

// Crop returns the sub-region described by r as a new buffer.
// The rectangle is clamped to the image extent.
func (m *RGB) Crop(r geometry.RectInt) *RGB {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.Width, m.Width), min(r.Y+r.Height, m.Height)
	if x1 <= x0 || y1 <= y0 {
		return NewRGB(0, 0)
	}
	out := NewRGB(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		si := (y*m.Width + x0) * 3
		di := (y - y0) * out.Width * 3
		copy(out.Pix[di:di+out.Width*3], m.Pix[si:si+out.Width*3])
	}
	return out
}

// Place copies src into the buffer at the given offset, clipping at the
// edges, and returns the modified receiver for chaining.
func (m *RGB) Place(src *RGB, offsetX, offsetY int) *RGB {
	for y := 0; y < src.Height; y++ {
		dy := y + offsetY
		if dy < 0 || dy >= m.Height {
			continue
		}
		for x := 0; x < src.Width; x++ {
			dx := x + offsetX
			if dx < 0 || dx >= m.Width {
				continue
			}
			r, g, b := src.At(x, y)
			m.Set(dx, dy, r, g, b)
		}
	}
	return m
}

// luma601 is the integer Rec.601 luminance used for validity masks.
func luma601(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}

// GrayAt returns the Rec.601 luminance at (x, y).
func (m *RGB) GrayAt(x, y int) uint8 {
	r, g, b := m.At(x, y)
	return luma601(r, g, b)
}
