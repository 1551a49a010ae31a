package geometry

import (
	"math"
)

// Homography is a 3x3 planar projective transform, row-major.
// It is defined up to scale; a canonical homography has M[2][2] == 1.
type Homography struct {
	M [3][3]float64
}

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{M: [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}}
}

// TranslationHomography returns a pure translation by (tx, ty).
func TranslationHomography(tx, ty float64) Homography {
	return Homography{M: [3][3]float64{
		{1, 0, tx},
		{0, 1, ty},
		{0, 0, 1},
	}}
}

// Apply maps a point through the homography, dividing out the
// homogeneous scale factor. Points on the line at infinity
// (denominator zero) map to a far-away sentinel location.
func (h Homography) Apply(p Point2D) Point2D {
	w := h.M[2][0]*p.X + h.M[2][1]*p.Y + h.M[2][2]
	if w == 0 {
		return Point2D{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point2D{
		X: (h.M[0][0]*p.X + h.M[0][1]*p.Y + h.M[0][2]) / w,
		Y: (h.M[1][0]*p.X + h.M[1][1]*p.Y + h.M[1][2]) / w,
	}
}

// ApplyAll maps a slice of points through the homography.
func (h Homography) ApplyAll(pts []Point2D) []Point2D {
	out := make([]Point2D, len(pts))
	for i, p := range pts {
		out[i] = h.Apply(p)
	}
	return out
}

// Mul returns the composition h * other (other applied first).
func (h Homography) Mul(other Homography) Homography {
	var r Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += h.M[i][k] * other.M[k][j]
			}
			r.M[i][j] = s
		}
	}
	return r
}

// Det returns the determinant.
func (h Homography) Det() float64 {
	m := &h.M
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the inverse homography via the adjugate.
// Returns false if the matrix is singular.
func (h Homography) Inverse() (Homography, bool) {
	det := h.Det()
	if math.Abs(det) < 1e-12 {
		return Homography{}, false
	}
	m := &h.M
	inv := 1.0 / det
	var r Homography
	r.M[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv
	r.M[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv
	r.M[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv
	r.M[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv
	r.M[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv
	r.M[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv
	r.M[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv
	r.M[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv
	r.M[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv
	return r, true
}

// Canonicalize rescales so the bottom-right entry is 1.
// Returns false if that entry is numerically zero.
func (h Homography) Canonicalize() (Homography, bool) {
	s := h.M[2][2]
	if math.Abs(s) < 1e-15 {
		return Homography{}, false
	}
	var r Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.M[i][j] = h.M[i][j] / s
		}
	}
	return r, true
}

// IsFinite reports whether every entry is a finite number.
// A numerically degenerate solve can yield NaN or Inf entries.
func (h Homography) IsFinite() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := h.M[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
