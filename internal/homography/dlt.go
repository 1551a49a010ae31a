// Package homography estimates planar projective transforms from point
// correspondences: a normalized direct linear solve and a RANSAC robust
// wrapper around it.
package homography

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"panostitch/pkg/geometry"
)

var (
	// ErrInsufficientPoints means fewer than the 4 correspondences a
	// homography needs reached the solver.
	ErrInsufficientPoints = errors.New("homography: need at least 4 correspondences")

	// ErrDegenerate means the solve ran but produced a numerically
	// unusable matrix (singular normalization or non-finite entries).
	ErrDegenerate = errors.New("homography: degenerate solution")
)

// normalizePoints applies Hartley normalization: translate the set so
// its centroid is at the origin, then scale uniformly so the average
// distance from the origin is sqrt(2). Returns the transformed points
// and the similarity transform that was applied.
func normalizePoints(pts []geometry.Point2D) ([]geometry.Point2D, geometry.Homography) {
	c := geometry.Centroid(pts)
	var avgDist float64
	for _, p := range pts {
		avgDist += p.Distance(c)
	}
	avgDist /= float64(len(pts))

	s := 1.0
	if avgDist > 0 {
		s = math.Sqrt2 / avgDist
	}
	t := geometry.Homography{M: [3][3]float64{
		{s, 0, -s * c.X},
		{0, s, -s * c.Y},
		{0, 0, 1},
	}}
	return t.ApplyAll(pts), t
}

// buildSystem assembles the 2n x 9 homogeneous system whose null
// vector is the stacked homography. Each correspondence contributes
// two rows via the cross-product elimination of the projective scale.
func buildSystem(src, dst []geometry.Point2D) *mat.Dense {
	n := len(src)
	a := mat.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, x * u, y * u, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, x * v, y * v, v})
	}
	return a
}

// ComputeDLT solves for the homography mapping src[i] to dst[i] using
// the normalized direct linear transform. It requires at least 4
// correspondences and returns a canonical matrix (bottom-right entry
// 1). Mismatched slice lengths are a caller bug and panic.
func ComputeDLT(src, dst []geometry.Point2D) (geometry.Homography, error) {
	if len(src) != len(dst) {
		panic(fmt.Sprintf("homography: point count mismatch: %d vs %d", len(src), len(dst)))
	}
	if len(src) < 4 {
		return geometry.Homography{}, ErrInsufficientPoints
	}

	nsrc, tSrc := normalizePoints(src)
	ndst, tDst := normalizePoints(dst)

	a := buildSystem(nsrc, ndst)

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return geometry.Homography{}, ErrDegenerate
	}
	var v mat.Dense
	svd.VTo(&v)

	// Right singular vector of the smallest singular value: last
	// column of V under gonum's descending-value convention.
	var hn geometry.Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			hn.M[i][j] = v.At(3*i+j, 8)
		}
	}

	tDstInv, ok := tDst.Inverse()
	if !ok {
		return geometry.Homography{}, ErrDegenerate
	}
	h, ok := tDstInv.Mul(hn).Mul(tSrc).Canonicalize()
	if !ok || !h.IsFinite() {
		return geometry.Homography{}, ErrDegenerate
	}
	return h, nil
}

// ReprojectionError returns the Euclidean distance between H(src) and
// dst.
func ReprojectionError(h geometry.Homography, src, dst geometry.Point2D) float64 {
	return h.Apply(src).Distance(dst)
}
