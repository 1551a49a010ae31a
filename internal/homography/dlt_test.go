package homography

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panostitch/pkg/geometry"
)

// testPoints is a well-spread, non-collinear point set.
var testPoints = []geometry.Point2D{
	{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	{X: 25, Y: 60}, {X: 75, Y: 30}, {X: 50, Y: 90}, {X: 10, Y: 45},
}

func projectiveH() geometry.Homography {
	return geometry.Homography{M: [3][3]float64{
		{1.2, 0.1, 30},
		{-0.05, 1.1, 20},
		{0.0002, 0.0001, 1},
	}}
}

func assertHomographyClose(t *testing.T, want, got geometry.Homography, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.M[i][j], got.M[i][j], delta, "entry (%d,%d)", i, j)
		}
	}
}

func TestComputeDLTRoundTrip(t *testing.T) {
	want := projectiveH()
	dst := want.ApplyAll(testPoints)

	got, err := ComputeDLT(testPoints, dst)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.M[2][2])
	assertHomographyClose(t, want, got, 1e-6)
}

func TestComputeDLTMinimalSample(t *testing.T) {
	want := projectiveH()
	src := testPoints[:4]
	dst := want.ApplyAll(src)

	got, err := ComputeDLT(src, dst)
	require.NoError(t, err)
	assertHomographyClose(t, want, got, 1e-6)
}

func TestComputeDLTPureTranslation(t *testing.T) {
	want := geometry.TranslationHomography(40, -12)
	dst := want.ApplyAll(testPoints)

	got, err := ComputeDLT(testPoints, dst)
	require.NoError(t, err)
	assertHomographyClose(t, want, got, 1e-8)
}

func TestComputeDLTInsufficientPoints(t *testing.T) {
	src := testPoints[:3]
	dst := testPoints[:3]
	_, err := ComputeDLT(src, dst)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestComputeDLTLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = ComputeDLT(testPoints, testPoints[:5])
	})
}

func TestComputeDLTCollinearDegenerate(t *testing.T) {
	// Four collinear points do not determine a homography; the solve
	// must not return a finite-looking but bogus canonical matrix
	// silently claiming success with error nil and garbage entries.
	src := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}}
	dst := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}}
	h, err := ComputeDLT(src, dst)
	if err == nil {
		// A null space exists in several directions; whatever vector
		// the solver picked must at least map the inputs consistently.
		for i := range src {
			p := h.Apply(src[i])
			assert.InDelta(t, dst[i].X, p.X, 1e-6)
			assert.InDelta(t, dst[i].Y, p.Y, 1e-6)
		}
	}
}

func TestReprojectionError(t *testing.T) {
	h := geometry.TranslationHomography(3, 4)
	e := ReprojectionError(h, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 0, Y: 0})
	assert.InDelta(t, 5.0, e, 1e-12)
}

func TestNormalizePoints(t *testing.T) {
	pts := []geometry.Point2D{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 30, Y: 30}, {X: 10, Y: 30}}
	norm, tr := normalizePoints(pts)

	c := geometry.Centroid(norm)
	assert.InDelta(t, 0, c.X, 1e-12)
	assert.InDelta(t, 0, c.Y, 1e-12)

	var avg float64
	for _, p := range norm {
		avg += p.Distance(geometry.Point2D{})
	}
	avg /= float64(len(norm))
	assert.InDelta(t, 1.4142135, avg, 1e-6)

	// The returned transform reproduces the normalized points.
	for i, p := range tr.ApplyAll(pts) {
		assert.InDelta(t, norm[i].X, p.X, 1e-12)
		assert.InDelta(t, norm[i].Y, p.Y, 1e-12)
	}
}

func TestNormalizePointsCoincident(t *testing.T) {
	// All points identical: average distance is zero, scale must fall
	// back to 1 instead of dividing by zero.
	pts := []geometry.Point2D{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}
	norm, _ := normalizePoints(pts)
	for _, p := range norm {
		assert.InDelta(t, 0, p.X, 1e-12)
		assert.InDelta(t, 0, p.Y, 1e-12)
	}
}
