// Package stitch orchestrates pairwise panorama composition: feature
// matching, robust bidirectional homography estimation, perspective
// warping into a growing canvas, blending, and final auto-crop.
package stitch

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"panostitch/internal/blend"
	"panostitch/internal/homography"
	imgpkg "panostitch/internal/image"
	"panostitch/internal/match"
	"panostitch/internal/warp"
	"panostitch/pkg/geometry"
)

// ErrPairFailed means one image pair could not be aligned. The policy
// is graceful degradation: composition stops and the panorama built so
// far is returned, so callers treat this as an early stop, not a
// crash.
var ErrPairFailed = errors.New("stitch: pair could not be aligned")

// Options configures a composition run. Zero values are filled in by
// DefaultOptions.
type Options struct {
	Metric       match.Metric
	BlendMode    blend.Mode
	Ratio        float64 // Lowe ratio-test threshold
	RansacIters  int
	ReprojThresh float64 // inlier threshold, pixels
	Debug        bool
	Logger       *slog.Logger
}

// DefaultOptions returns the standard pipeline parameters.
func DefaultOptions() Options {
	return Options{
		Metric:       match.MetricHamming,
		BlendMode:    blend.ModeFeather,
		Ratio:        0.75,
		RansacIters:  1000,
		ReprojThresh: 3.0,
	}
}

// DebugSink receives intermediate artifacts when debug output is
// enabled. Implementations own persistence.
type DebugSink interface {
	SaveImage(name string, img *imgpkg.RGB) error
}

// Composer accumulates images into a panorama. It owns the canvas for
// the duration of a run and replaces it wholesale at each step; no
// other component mutates it.
type Composer struct {
	opts  Options
	det   Detector
	log   *slog.Logger
	sink  DebugSink
	pano  *imgpkg.RGB
	pairs []PairMetrics
}

// NewComposer creates a composer using det for feature extraction.
func NewComposer(det Detector, opts Options) *Composer {
	if opts.Ratio == 0 {
		opts.Ratio = 0.75
	}
	if opts.RansacIters == 0 {
		opts.RansacIters = 1000
	}
	if opts.ReprojThresh == 0 {
		opts.ReprojThresh = 3.0
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Composer{opts: opts, det: det, log: log}
}

// SetDebugSink installs a sink for intermediate artifacts. Only used
// when Options.Debug is set.
func (c *Composer) SetDebugSink(s DebugSink) { c.sink = s }

// Panorama returns the current canvas (nil before the first image).
func (c *Composer) Panorama() *imgpkg.RGB { return c.pano }

// Metrics returns the per-pair metrics recorded so far.
func (c *Composer) Metrics() []PairMetrics { return c.pairs }

// Stitch composes the image sequence into a single auto-cropped
// panorama. If a pair fails to align, composition stops early and the
// best panorama so far is returned; an error is only returned when no
// panorama could be produced at all.
func (c *Composer) Stitch(imgs []*imgpkg.RGB) (*imgpkg.RGB, error) {
	if len(imgs) == 0 {
		return nil, errors.New("stitch: no input images")
	}
	c.pano = imgs[0].Clone()

	for i := 1; i < len(imgs); i++ {
		c.log.Info("compositing pair", "index", i, "of", len(imgs)-1)
		if err := c.addImage(i, imgs[i]); err != nil {
			c.log.Warn("stopping early, pair could not be aligned", "index", i, "err", err)
			break
		}
	}

	return c.AutoCrop(), nil
}

// AutoCrop trims the black border from the current panorama and
// returns the result. The canvas itself is replaced by the crop.
func (c *Composer) AutoCrop() *imgpkg.RGB {
	if c.pano == nil {
		return nil
	}
	bounds := imgpkg.NonzeroBounds(c.pano)
	if bounds.Empty() {
		return c.pano
	}
	c.pano = c.pano.Crop(bounds)
	return c.pano
}

// addImage runs one pass of the per-pair state machine: match,
// estimate both directions, orient, warp, blend. The canvas is only
// replaced once the whole pass succeeds.
func (c *Composer) addImage(index int, img *imgpkg.RGB) error {
	m := PairMetrics{PairIndex: index}

	panoFeat, err := c.det.Detect(c.pano)
	if err != nil {
		return fmt.Errorf("detect panorama features: %w", err)
	}
	newFeat, err := c.det.Detect(img)
	if err != nil {
		return fmt.Errorf("detect image features: %w", err)
	}
	m.PanoKeypoints = len(panoFeat.Keypoints)
	m.NewKeypoints = len(newFeat.Keypoints)

	if c.opts.Debug && c.sink != nil {
		_ = c.sink.SaveImage(fmt.Sprintf("kps_%d", index), keypointOverlay(img, newFeat.Keypoints))
	}

	// Matched.
	t0 := time.Now()
	knn := match.BruteForceKNN(panoFeat.Descriptors, newFeat.Descriptors, c.opts.Metric, 2)
	good := match.RatioTest(knn, c.opts.Ratio)
	m.RawMatches = len(knn)
	m.GoodMatches = len(good)
	m.MatchTime = time.Since(t0)
	c.log.Debug("matched", "raw", m.RawMatches, "good", m.GoodMatches)

	panoPts := make([]geometry.Point2D, len(good))
	newPts := make([]geometry.Point2D, len(good))
	for i, g := range good {
		kp := panoFeat.Keypoints[g.QueryIdx]
		panoPts[i] = geometry.Point2D{X: kp.X, Y: kp.Y}
		kn := newFeat.Keypoints[g.TrainIdx]
		newPts[i] = geometry.Point2D{X: kn.X, Y: kn.Y}
	}

	// Estimated: both directions, independently.
	t0 = time.Now()
	hP2N, maskP2N, errP2N := homography.Ransac(panoPts, newPts, c.opts.RansacIters, c.opts.ReprojThresh)
	hN2P, maskN2P, errN2P := homography.Ransac(newPts, panoPts, c.opts.RansacIters, c.opts.ReprojThresh)
	m.EstimateTime = time.Since(t0)

	okP2N := errP2N == nil && hP2N.IsFinite()
	okN2P := errN2P == nil && hN2P.IsFinite()
	if !okP2N && !okN2P {
		return fmt.Errorf("%w: no direction produced a finite homography", ErrPairFailed)
	}

	// Oriented: pick the direction with more inliers. Ties go to
	// new->pano; the >= is a fixed documented convention, not a
	// principled choice.
	m.InliersPanoToNew = countMask(maskP2N)
	m.InliersNewToPano = countMask(maskN2P)
	useN2P := okN2P && (!okP2N || m.InliersNewToPano >= m.InliersPanoToNew)
	m.UsedNewToPano = useN2P

	var hNewToPano geometry.Homography
	if useN2P {
		hNewToPano = hN2P
		m.InlierCount = m.InliersNewToPano
		m.MeanReprojError = meanInlierError(hN2P, newPts, panoPts, maskN2P)
	} else {
		inv, ok := hP2N.Inverse()
		if !ok || !inv.IsFinite() {
			return fmt.Errorf("%w: chosen homography is not invertible", ErrPairFailed)
		}
		hNewToPano = inv
		m.InlierCount = m.InliersPanoToNew
		m.MeanReprojError = meanInlierError(hP2N, panoPts, newPts, maskP2N)
	}
	if m.GoodMatches > 0 {
		m.InlierRatio = float64(m.InlierCount) / float64(m.GoodMatches)
	}
	c.log.Debug("oriented",
		"inliersPanoToNew", m.InliersPanoToNew,
		"inliersNewToPano", m.InliersNewToPano,
		"useNewToPano", useN2P)

	// Canvas growth: union of the transformed image corners with the
	// existing panorama rectangle, with a nonnegative translation so
	// the warp writes directly into the enlarged frame.
	imgRect := geometry.NewRect(0, 0, float64(img.Width), float64(img.Height))
	corners := imgRect.Corners()
	warped := hNewToPano.ApplyAll(corners[:])
	bbox := geometry.BoundingBox(warped).
		Union(geometry.NewRect(0, 0, float64(c.pano.Width), float64(c.pano.Height)))

	tx, ty := 0, 0
	if bbox.X < 0 {
		tx = int(math.Floor(-bbox.X))
	}
	if bbox.Y < 0 {
		ty = int(math.Floor(-bbox.Y))
	}
	outW := int(math.Ceil(bbox.X+bbox.Width)) + tx
	outH := int(math.Ceil(bbox.Y+bbox.Height)) + ty
	m.CanvasWidth, m.CanvasHeight = outW, outH

	// Warped.
	t0 = time.Now()
	shifted := geometry.TranslationHomography(float64(tx), float64(ty)).Mul(hNewToPano)
	warpedImg, ok := warp.Perspective(img, shifted, outW, outH)
	if !ok {
		return fmt.Errorf("%w: warp homography is singular", ErrPairFailed)
	}
	m.WarpTime = time.Since(t0)

	canvas := imgpkg.NewRGB(outW, outH).Place(c.pano, tx, ty)
	topMask := imgpkg.NonzeroMask(warpedImg)
	panoRect := geometry.RectInt{X: tx, Y: ty, Width: c.pano.Width, Height: c.pano.Height}
	m.SeamMeanAbsDiff, m.SeamPixels = seamDifference(canvas, warpedImg, topMask, panoRect)

	if c.opts.Debug && c.sink != nil {
		_ = c.sink.SaveImage(fmt.Sprintf("warped_%d", index), warpedImg)
	}

	// Blended.
	t0 = time.Now()
	var blended *imgpkg.RGB
	switch c.opts.BlendMode {
	case blend.ModeOverlay:
		blended = blend.Overlay(canvas, warpedImg, topMask)
	default:
		baseMask := imgpkg.NewMask(outW, outH)
		baseMask.FillRect(panoRect, 255)
		weights := blend.FeatherWeights(topMask, baseMask)
		blended = blend.Feather(canvas, warpedImg, weights)
	}
	m.BlendTime = time.Since(t0)

	if c.opts.Debug && c.sink != nil {
		_ = c.sink.SaveImage(fmt.Sprintf("canvas_%d", index), blended)
	}

	c.pano = blended
	c.pairs = append(c.pairs, m)
	return nil
}

func countMask(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// meanInlierError averages the reprojection error of h over the
// inlier correspondences.
func meanInlierError(h geometry.Homography, src, dst []geometry.Point2D, mask []bool) float64 {
	var sum float64
	n := 0
	for i, in := range mask {
		if in {
			sum += homography.ReprojectionError(h, src[i], dst[i])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// seamDifference measures the mean absolute luminance difference
// between the placed panorama and the warped image over their overlap,
// before blending. A rough alignment-quality signal.
func seamDifference(base, top *imgpkg.RGB, topMask *imgpkg.Mask, baseRect geometry.RectInt) (float64, int) {
	var sum float64
	n := 0
	x1 := baseRect.X + baseRect.Width
	y1 := baseRect.Y + baseRect.Height
	for y := max(baseRect.Y, 0); y < min(y1, base.Height); y++ {
		for x := max(baseRect.X, 0); x < min(x1, base.Width); x++ {
			if topMask.At(x, y) == 0 {
				continue
			}
			d := float64(base.GrayAt(x, y)) - float64(top.GrayAt(x, y))
			sum += math.Abs(d)
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
