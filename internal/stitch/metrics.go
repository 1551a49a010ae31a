package stitch

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// PairMetrics records the per-pair quality and timing numbers the
// pipeline produces as a side effect of composing one image into the
// panorama. Persistence is the caller's concern; the composer only
// exposes the values.
type PairMetrics struct {
	PairIndex int

	PanoKeypoints int
	NewKeypoints  int
	RawMatches    int
	GoodMatches   int

	InliersPanoToNew int
	InliersNewToPano int
	UsedNewToPano    bool
	InlierCount      int
	InlierRatio      float64
	MeanReprojError  float64

	SeamMeanAbsDiff float64
	SeamPixels      int

	MatchTime    time.Duration
	EstimateTime time.Duration
	WarpTime     time.Duration
	BlendTime    time.Duration

	CanvasWidth  int
	CanvasHeight int
}

// RunSummary aggregates pair metrics across a whole composition.
type RunSummary struct {
	Pairs           int
	MeanInlierRatio float64
	MeanReprojError float64
	MeanSeamDiff    float64
	TotalTime       time.Duration
}

// Summarize reduces per-pair metrics to run-level means.
func Summarize(pairs []PairMetrics) RunSummary {
	if len(pairs) == 0 {
		return RunSummary{}
	}
	ratios := make([]float64, len(pairs))
	reproj := make([]float64, len(pairs))
	seam := make([]float64, len(pairs))
	var total time.Duration
	for i, p := range pairs {
		ratios[i] = p.InlierRatio
		reproj[i] = p.MeanReprojError
		seam[i] = p.SeamMeanAbsDiff
		total += p.MatchTime + p.EstimateTime + p.WarpTime + p.BlendTime
	}
	return RunSummary{
		Pairs:           len(pairs),
		MeanInlierRatio: stat.Mean(ratios, nil),
		MeanReprojError: stat.Mean(reproj, nil),
		MeanSeamDiff:    stat.Mean(seam, nil),
		TotalTime:       total,
	}
}
