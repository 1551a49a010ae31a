// Package match turns two descriptor sets into a filtered list of
// point correspondences: brute-force nearest-neighbor search under a
// configured metric, followed by Lowe's ratio test.
package match

import (
	"fmt"
	"math"
	"math/bits"
)

// Metric selects the distance function used for descriptor comparison.
// The choice is tied to the detector that produced the descriptors
// (binary codes vs floating vectors) and is explicit configuration,
// never inferred from the data.
type Metric int

const (
	// MetricL2 is Euclidean distance over floating-point vectors.
	MetricL2 Metric = iota
	// MetricHamming is the differing-bit count over binary codes.
	MetricHamming
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricHamming:
		return "Hamming"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Match pairs a query descriptor index with its nearest train index.
// Dist is in metric units: Euclidean for float descriptors, bit count
// for binary ones.
type Match struct {
	QueryIdx int
	TrainIdx int
	Dist     float64
}

// KNNPair holds the best and second-best neighbor for one query.
type KNNPair struct {
	Best   Match
	Second Match
}

// Descriptors is the index-aligned descriptor set a detector produces.
// Exactly one of Float or Binary is populated; every row has the same
// length.
type Descriptors struct {
	Float  [][]float32
	Binary [][]byte
}

// Len returns the number of descriptors.
func (d Descriptors) Len() int {
	if d.Float != nil {
		return len(d.Float)
	}
	return len(d.Binary)
}

// Euclidean returns the L2 distance between two float vectors.
// Mismatched or empty shapes are caller bugs and panic.
func Euclidean(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		panic(fmt.Sprintf("match: descriptor length mismatch: %d vs %d", len(a), len(b)))
	}
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return math.Sqrt(s)
}

// Hamming returns the number of differing bits between two binary
// descriptors. Mismatched byte lengths are caller bugs and panic.
func Hamming(a, b []byte) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("match: descriptor length mismatch: %d vs %d", len(a), len(b)))
	}
	dist := 0
	for i := range a {
		dist += bits.OnesCount8(a[i] ^ b[i])
	}
	return dist
}

// distance dispatches on the metric. The descriptor variant must agree
// with the metric; disagreement is a configuration bug.
func distance(metric Metric, a, b Descriptors, i, j int) float64 {
	switch metric {
	case MetricHamming:
		if a.Binary == nil || b.Binary == nil {
			panic("match: Hamming metric requires binary descriptors")
		}
		return float64(Hamming(a.Binary[i], b.Binary[j]))
	default:
		if a.Float == nil || b.Float == nil {
			panic("match: L2 metric requires float descriptors")
		}
		return Euclidean(a.Float[i], b.Float[j])
	}
}

// BruteForce finds, for every descriptor in a, the single nearest
// neighbor in b by exhaustive scan. Empty inputs yield an empty result.
func BruteForce(a, b Descriptors, metric Metric) []Match {
	na, nb := a.Len(), b.Len()
	if na == 0 || nb == 0 {
		return nil
	}
	matches := make([]Match, 0, na)
	for i := 0; i < na; i++ {
		best := math.Inf(1)
		bestIdx := -1
		for j := 0; j < nb; j++ {
			if d := distance(metric, a, b, i, j); d < best {
				best = d
				bestIdx = j
			}
		}
		if bestIdx >= 0 {
			matches = append(matches, Match{QueryIdx: i, TrainIdx: bestIdx, Dist: best})
		}
	}
	return matches
}

// BruteForceKNN finds the best and second-best neighbor in b for every
// descriptor in a, tracked in a single scan. k exists for interface
// symmetry with the usual kNN matchers; anything below 2 (or an empty
// input) yields an empty result.
func BruteForceKNN(a, b Descriptors, metric Metric, k int) []KNNPair {
	na, nb := a.Len(), b.Len()
	if na == 0 || nb == 0 || k < 2 {
		return nil
	}
	pairs := make([]KNNPair, 0, na)
	for i := 0; i < na; i++ {
		best, second := math.Inf(1), math.Inf(1)
		bestIdx, secondIdx := -1, -1
		for j := 0; j < nb; j++ {
			d := distance(metric, a, b, i, j)
			if d < best {
				second, secondIdx = best, bestIdx
				best, bestIdx = d, j
			} else if d < second {
				second, secondIdx = d, j
			}
		}
		if bestIdx >= 0 && secondIdx >= 0 {
			pairs = append(pairs, KNNPair{
				Best:   Match{QueryIdx: i, TrainIdx: bestIdx, Dist: best},
				Second: Match{QueryIdx: i, TrainIdx: secondIdx, Dist: second},
			})
		}
	}
	return pairs
}

// RatioTest keeps a pair's best match iff best/second < ratio,
// strictly. Pairs whose second-best distance is numerically zero are
// discarded outright to avoid the division blowing up.
func RatioTest(pairs []KNNPair, ratio float64) []Match {
	good := make([]Match, 0, len(pairs))
	for _, p := range pairs {
		if p.Second.Dist <= 1e-12 {
			continue
		}
		if p.Best.Dist/p.Second.Dist < ratio {
			good = append(good, p.Best)
		}
	}
	return good
}
