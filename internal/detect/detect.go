// Package detect provides the production feature detectors behind the
// stitching pipeline's Detector interface, backed by OpenCV via gocv.
package detect

import (
	"fmt"

	"panostitch/internal/match"
)

// Kind identifies a detector family. ORB emits fixed-width binary
// codes and is matched under Hamming distance; SIFT and AKAZE are
// matched under Euclidean distance.
type Kind int

const (
	KindORB Kind = iota
	KindSIFT
	KindAKAZE
)

func (k Kind) String() string {
	switch k {
	case KindORB:
		return "orb"
	case KindSIFT:
		return "sift"
	case KindAKAZE:
		return "akaze"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "orb":
		return KindORB, nil
	case "sift":
		return KindSIFT, nil
	case "akaze":
		return KindAKAZE, nil
	default:
		return 0, fmt.Errorf("detect: unknown detector %q", s)
	}
}

// Metric returns the distance metric the kind's descriptors require.
// AKAZE descriptors are byte-valued but compared under L2 after
// widening, so only ORB selects Hamming.
func (k Kind) Metric() match.Metric {
	if k == KindORB {
		return match.MetricHamming
	}
	return match.MetricL2
}
