package stitch

import (
	imgpkg "panostitch/internal/image"
	"panostitch/internal/match"
)

// Keypoint is a detected interest point. The pipeline only consumes
// the position; size and response ride along for telemetry and debug
// overlays.
type Keypoint struct {
	X        float64
	Y        float64
	Size     float64
	Response float64
}

// Features pairs a keypoint sequence with its index-aligned descriptor
// set, as produced by a detector.
type Features struct {
	Keypoints   []Keypoint
	Descriptors match.Descriptors
}

// Detector is the external feature-extraction collaborator. An
// implementation must return descriptors index-aligned with the
// keypoints; which distance metric those descriptors require is
// configured on the composer, not inferred here.
type Detector interface {
	Detect(img *imgpkg.RGB) (Features, error)
}
