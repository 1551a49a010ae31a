package detect

import (
	"fmt"

	"gocv.io/x/gocv"

	imgpkg "panostitch/internal/image"
	"panostitch/internal/match"
	"panostitch/internal/stitch"
)

// orbFeatures matches the original pipeline's ORB budget; the OpenCV
// default of 500 keypoints is too sparse for wide-baseline panoramas.
const orbFeatures = 5000

// GoCV is a stitch.Detector backed by one of OpenCV's feature
// extractors. Construct with NewGoCV and Close when done; the
// underlying detector holds native resources.
type GoCV struct {
	kind Kind

	orb   gocv.ORB
	sift  gocv.SIFT
	akaze gocv.AKAZE
}

// NewGoCV creates a detector of the given kind.
func NewGoCV(kind Kind) (*GoCV, error) {
	d := &GoCV{kind: kind}
	switch kind {
	case KindORB:
		d.orb = gocv.NewORBWithParams(orbFeatures, 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	case KindSIFT:
		d.sift = gocv.NewSIFT()
	case KindAKAZE:
		d.akaze = gocv.NewAKAZE()
	default:
		return nil, fmt.Errorf("detect: unknown detector kind %d", int(kind))
	}
	return d, nil
}

// Kind returns the detector family.
func (d *GoCV) Kind() Kind { return d.kind }

// Close releases the native detector.
func (d *GoCV) Close() error {
	switch d.kind {
	case KindORB:
		return d.orb.Close()
	case KindSIFT:
		return d.sift.Close()
	case KindAKAZE:
		return d.akaze.Close()
	}
	return nil
}

// Detect extracts keypoints and descriptors from img. Detection runs
// on the grayscale plane, as the original extractors expect.
func (d *GoCV) Detect(img *imgpkg.RGB) (stitch.Features, error) {
	mat, err := gocv.ImageToMatRGB(img.ToGoImage())
	if err != nil {
		return stitch.Features{}, fmt.Errorf("detect: convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	noMask := gocv.NewMat()
	defer noMask.Close()

	var kps []gocv.KeyPoint
	var desc gocv.Mat
	switch d.kind {
	case KindORB:
		kps, desc = d.orb.DetectAndCompute(gray, noMask)
	case KindSIFT:
		kps, desc = d.sift.DetectAndCompute(gray, noMask)
	case KindAKAZE:
		kps, desc = d.akaze.DetectAndCompute(gray, noMask)
	}
	defer desc.Close()

	out := stitch.Features{Keypoints: make([]stitch.Keypoint, len(kps))}
	for i, kp := range kps {
		out.Keypoints[i] = stitch.Keypoint{X: kp.X, Y: kp.Y, Size: kp.Size, Response: kp.Response}
	}
	out.Descriptors, err = descriptorsFromMat(desc, d.kind)
	if err != nil {
		return stitch.Features{}, err
	}
	if out.Descriptors.Len() != len(out.Keypoints) {
		return stitch.Features{}, fmt.Errorf("detect: %d keypoints but %d descriptors",
			len(out.Keypoints), out.Descriptors.Len())
	}
	return out, nil
}

// descriptorsFromMat copies a row-per-keypoint descriptor matrix out
// of native memory. ORB rows stay as binary codes; SIFT rows are
// float; AKAZE's byte rows are widened to float so they can be
// compared under L2, as the original pipeline did.
func descriptorsFromMat(m gocv.Mat, kind Kind) (match.Descriptors, error) {
	rows, cols := m.Rows(), m.Cols()
	if rows == 0 || cols == 0 {
		return match.Descriptors{}, nil
	}

	switch kind {
	case KindORB:
		data, err := m.DataPtrUint8()
		if err != nil {
			return match.Descriptors{}, fmt.Errorf("detect: descriptor data: %w", err)
		}
		bin := make([][]byte, rows)
		for i := 0; i < rows; i++ {
			row := make([]byte, cols)
			copy(row, data[i*cols:(i+1)*cols])
			bin[i] = row
		}
		return match.Descriptors{Binary: bin}, nil

	case KindSIFT:
		data, err := m.DataPtrFloat32()
		if err != nil {
			return match.Descriptors{}, fmt.Errorf("detect: descriptor data: %w", err)
		}
		fl := make([][]float32, rows)
		for i := 0; i < rows; i++ {
			row := make([]float32, cols)
			copy(row, data[i*cols:(i+1)*cols])
			fl[i] = row
		}
		return match.Descriptors{Float: fl}, nil

	default: // AKAZE
		data, err := m.DataPtrUint8()
		if err != nil {
			return match.Descriptors{}, fmt.Errorf("detect: descriptor data: %w", err)
		}
		fl := make([][]float32, rows)
		for i := 0; i < rows; i++ {
			row := make([]float32, cols)
			for j := 0; j < cols; j++ {
				row[j] = float32(data[i*cols+j])
			}
			fl[i] = row
		}
		return match.Descriptors{Float: fl}, nil
	}
}
