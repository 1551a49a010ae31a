// Package telemetry persists run artifacts: the parameter summary, the
// per-pair metrics CSV, and debug images. The composer only exposes
// numbers; everything about their on-disk shape lives here.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"panostitch/internal/config"
	imgpkg "panostitch/internal/image"
	"panostitch/internal/imageio"
	"panostitch/internal/stitch"
)

// Run is a per-invocation output directory.
type Run struct {
	Dir string
}

// NewRun creates a timestamped run directory under root, mirroring the
// run_YYYYmmdd_HHMMSS layout of previous tooling.
func NewRun(root string) (*Run, error) {
	dir := filepath.Join(root, time.Now().Format("run_20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create run dir: %w", err)
	}
	return &Run{Dir: dir}, nil
}

// Path returns a file path inside the run directory.
func (r *Run) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// WriteParams records the stitch parameters used for the run.
func (r *Run) WriteParams(cfg config.Stitch) error {
	f, err := os.Create(r.Path("params.txt"))
	if err != nil {
		return fmt.Errorf("telemetry: params: %w", err)
	}
	defer f.Close()
	fmt.Fprintf(f, "detector=%s\n", cfg.Detector)
	fmt.Fprintf(f, "blend=%s\n", cfg.BlendMode)
	fmt.Fprintf(f, "ratio=%g\n", cfg.Ratio)
	fmt.Fprintf(f, "ransac_iter=%d\n", cfg.RansacIters)
	fmt.Fprintf(f, "reproj_th=%g\n", cfg.ReprojThresh)
	fmt.Fprintf(f, "debug=%t\n", cfg.Debug)
	return nil
}

// WriteMetricsCSV writes one row per composed pair.
func (r *Run) WriteMetricsCSV(pairs []stitch.PairMetrics) error {
	f, err := os.Create(r.Path("metrics.csv"))
	if err != nil {
		return fmt.Errorf("telemetry: metrics: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"pair", "pano_kps", "new_kps", "raw_matches", "good_matches",
		"inliers_p2n", "inliers_n2p", "used_n2p", "inliers", "inlier_ratio",
		"mean_reproj_err", "seam_mean_abs_diff", "seam_pixels",
		"match_ms", "estimate_ms", "warp_ms", "blend_ms",
		"canvas_w", "canvas_h",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("telemetry: metrics: %w", err)
	}
	for _, p := range pairs {
		row := []string{
			strconv.Itoa(p.PairIndex),
			strconv.Itoa(p.PanoKeypoints),
			strconv.Itoa(p.NewKeypoints),
			strconv.Itoa(p.RawMatches),
			strconv.Itoa(p.GoodMatches),
			strconv.Itoa(p.InliersPanoToNew),
			strconv.Itoa(p.InliersNewToPano),
			strconv.FormatBool(p.UsedNewToPano),
			strconv.Itoa(p.InlierCount),
			strconv.FormatFloat(p.InlierRatio, 'f', 4, 64),
			strconv.FormatFloat(p.MeanReprojError, 'f', 3, 64),
			strconv.FormatFloat(p.SeamMeanAbsDiff, 'f', 3, 64),
			strconv.Itoa(p.SeamPixels),
			strconv.FormatFloat(p.MatchTime.Seconds()*1000, 'f', 1, 64),
			strconv.FormatFloat(p.EstimateTime.Seconds()*1000, 'f', 1, 64),
			strconv.FormatFloat(p.WarpTime.Seconds()*1000, 'f', 1, 64),
			strconv.FormatFloat(p.BlendTime.Seconds()*1000, 'f', 1, 64),
			strconv.Itoa(p.CanvasWidth),
			strconv.Itoa(p.CanvasHeight),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("telemetry: metrics: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// SaveImage implements stitch.DebugSink, saving intermediate canvases
// as JPEGs in the run directory.
func (r *Run) SaveImage(name string, img *imgpkg.RGB) error {
	return imageio.Save(r.Path(name+".jpg"), img)
}
