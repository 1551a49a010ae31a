// Package config holds the user-editable run configuration for the
// stitcher and its JSON persistence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds every knob the CLI exposes. Field defaults come from
// Default; flags override loaded values.
type Config struct {
	Stitch  Stitch  `json:"stitch"`
	Logging Logging `json:"logging"`
	Output  Output  `json:"output"`
}

// Stitch configures the geometric pipeline.
type Stitch struct {
	Detector     string  `json:"detector"`      // orb, sift, akaze
	BlendMode    string  `json:"blend"`         // overlay, feather
	Ratio        float64 `json:"ratio"`         // ratio-test threshold
	RansacIters  int     `json:"ransac_iters"`  // RANSAC iterations
	ReprojThresh float64 `json:"reproj_thresh"` // inlier threshold, pixels
	MaxDimension int     `json:"max_dimension"` // downscale bound, 0 disables
	Debug        bool    `json:"debug"`         // emit intermediate artifacts
}

// Logging controls verbosity and format.
type Logging struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
}

// Output configures where run artifacts land.
type Output struct {
	Root string `json:"root"` // parent of per-run directories
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Stitch: Stitch{
			Detector:     "orb",
			BlendMode:    "feather",
			Ratio:        0.75,
			RansacIters:  1000,
			ReprojThresh: 3.0,
			MaxDimension: 0,
		},
		Logging: Logging{Level: "info", Format: "text"},
		Output:  Output{Root: "results"},
	}
}

// Load reads a JSON config from path, applying defaults for absent
// fields. A missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
