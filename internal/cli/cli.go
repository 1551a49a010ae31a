// Package cli wires the stitching pipeline into a cobra command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"panostitch/internal/blend"
	"panostitch/internal/config"
	"panostitch/internal/detect"
	imgpkg "panostitch/internal/image"
	"panostitch/internal/imageio"
	"panostitch/internal/logging"
	"panostitch/internal/stitch"
	"panostitch/internal/telemetry"
	"panostitch/internal/version"
)

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		detector   string
		blendMode  string
		ratio      float64
		ransac     int
		thresh     float64
		maxDim     int
		debug      bool
		outRoot    string
		logLevel   string
		logFormat  string
	)

	rootCmd := &cobra.Command{
		Use:   "panostitch [flags] image1 image2 [image3 ...]",
		Short: "panostitch builds panoramas from overlapping images",
		Long: `panostitch estimates pairwise homographies between overlapping images
with a normalized DLT solver inside a RANSAC loop, warps each image into a
growing canvas, and blends the result into a single auto-cropped panorama.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Flags override the config file only when set.
			f := cmd.Flags()
			if f.Changed("det") {
				cfg.Stitch.Detector = detector
			}
			if f.Changed("blend") {
				cfg.Stitch.BlendMode = blendMode
			}
			if f.Changed("ratio") {
				cfg.Stitch.Ratio = ratio
			}
			if f.Changed("ransac") {
				cfg.Stitch.RansacIters = ransac
			}
			if f.Changed("th") {
				cfg.Stitch.ReprojThresh = thresh
			}
			if f.Changed("max-dim") {
				cfg.Stitch.MaxDimension = maxDim
			}
			if f.Changed("debug") {
				cfg.Stitch.Debug = debug
			}
			if f.Changed("out") {
				cfg.Output.Root = outRoot
			}
			if f.Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if f.Changed("log-format") {
				cfg.Logging.Format = logFormat
			}
			log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			return runStitch(cfg, log, args)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "panostitch.json", "Config file path")
	rootCmd.Flags().StringVar(&detector, "det", "orb", "Feature detector: orb, sift or akaze")
	rootCmd.Flags().StringVar(&blendMode, "blend", "feather", "Blend mode: overlay or feather")
	rootCmd.Flags().Float64Var(&ratio, "ratio", 0.75, "Ratio-test threshold")
	rootCmd.Flags().IntVar(&ransac, "ransac", 1000, "RANSAC iterations")
	rootCmd.Flags().Float64Var(&thresh, "th", 3.0, "Reprojection threshold in pixels")
	rootCmd.Flags().IntVar(&maxDim, "max-dim", 0, "Downscale inputs whose longer side exceeds this (0 = off)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Save intermediate artifacts")
	rootCmd.Flags().StringVar(&outRoot, "out", "results", "Parent directory for run output")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func runStitch(cfg *config.Config, log *slog.Logger, paths []string) error {
	kind, err := detect.ParseKind(cfg.Stitch.Detector)
	if err != nil {
		return err
	}
	mode, err := blend.ParseMode(cfg.Stitch.BlendMode)
	if err != nil {
		return err
	}

	imgs := make([]*imgpkg.RGB, 0, len(paths))
	for _, p := range paths {
		img, err := imageio.Load(p)
		if err != nil {
			return err
		}
		img = imageio.Downscale(img, cfg.Stitch.MaxDimension)
		log.Info("loaded image", "path", p, "width", img.Width, "height", img.Height)
		imgs = append(imgs, img)
	}

	det, err := detect.NewGoCV(kind)
	if err != nil {
		return err
	}
	defer det.Close()

	run, err := telemetry.NewRun(cfg.Output.Root)
	if err != nil {
		return err
	}
	if err := run.WriteParams(cfg.Stitch); err != nil {
		return err
	}

	composer := stitch.NewComposer(det, stitch.Options{
		Metric:       kind.Metric(),
		BlendMode:    mode,
		Ratio:        cfg.Stitch.Ratio,
		RansacIters:  cfg.Stitch.RansacIters,
		ReprojThresh: cfg.Stitch.ReprojThresh,
		Debug:        cfg.Stitch.Debug,
		Logger:       log,
	})
	composer.SetDebugSink(run)

	pano, err := composer.Stitch(imgs)
	if err != nil {
		return err
	}

	outPath := run.Path("panorama.jpg")
	if err := imageio.Save(outPath, pano); err != nil {
		return err
	}
	if err := run.WriteMetricsCSV(composer.Metrics()); err != nil {
		return err
	}

	summary := stitch.Summarize(composer.Metrics())
	log.Info("panorama saved",
		"path", outPath,
		"pairs", summary.Pairs,
		"meanInlierRatio", summary.MeanInlierRatio,
		"meanReprojErr", summary.MeanReprojError,
		"elapsed", summary.TotalTime)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("panostitch %s (commit %s, built %s)\n",
				version.Version, version.GitCommit, version.BuildTime)
		},
	}
}

func newConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "panostitch.json", "Destination path")
	return cmd
}
