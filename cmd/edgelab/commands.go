package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/edge-tools/internal/detection"
	"github.com/ironsheep/edge-tools/internal/experiment"
	"github.com/ironsheep/edge-tools/internal/imaging"
	"github.com/ironsheep/edge-tools/internal/vision"
)

const logLevelEnv = "EDGELAB_LOG_LEVEL"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "edgelab",
		Short:         "Gaussian smoothing, Sobel gradients and edge classification experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Enable debug logging (overrides "+logLevelEnv+")")

	rootCmd.AddCommand(newRunCmd(), newDetectCmd(), newKernelCmd(), newVersionCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sigma and threshold experiments",
		Long: `Run experiment A (effect of Gaussian sigma on noisy input) and experiment B
(single threshold versus hysteresis), writing PNGs and report.yaml to the
output directory. Without --image, or when the image cannot be read, a
synthetic warehouse scene is used.`,
		Args: cobra.NoArgs,
		RunE: runHandler,
	}
	cmd.Flags().StringP("config", "c", "", "YAML config file (defaults apply to missing keys)")
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().String("image", "", "Input image")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().IntP("workers", "j", 0, "Concurrent variants (0 = one per CPU)")
	cmd.Flags().Bool("write-config", false, "Write the effective config next to the report")
	return cmd
}

func runHandler(cmd *cobra.Command, _ []string) error {
	cfg := experiment.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := experiment.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("image") {
		cfg.Image, _ = flags.GetString("image")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}

	logger := newLogger(cmd)
	report, err := experiment.NewRunner(cfg, logger).Run(cmd.Context())
	if err != nil {
		return err
	}

	if write, _ := flags.GetBool("write-config"); write {
		if err := experiment.WriteConfig(cfg, filepath.Join(cfg.OutputDir, "config.yaml")); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	experiment.WriteSummary(cmd.OutOrStdout(), report)
	return nil
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect IMAGE",
		Short: "Run the edge pipeline on one image and write the edge map",
		Args:  cobra.ExactArgs(1),
		RunE:  detectHandler,
	}
	cmd.Flags().StringP("output", "o", "edges.png", "Output PNG")
	cmd.Flags().String("mode", string(detection.ModeHysteresis), "Classifier: simple or hysteresis")
	cmd.Flags().Float64("threshold", 60, "Threshold for simple mode")
	cmd.Flags().Float64("low", 50, "Low threshold for hysteresis")
	cmd.Flags().Float64("high", 150, "High threshold for hysteresis")
	cmd.Flags().Int("smooth-size", 5, "Gaussian pre-filter size (1 disables smoothing)")
	cmd.Flags().Float64("smooth-sigma", 1.4, "Gaussian pre-filter sigma")
	cmd.Flags().String("boundary", vision.Reflect.String(), "Padding for smoothing: reflect, zero or replicate")
	cmd.Flags().Bool("thin", false, "Apply non-maximum suppression")
	cmd.Flags().Bool("canny", false, "Use the Canny preset (ignores mode and smoothing flags)")
	return cmd
}

func detectHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	logger := newLogger(cmd)

	g, err := imaging.NewImageCache().LoadGrid(args[0])
	if err != nil {
		return err
	}

	var opts detection.Options
	low, _ := flags.GetFloat64("low")
	high, _ := flags.GetFloat64("high")
	if canny, _ := flags.GetBool("canny"); canny {
		opts = detection.CannyOptions(low, high)
	} else {
		modeName, _ := flags.GetString("mode")
		if opts.Mode, err = detection.ParseMode(modeName); err != nil {
			return err
		}
		boundaryName, _ := flags.GetString("boundary")
		if opts.Boundary, err = vision.ParseBoundary(boundaryName); err != nil {
			return err
		}
		opts.Threshold, _ = flags.GetFloat64("threshold")
		opts.Low, opts.High = low, high
		opts.Thin, _ = flags.GetBool("thin")
		size, _ := flags.GetInt("smooth-size")
		sigma, _ := flags.GetFloat64("smooth-sigma")
		if size != 1 {
			opts.Smoothing = &detection.Smoothing{Size: size, Sigma: sigma}
		}
	}

	res, err := detection.Detect(g, opts)
	if err != nil {
		return err
	}
	output, _ := flags.GetString("output")
	if err := imaging.SaveGrid(res.Edges, output); err != nil {
		return err
	}
	logger.Debug("edge map written", "output", output, "mode", opts.Mode)

	writeStats(cmd.OutOrStdout(), output, res.Stats)
	return nil
}

func writeStats(w io.Writer, output string, s detection.Stats) {
	fmt.Fprintf(w, "wrote %s\n", output)
	fmt.Fprintf(w, "  edge pixels:       %d (%.2f%%)\n", s.EdgePixels, 100*s.EdgeFraction)
	fmt.Fprintf(w, "  segments:          %d\n", s.Segments)
	fmt.Fprintf(w, "  mean segment size: %.1f\n", s.MeanSegmentSize)
	fmt.Fprintf(w, "  largest segment:   %d\n", s.LargestSegment)
}

func newKernelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kernel",
		Short: "Print a normalized Gaussian kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size, _ := cmd.Flags().GetInt("size")
			sigma, _ := cmd.Flags().GetFloat64("sigma")
			k, err := vision.Gaussian(size, sigma)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, row := range k.Rows() {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = fmt.Sprintf("%.6f", v)
				}
				fmt.Fprintln(w, strings.Join(cells, " "))
			}
			fmt.Fprintf(w, "sum %.6f\n", k.Sum())
			return nil
		},
	}
	cmd.Flags().IntP("size", "s", 5, "Odd side length")
	cmd.Flags().Float64("sigma", 1.0, "Standard deviation in pixels")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "edgelab %s\n", Version)
			fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
		},
	}
}

// newLogger builds the stderr logger. --verbose wins over the environment.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := parseLevel(os.Getenv(logLevelEnv))
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
