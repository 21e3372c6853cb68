package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/edge-tools/internal/detection"
	"github.com/ironsheep/edge-tools/internal/imaging"
	"github.com/ironsheep/edge-tools/internal/synth"
	"github.com/ironsheep/edge-tools/internal/vision"
)

// Experiment names used in reports.
const (
	SigmaExperiment     = "sigma"
	ThresholdExperiment = "threshold"
)

// ReferenceVariant names the experiment B variant computed with bild.
const ReferenceVariant = "reference_bild"

// Runner executes both experiments for one Config.
type Runner struct {
	cfg    Config
	logger *slog.Logger
	cache  *imaging.ImageCache
}

// NewRunner returns a Runner. A nil logger uses slog.Default.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger, cache: imaging.NewImageCache()}
}

// Run loads or renders the input, runs experiments A and B, and writes
// report.yaml to the output directory.
//
// Randomness is drawn in a fixed order from a source seeded with
// Config.Seed before any variant starts, so a run is reproducible whatever
// the worker count.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		Config:    r.cfg,
	}
	rng := rand.New(rand.NewSource(r.cfg.Seed))

	src, origin, err := r.loadSource(rng)
	if err != nil {
		return nil, err
	}
	report.Source = origin
	report.Width, report.Height = src.Cols(), src.Rows()
	r.logger.Info("input ready", "source", origin, "width", src.Cols(), "height", src.Rows())
	if err := r.save(report, "original.png", src); err != nil {
		return nil, err
	}

	sigma, err := r.sigmaExperiment(ctx, report, src, rng)
	if err != nil {
		return nil, fmt.Errorf("sigma experiment: %w", err)
	}
	threshold, err := r.thresholdExperiment(ctx, report, src, rng)
	if err != nil {
		return nil, fmt.Errorf("threshold experiment: %w", err)
	}
	report.Variants = append(sigma, threshold...)
	report.ElapsedSeconds = time.Since(start).Seconds()

	if err := WriteReport(report, filepath.Join(r.cfg.OutputDir, ReportFile)); err != nil {
		return nil, err
	}
	r.logger.Info("run complete", "run_id", report.RunID, "variants", len(report.Variants),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (r *Runner) loadSource(rng *rand.Rand) (*vision.Grid, string, error) {
	if r.cfg.Image != "" {
		g, err := r.cache.LoadGrid(r.cfg.Image)
		if err == nil {
			return g, r.cfg.Image, nil
		}
		r.logger.Warn("falling back to synthetic scene", "image", r.cfg.Image, "error", err)
	}
	g, err := synth.Warehouse(r.cfg.Synthetic.Width, r.cfg.Synthetic.Height, rng)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render synthetic scene: %w", err)
	}
	return g, "synthetic", nil
}

func (r *Runner) sigmaExperiment(ctx context.Context, report *Report, src *vision.Grid, rng *rand.Rand) ([]VariantReport, error) {
	cfg := r.cfg.Sigma
	noisy, err := synth.SaltAndPepper(src, cfg.SaltPepper, rng)
	if err != nil {
		return nil, err
	}
	noisy, err = synth.GaussianNoise(noisy, 0, cfg.NoiseSigma, rng)
	if err != nil {
		return nil, err
	}
	if err := r.save(report, "a_noisy.png", noisy); err != nil {
		return nil, err
	}

	magnitudes := make([]*vision.Grid, len(cfg.Variants))
	tasks := make([]task, len(cfg.Variants))
	for i, v := range cfg.Variants {
		i, v := i, v
		tasks[i] = task{experiment: SigmaExperiment, name: v.Name, run: func() (VariantReport, error) {
			var out VariantReport
			input := noisy
			if v.Size > 0 {
				smoothed, err := detection.Smooth(noisy, detection.Smoothing{Size: v.Size, Sigma: v.Sigma}, cfg.Boundary)
				if err != nil {
					return out, err
				}
				if err := r.save(&out, "a_"+v.Name+"_smoothed.png", smoothed); err != nil {
					return out, err
				}
				input = smoothed
			}

			field, err := vision.SobelGradient(input)
			if err != nil {
				return out, err
			}
			if err := r.save(&out, "a_"+v.Name+"_magnitude.png", field.Magnitude); err != nil {
				return out, err
			}
			summary, err := detection.MagnitudeStats(field.Magnitude)
			if err != nil {
				return out, err
			}
			magnitudes[i] = field.Magnitude
			out.Peak = field.Peak
			out.Magnitude = &summary
			return out, nil
		}}
	}

	results, err := r.runTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}
	if err := r.savePanel(report, "a_comparison.png", magnitudes...); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) thresholdExperiment(ctx context.Context, report *Report, src *vision.Grid, rng *rand.Rand) ([]VariantReport, error) {
	cfg := r.cfg.Threshold
	noisy, err := synth.GaussianNoise(src, 0, cfg.NoiseSigma, rng)
	if err != nil {
		return nil, err
	}
	if err := r.save(report, "b_noisy.png", noisy); err != nil {
		return nil, err
	}
	smoothed, err := detection.Smooth(noisy, cfg.Smoothing, vision.Reflect)
	if err != nil {
		return nil, err
	}
	field, err := vision.SobelGradient(smoothed)
	if err != nil {
		return nil, err
	}
	if err := r.save(report, "b_magnitude.png", field.Magnitude); err != nil {
		return nil, err
	}
	best, err := vision.ClassifySimple(field.Magnitude, cfg.Best)
	if err != nil {
		return nil, err
	}

	var tasks []task
	for _, t := range cfg.Thresholds {
		t := t
		name := "T" + formatValue(t)
		tasks = append(tasks, task{experiment: ThresholdExperiment, name: "simple_" + name, run: func() (VariantReport, error) {
			edges, err := vision.ClassifySimple(field.Magnitude, t)
			if err != nil {
				return VariantReport{}, err
			}
			return r.edgeVariant("b_threshold_"+name+".png", edges, nil)
		}})
	}

	hysteresis := make([]*vision.Grid, len(cfg.Hysteresis))
	for i, p := range cfg.Hysteresis {
		i, p := i, p
		tasks = append(tasks, task{experiment: ThresholdExperiment, name: "hysteresis_" + p.String(), run: func() (VariantReport, error) {
			edges, err := vision.ClassifyHysteresis(field.Magnitude, p.Low, p.High)
			if err != nil {
				return VariantReport{}, err
			}
			hysteresis[i] = edges
			return r.edgeVariant("b_hysteresis_"+p.String()+".png", edges, best)
		}})
	}

	canny := make([]*vision.Grid, len(cfg.Canny))
	for i, p := range cfg.Canny {
		i, p := i, p
		tasks = append(tasks, task{experiment: ThresholdExperiment, name: "canny_" + p.String(), run: func() (VariantReport, error) {
			res, err := detection.Canny(noisy, p.Low, p.High)
			if err != nil {
				return VariantReport{}, err
			}
			canny[i] = res.Edges
			return r.edgeVariant("b_canny_"+p.String()+".png", res.Edges, best)
		}})
	}

	tasks = append(tasks, task{experiment: ThresholdExperiment, name: ReferenceVariant, run: func() (VariantReport, error) {
		return r.referenceVariant(noisy, best)
	}})

	results, err := r.runTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}

	panel := []*vision.Grid{best}
	if len(hysteresis) > 0 {
		panel = append(panel, hysteresis[0])
	}
	if len(canny) > 0 {
		panel = append(panel, canny[0])
	}
	if err := r.savePanel(report, "b_comparison.png", panel...); err != nil {
		return nil, err
	}
	return results, nil
}

// referenceVariant repeats the smoothing, gradient and best simple threshold
// with bild's blur and Sobel, and scores the edge map against best.
func (r *Runner) referenceVariant(noisy, best *vision.Grid) (VariantReport, error) {
	cfg := r.cfg.Threshold
	smoothed, err := detection.ReferenceBlur(noisy, cfg.Smoothing.Sigma)
	if err != nil {
		return VariantReport{}, err
	}
	magnitude, err := detection.ReferenceSobel(smoothed)
	if err != nil {
		return VariantReport{}, err
	}
	edges, err := vision.ClassifySimple(magnitude, cfg.Best)
	if err != nil {
		return VariantReport{}, err
	}

	out, err := r.edgeVariant("b_reference_T"+formatValue(cfg.Best)+".png", edges, best)
	if err != nil {
		return out, err
	}
	if err := r.save(&out, "b_reference_magnitude.png", magnitude); err != nil {
		return out, err
	}
	summary, err := detection.MagnitudeStats(magnitude)
	if err != nil {
		return out, err
	}
	out.Magnitude = &summary
	return out, nil
}

// edgeVariant saves an edge map and measures it. When best is non-nil the
// map is also scored against the best simple threshold.
func (r *Runner) edgeVariant(name string, edges, best *vision.Grid) (VariantReport, error) {
	var out VariantReport
	if err := r.save(&out, name, edges); err != nil {
		return out, err
	}
	stats, err := detection.Analyze(edges)
	if err != nil {
		return out, err
	}
	out.Edges = &stats
	if best != nil {
		iou, err := detection.Agreement(edges, best)
		if err != nil {
			return out, err
		}
		out.AgreementWithBest = &iou
	}
	return out, nil
}

type task struct {
	experiment string
	name       string
	run        func() (VariantReport, error)
}

// runTasks runs tasks on at most Workers goroutines and returns their
// reports in task order. The first failure cancels the tasks not yet
// started.
func (r *Runner) runTasks(ctx context.Context, tasks []task) ([]VariantReport, error) {
	results := make([]VariantReport, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			v, err := t.run()
			if err != nil {
				return fmt.Errorf("variant %s: %w", t.name, err)
			}
			elapsed := time.Since(start)
			v.Experiment = t.experiment
			v.Name = t.name
			v.ElapsedSeconds = elapsed.Seconds()
			results[i] = v
			r.logger.Debug("variant done", "experiment", t.experiment, "variant", t.name, "elapsed", elapsed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// fileRecorder is implemented by the report types that list their files.
type fileRecorder interface {
	addFile(name string)
}

func (r *Runner) save(rec fileRecorder, name string, g *vision.Grid) error {
	if err := imaging.SaveGrid(g, filepath.Join(r.cfg.OutputDir, name)); err != nil {
		return err
	}
	rec.addFile(name)
	return nil
}

func (r *Runner) savePanel(rec fileRecorder, name string, grids ...*vision.Grid) error {
	panel, err := imaging.SideBySide(r.cfg.Gap, grids...)
	if err != nil {
		return fmt.Errorf("failed to compose %s: %w", name, err)
	}
	if err := imaging.SaveImage(panel, filepath.Join(r.cfg.OutputDir, name)); err != nil {
		return err
	}
	rec.addFile(name)
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
