package detection

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// Mode selects the edge classifier.
type Mode string

const (
	// ModeSimple marks pixels whose magnitude exceeds Threshold.
	ModeSimple Mode = "simple"
	// ModeHysteresis links weak pixels to strong ones using Low and High.
	ModeHysteresis Mode = "hysteresis"
)

// ParseMode maps a mode name to a Mode. The empty string selects
// ModeHysteresis.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHysteresis:
		return ModeHysteresis, nil
	case ModeSimple:
		return ModeSimple, nil
	default:
		return "", fmt.Errorf("%w: unknown classifier mode %q", vision.ErrInvalidArgument, s)
	}
}

// Smoothing describes the Gaussian pre-filter.
type Smoothing struct {
	Size  int     `json:"size" yaml:"size"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// Options configures Detect.
type Options struct {
	// Smoothing is applied before the gradient when non-nil.
	Smoothing *Smoothing

	// Boundary is the padding policy used for smoothing. The gradient
	// always uses vision.Reflect.
	Boundary vision.Boundary

	// Thin enables non-maximum suppression before classification.
	Thin bool

	Mode Mode

	// Threshold is used by ModeSimple.
	Threshold float64

	// Low and High are used by ModeHysteresis.
	Low  float64
	High float64
}

// Validate checks that the options describe a runnable pipeline.
func (o Options) Validate() error {
	if o.Smoothing != nil {
		if _, err := vision.Gaussian(o.Smoothing.Size, o.Smoothing.Sigma); err != nil {
			return fmt.Errorf("smoothing: %w", err)
		}
	}
	switch o.Mode {
	case ModeSimple:
		if math.IsNaN(o.Threshold) {
			return fmt.Errorf("%w: threshold is NaN", vision.ErrInvalidArgument)
		}
	case ModeHysteresis:
		if math.IsNaN(o.Low) || math.IsNaN(o.High) || o.Low < 0 || o.Low >= o.High {
			return fmt.Errorf("%w: hysteresis thresholds need 0 <= low < high, got (%v, %v)",
				vision.ErrInvalidArgument, o.Low, o.High)
		}
	default:
		return fmt.Errorf("%w: unknown classifier mode %q", vision.ErrInvalidArgument, o.Mode)
	}
	return nil
}

// Result holds every stage of one Detect run.
type Result struct {
	// Smoothed is the pre-filtered input, or the input itself when no
	// smoothing was requested.
	Smoothed *vision.Grid

	Magnitude *vision.Grid
	Direction *vision.Grid

	// Thinned is the suppressed magnitude when thinning was requested,
	// otherwise nil.
	Thinned *vision.Grid

	// Edges is the binary edge map (0 or 255).
	Edges *vision.Grid

	Stats Stats
}

// Detect runs the edge pipeline on g.
func Detect(g *vision.Grid, opts Options) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: grid is nil", vision.ErrInvalidArgument)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Smoothed: g}
	if opts.Smoothing != nil {
		smoothed, err := Smooth(g, *opts.Smoothing, opts.Boundary)
		if err != nil {
			return nil, err
		}
		res.Smoothed = smoothed
	}

	field, err := vision.SobelGradient(res.Smoothed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute gradient: %w", err)
	}
	res.Magnitude = field.Magnitude
	res.Direction = field.Direction

	classifyInput := field.Magnitude
	if opts.Thin {
		thinned, err := vision.SuppressNonMaxima(field)
		if err != nil {
			return nil, fmt.Errorf("failed to thin edges: %w", err)
		}
		res.Thinned = thinned
		classifyInput = thinned
	}

	switch opts.Mode {
	case ModeSimple:
		res.Edges, err = vision.ClassifySimple(classifyInput, opts.Threshold)
	default:
		res.Edges, err = vision.ClassifyHysteresis(classifyInput, opts.Low, opts.High)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to classify edges: %w", err)
	}

	res.Stats, err = Analyze(res.Edges)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Smooth convolves g with the Gaussian kernel described by s. The kernel is
// separable, so it runs as a horizontal and a vertical pass with the 1D
// profile; the result equals vision.Convolve with vision.Gaussian up to
// rounding.
func Smooth(g *vision.Grid, s Smoothing, b vision.Boundary) (*vision.Grid, error) {
	profile, err := vision.Gaussian1D(s.Size, s.Sigma)
	if err != nil {
		return nil, fmt.Errorf("smoothing: %w", err)
	}
	out, err := vision.ConvolveSeparable(g, profile, profile, b)
	if err != nil {
		return nil, fmt.Errorf("failed to smooth: %w", err)
	}
	return out, nil
}

// CannyOptions returns the Canny preset: 5x5 σ=1.4 smoothing, thinning and
// hysteresis with the given thresholds.
func CannyOptions(low, high float64) Options {
	return Options{
		Smoothing: &Smoothing{Size: 5, Sigma: 1.4},
		Boundary:  vision.Reflect,
		Thin:      true,
		Mode:      ModeHysteresis,
		Low:       low,
		High:      high,
	}
}

// Canny runs Detect with CannyOptions.
func Canny(g *vision.Grid, low, high float64) (*Result, error) {
	return Detect(g, CannyOptions(low, high))
}
