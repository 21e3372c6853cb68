package experiment

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/edge-tools/internal/detection"
	"github.com/ironsheep/edge-tools/internal/vision"
)

// Config describes one harness run.
type Config struct {
	// OutputDir receives every PNG and the report.
	OutputDir string `yaml:"output_dir"`

	// Image is the input path. When empty or unreadable a synthetic
	// warehouse scene is rendered instead.
	Image string `yaml:"image,omitempty"`

	Seed int64 `yaml:"seed"`

	// Workers bounds the number of variants processed at once. Zero means
	// one per available CPU.
	Workers int `yaml:"workers"`

	// Gap is the width of the black separator in comparison panels.
	Gap int `yaml:"gap"`

	Synthetic SceneConfig     `yaml:"synthetic"`
	Sigma     SigmaConfig     `yaml:"sigma"`
	Threshold ThresholdConfig `yaml:"threshold"`
}

// SceneConfig sizes the synthetic fallback scene.
type SceneConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SigmaConfig configures experiment A.
type SigmaConfig struct {
	SaltPepper float64         `yaml:"salt_pepper"`
	NoiseSigma float64         `yaml:"noise_sigma"`
	Boundary   vision.Boundary `yaml:"boundary"`
	Variants   []SigmaVariant  `yaml:"variants"`
}

// SigmaVariant is one smoothing setting of experiment A. A zero Size means
// no smoothing.
type SigmaVariant struct {
	Name  string  `yaml:"name"`
	Size  int     `yaml:"size,omitempty"`
	Sigma float64 `yaml:"sigma,omitempty"`
}

// ThresholdConfig configures experiment B.
type ThresholdConfig struct {
	NoiseSigma float64             `yaml:"noise_sigma"`
	Smoothing  detection.Smoothing `yaml:"smoothing"`
	Thresholds []float64           `yaml:"thresholds"`

	// Best is the simple threshold shown in the comparison panel.
	Best float64 `yaml:"best"`

	Hysteresis []Pair `yaml:"hysteresis"`
	Canny      []Pair `yaml:"canny"`
}

// Pair is a hysteresis threshold pair.
type Pair struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", formatValue(p.Low), formatValue(p.High))
}

// DefaultConfig returns the settings of the reference experiments.
func DefaultConfig() Config {
	return Config{
		OutputDir: "results",
		Seed:      1,
		Gap:       10,
		Synthetic: SceneConfig{Width: 400, Height: 400},
		Sigma: SigmaConfig{
			SaltPepper: 0.03,
			NoiseSigma: 15,
			Boundary:   vision.Reflect,
			Variants: []SigmaVariant{
				{Name: "none"},
				{Name: "sigma1", Size: 5, Sigma: 1},
				{Name: "sigma5", Size: 31, Sigma: 5},
			},
		},
		Threshold: ThresholdConfig{
			NoiseSigma: 10,
			Smoothing:  detection.Smoothing{Size: 5, Sigma: 1.4},
			Thresholds: []float64{20, 40, 60, 80, 100, 120},
			Best:       60,
			Hysteresis: []Pair{{50, 150}, {30, 100}, {80, 200}},
			Canny:      []Pair{{50, 150}, {30, 100}, {80, 200}},
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
// Keys missing from the file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig writes cfg as YAML.
func WriteConfig(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first setting that cannot run.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", vision.ErrInvalidArgument)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", vision.ErrInvalidArgument, c.Workers)
	}
	if c.Gap < 0 {
		return fmt.Errorf("%w: gap %d must not be negative", vision.ErrInvalidArgument, c.Gap)
	}
	if c.Synthetic.Width < 1 || c.Synthetic.Height < 1 {
		return fmt.Errorf("%w: synthetic scene %dx%d must be at least 1x1",
			vision.ErrInvalidArgument, c.Synthetic.Width, c.Synthetic.Height)
	}

	if c.Sigma.SaltPepper < 0 || c.Sigma.SaltPepper > 1 {
		return fmt.Errorf("%w: sigma.salt_pepper %v must be within [0, 1]", vision.ErrInvalidArgument, c.Sigma.SaltPepper)
	}
	if math.IsNaN(c.Sigma.SaltPepper) {
		return fmt.Errorf("%w: sigma.salt_pepper is NaN", vision.ErrInvalidArgument)
	}
	if !(c.Sigma.NoiseSigma >= 0) || !(c.Threshold.NoiseSigma >= 0) {
		return fmt.Errorf("%w: noise sigma must not be negative", vision.ErrInvalidArgument)
	}
	if len(c.Sigma.Variants) == 0 {
		return fmt.Errorf("%w: sigma.variants is empty", vision.ErrInvalidArgument)
	}
	seen := make(map[string]bool)
	for _, v := range c.Sigma.Variants {
		if v.Name == "" || seen[v.Name] {
			return fmt.Errorf("%w: sigma variant name %q is empty or repeated", vision.ErrInvalidArgument, v.Name)
		}
		seen[v.Name] = true
		if v.Size == 0 {
			continue
		}
		if _, err := vision.Gaussian(v.Size, v.Sigma); err != nil {
			return fmt.Errorf("sigma variant %s: %w", v.Name, err)
		}
	}

	if _, err := vision.Gaussian(c.Threshold.Smoothing.Size, c.Threshold.Smoothing.Sigma); err != nil {
		return fmt.Errorf("threshold.smoothing: %w", err)
	}
	if len(c.Threshold.Thresholds) == 0 {
		return fmt.Errorf("%w: threshold.thresholds is empty", vision.ErrInvalidArgument)
	}
	for _, t := range c.Threshold.Thresholds {
		if math.IsNaN(t) {
			return fmt.Errorf("%w: threshold.thresholds contains NaN", vision.ErrInvalidArgument)
		}
	}
	if math.IsNaN(c.Threshold.Best) {
		return fmt.Errorf("%w: threshold.best is NaN", vision.ErrInvalidArgument)
	}
	for _, pairs := range [][]Pair{c.Threshold.Hysteresis, c.Threshold.Canny} {
		for _, p := range pairs {
			if math.IsNaN(p.Low) || math.IsNaN(p.High) || p.Low < 0 || p.Low >= p.High {
				return fmt.Errorf("%w: threshold pair (%v, %v) needs 0 <= low < high",
					vision.ErrInvalidArgument, p.Low, p.High)
			}
		}
	}
	return nil
}
