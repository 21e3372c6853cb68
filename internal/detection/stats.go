package detection

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// Stats summarizes a binary edge map.
type Stats struct {
	EdgePixels   int     `json:"edge_pixels" yaml:"edge_pixels"`
	EdgeFraction float64 `json:"edge_fraction" yaml:"edge_fraction"`

	// Segments is the number of 8-connected edge regions.
	Segments int `json:"segments" yaml:"segments"`

	// MeanSegmentSize is EdgePixels / Segments, or 0 for an empty map.
	MeanSegmentSize float64 `json:"mean_segment_size" yaml:"mean_segment_size"`

	LargestSegment int `json:"largest_segment" yaml:"largest_segment"`
}

// Analyze measures the edge map. Any sample greater than zero counts as an
// edge pixel.
func Analyze(edges *vision.Grid) (Stats, error) {
	sizes, err := vision.Components(edges)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to label edge segments: %w", err)
	}

	var s Stats
	for _, n := range sizes {
		s.EdgePixels += n
		if n > s.LargestSegment {
			s.LargestSegment = n
		}
	}
	s.Segments = len(sizes)
	s.EdgeFraction = float64(s.EdgePixels) / float64(edges.Len())
	if s.Segments > 0 {
		s.MeanSegmentSize = float64(s.EdgePixels) / float64(s.Segments)
	}
	return s, nil
}

// Agreement returns the intersection over union of the edge pixels of a and
// b. Two empty maps agree perfectly.
func Agreement(a, b *vision.Grid) (float64, error) {
	if a == nil || !a.SameShape(b) {
		return 0, fmt.Errorf("%w: edge maps %v and %v differ in shape", vision.ErrInvalidArgument, a, b)
	}
	av, bv := a.Values(), b.Values()
	var inter, union int
	for i := range av {
		ea, eb := av[i] > 0, bv[i] > 0
		if ea && eb {
			inter++
		}
		if ea || eb {
			union++
		}
	}
	if union == 0 {
		return 1, nil
	}
	return float64(inter) / float64(union), nil
}

// Summary describes the distribution of a magnitude grid.
type Summary struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Median float64 `json:"median" yaml:"median"`
}

// MagnitudeStats summarizes the samples of m.
func MagnitudeStats(m *vision.Grid) (Summary, error) {
	if m == nil {
		return Summary{}, fmt.Errorf("%w: grid is nil", vision.ErrInvalidArgument)
	}
	values := m.Values()
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}, nil
}
