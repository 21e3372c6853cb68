package vision

import (
	"fmt"
	"math"
)

// Edge map sample values.
const (
	NotEdge = 0.0
	Edge    = 255.0
)

// neighbors8 lists the offsets of the 8-connected neighbourhood.
var neighbors8 = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// ClassifySimple marks every sample strictly greater than t as Edge and the
// rest as NotEdge. Each pixel is decided on its own, so an edge whose
// gradient dips below t for a few pixels comes out fragmented.
func ClassifySimple(m *Grid, t float64) (*Grid, error) {
	if err := validateGrid(m); err != nil {
		return nil, err
	}
	if math.IsNaN(t) {
		return nil, fmt.Errorf("%w: threshold is NaN", ErrInvalidArgument)
	}
	out := &Grid{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	for i, v := range m.data {
		if v > t {
			out.data[i] = Edge
		}
	}
	return out, nil
}

// ClassifyHysteresis builds an edge map with double-threshold edge linking.
//
// Samples are split into three classes:
//   - strong: m >= high, always edges
//   - weak: low <= m < high, edges only when 8-connected to a strong sample,
//     directly or through other weak samples
//   - suppressed: m < low, never edges
//
// The weak promotion is a breadth-first flood fill seeded at every strong
// sample. Neighbours outside the grid are treated as absent.
//
// Returns an error wrapping ErrInvalidArgument unless 0 <= low < high.
func ClassifyHysteresis(m *Grid, low, high float64) (*Grid, error) {
	if err := validateGrid(m); err != nil {
		return nil, err
	}
	if math.IsNaN(low) || math.IsNaN(high) || low < 0 || high < 0 {
		return nil, fmt.Errorf("%w: thresholds (%v, %v) must be non-negative", ErrInvalidArgument, low, high)
	}
	if low >= high {
		return nil, fmt.Errorf("%w: low threshold %v must be below high threshold %v", ErrInvalidArgument, low, high)
	}

	rows, cols := m.rows, m.cols
	out := &Grid{rows: rows, cols: cols, data: make([]float64, len(m.data))}

	queue := make([]int, 0, len(m.data)/8+1)
	for i, v := range m.data {
		if v >= high {
			out.data[i] = Edge
			queue = append(queue, i)
		}
	}

	// out doubles as the visited set: a cell is enqueued at most once, when
	// it is first marked.
	for qi := 0; qi < len(queue); qi++ {
		u := queue[qi]
		uy, ux := u/cols, u%cols
		for _, d := range neighbors8 {
			vy, vx := uy+d[0], ux+d[1]
			if vy < 0 || vy >= rows || vx < 0 || vx >= cols {
				continue
			}
			vi := vy*cols + vx
			if out.data[vi] == Edge || m.data[vi] < low {
				continue
			}
			out.data[vi] = Edge
			queue = append(queue, vi)
		}
	}
	return out, nil
}

// Components labels the 8-connected regions of samples greater than zero
// and returns the size of each region in discovery order (row-major scan).
func Components(g *Grid) ([]int, error) {
	if err := validateGrid(g); err != nil {
		return nil, err
	}
	rows, cols := g.rows, g.cols
	seen := make([]bool, len(g.data))
	var sizes []int
	var queue []int

	for i0, v := range g.data {
		if v <= 0 || seen[i0] {
			continue
		}
		seen[i0] = true
		queue = append(queue[:0], i0)
		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			uy, ux := u/cols, u%cols
			for _, d := range neighbors8 {
				vy, vx := uy+d[0], ux+d[1]
				if vy < 0 || vy >= rows || vx < 0 || vx >= cols {
					continue
				}
				vi := vy*cols + vx
				if g.data[vi] > 0 && !seen[vi] {
					seen[vi] = true
					queue = append(queue, vi)
				}
			}
		}
		sizes = append(sizes, len(queue))
	}
	return sizes, nil
}
