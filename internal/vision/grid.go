package vision

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Grid is a rectangular array of float64 samples stored row-major.
//
// A Grid always has at least one row and one column. The zero value is not
// usable; construct grids with NewGrid, FromRows or FromSlice.
type Grid struct {
	rows, cols int
	data       []float64
}

// NewGrid returns a rows x cols grid with every sample set to zero.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: grid shape %dx%d must be at least 1x1", ErrInvalidArgument, rows, cols)
	}
	return &Grid{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromRows copies a slice of rows into a new Grid.
//
// Every row must have the same, non-zero length. The input is not retained.
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: grid has no rows", ErrInvalidArgument)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: grid has no columns", ErrInvalidArgument)
	}
	g := &Grid{rows: len(rows), cols: cols, data: make([]float64, len(rows)*cols)}
	for y, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d (grid must be rectangular)",
				ErrInvalidArgument, y, len(row), cols)
		}
		copy(g.data[y*cols:(y+1)*cols], row)
	}
	return g, nil
}

// FromSlice copies row-major samples into a new rows x cols Grid.
func FromSlice(rows, cols int, data []float64) (*Grid, error) {
	g, err := NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d samples for a %dx%d grid", ErrInvalidArgument, len(data), rows, cols)
	}
	copy(g.data, data)
	return g, nil
}

// Filled returns a rows x cols grid with every sample set to v.
func Filled(rows, cols int, v float64) (*Grid, error) {
	g, err := NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	for i := range g.data {
		g.data[i] = v
	}
	return g, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Len returns the number of samples.
func (g *Grid) Len() int { return len(g.data) }

// At returns the sample at row y, column x. It panics if the position is out
// of range, like a slice index.
func (g *Grid) At(y, x int) float64 {
	return g.data[g.index(y, x)]
}

// Set stores v at row y, column x. Pipeline stages never call Set on their
// inputs; it exists for callers assembling grids.
func (g *Grid) Set(y, x int, v float64) {
	g.data[g.index(y, x)] = v
}

// InBounds reports whether (y, x) addresses a sample of g.
func (g *Grid) InBounds(y, x int) bool {
	return y >= 0 && y < g.rows && x >= 0 && x < g.cols
}

// SameShape reports whether g and o have identical dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.rows == o.rows && g.cols == o.cols
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	c := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}
	copy(c.data, g.data)
	return c
}

// Values returns a copy of the samples in row-major order.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.data))
	copy(out, g.data)
	return out
}

// ToRows returns a copy of the samples as a slice of rows.
func (g *Grid) ToRows() [][]float64 {
	out := make([][]float64, g.rows)
	for y := range out {
		out[y] = make([]float64, g.cols)
		copy(out[y], g.data[y*g.cols:(y+1)*g.cols])
	}
	return out
}

// Max returns the largest sample.
func (g *Grid) Max() float64 { return floats.Max(g.data) }

// Min returns the smallest sample.
func (g *Grid) Min() float64 { return floats.Min(g.data) }

// Sum returns the sum of all samples.
func (g *Grid) Sum() float64 { return floats.Sum(g.data) }

// CountAbove returns the number of samples strictly greater than t.
func (g *Grid) CountAbove(t float64) int {
	n := 0
	for _, v := range g.data {
		if v > t {
			n++
		}
	}
	return n
}

// Map returns a new grid holding fn applied to every sample of g.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}
	for i, v := range g.data {
		out.data[i] = fn(v)
	}
	return out
}

// String renders the shape, which keeps test failures readable.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.rows, g.cols)
}

func (g *Grid) index(y, x int) int {
	if !g.InBounds(y, x) {
		panic(fmt.Sprintf("vision: index (%d,%d) out of range for %dx%d grid", y, x, g.rows, g.cols))
	}
	return y*g.cols + x
}

// validateGrid rejects nil or malformed grids handed to pipeline stages.
func validateGrid(g *Grid) error {
	if g == nil {
		return fmt.Errorf("%w: grid is nil", ErrInvalidArgument)
	}
	if g.rows < 1 || g.cols < 1 || len(g.data) != g.rows*g.cols {
		return fmt.Errorf("%w: grid is not a valid 2D array", ErrInvalidArgument)
	}
	return nil
}
