package vision

import (
	"fmt"
	"strings"
)

// Boundary selects how a grid is extended past its edges before a
// sliding-window pass.
type Boundary int

const (
	// Reflect mirrors interior samples across the edge without repeating
	// the edge sample: ... 2 1 | 0 1 2 ... | n-2 n-3 ...
	Reflect Boundary = iota
	// Zero pads with 0.
	Zero
	// Replicate repeats the edge sample.
	Replicate
)

// String returns the lower-case policy name.
func (b Boundary) String() string {
	switch b {
	case Reflect:
		return "reflect"
	case Zero:
		return "zero"
	case Replicate:
		return "replicate"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// ParseBoundary maps a policy name to a Boundary. The empty string selects
// Reflect. "constant" is accepted as an alias of "zero" and "edge" of
// "replicate".
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reflect":
		return Reflect, nil
	case "zero", "constant":
		return Zero, nil
	case "replicate", "edge":
		return Replicate, nil
	default:
		return 0, fmt.Errorf("%w: unknown boundary mode %q", ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Boundary) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("%w: unknown boundary mode %d", ErrInvalidArgument, int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Boundary) UnmarshalText(text []byte) error {
	v, err := ParseBoundary(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b Boundary) valid() bool {
	return b == Reflect || b == Zero || b == Replicate
}

// sourceIndex maps a possibly out-of-range index onto [0, n) for the given
// policy. ok is false when the sample is synthetic zero padding.
func (b Boundary) sourceIndex(i, n int) (idx int, ok bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch b {
	case Zero:
		return 0, false
	case Replicate:
		return clamp(i, 0, n-1), true
	default:
		if n == 1 {
			return 0, true
		}
		period := 2 * (n - 1)
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i, true
	}
}

// Pad returns g extended by r rows above and below and r columns left and
// right, filled according to the boundary policy.
func Pad(g *Grid, r int, b Boundary) (*Grid, error) {
	if err := validateGrid(g); err != nil {
		return nil, err
	}
	if r < 0 {
		return nil, fmt.Errorf("%w: padding %d must not be negative", ErrInvalidArgument, r)
	}
	if !b.valid() {
		return nil, fmt.Errorf("%w: unknown boundary mode %d", ErrInvalidArgument, int(b))
	}

	out := &Grid{rows: g.rows + 2*r, cols: g.cols + 2*r}
	out.data = make([]float64, out.rows*out.cols)
	for y := 0; y < out.rows; y++ {
		sy, rowOK := b.sourceIndex(y-r, g.rows)
		if !rowOK {
			continue
		}
		src := g.data[sy*g.cols : (sy+1)*g.cols]
		dst := out.data[y*out.cols : (y+1)*out.cols]
		for x := range dst {
			if sx, ok := b.sourceIndex(x-r, g.cols); ok {
				dst[x] = src[sx]
			}
		}
	}
	return out, nil
}

// Convolve applies kernel k to g and returns a new grid of the same shape.
//
// The input is first extended by the kernel radius on every side using the
// boundary policy b, then the flipped kernel is slid over the extended grid.
// Because the kernel is flipped this is true convolution, not
// cross-correlation: a directional kernel such as SobelX is applied with the
// mathematical sign convention. All arithmetic is float64 and the result is
// not rescaled.
//
// Returns an error wrapping ErrInvalidArgument if g or k is nil or malformed,
// or b is not a known policy.
func Convolve(g *Grid, k *Kernel, b Boundary) (*Grid, error) {
	if err := validateKernel(k); err != nil {
		return nil, err
	}
	r := k.Radius()
	padded, err := Pad(g, r, b)
	if err != nil {
		return nil, err
	}

	flipped := k.Flipped()
	out := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}

	// Accumulate one shifted copy of the padded grid per kernel cell.
	for i := 0; i < k.size; i++ {
		for j := 0; j < k.size; j++ {
			w := flipped.weights[i*k.size+j]
			if w == 0 {
				continue
			}
			for y := 0; y < g.rows; y++ {
				src := padded.data[(y+i)*padded.cols+j:]
				dst := out.data[y*g.cols : (y+1)*g.cols]
				for x := range dst {
					dst[x] += w * src[x]
				}
			}
		}
	}
	return out, nil
}

// ConvolveSeparable convolves g with the outer product of col (vertical
// profile) and row (horizontal profile) as two one-dimensional passes.
//
// Both profiles must have odd length. For every boundary policy the result
// matches Convolve with the equivalent 2D kernel, at a cost of
// len(row)+len(col) multiplies per sample instead of len(row)*len(col).
func ConvolveSeparable(g *Grid, row, col []float64, b Boundary) (*Grid, error) {
	if len(row) == 0 || len(row)%2 == 0 || len(col) == 0 || len(col)%2 == 0 {
		return nil, fmt.Errorf("%w: separable profiles of length %d and %d must be odd",
			ErrInvalidArgument, len(row), len(col))
	}
	if err := validateGrid(g); err != nil {
		return nil, err
	}
	if !b.valid() {
		return nil, fmt.Errorf("%w: unknown boundary mode %d", ErrInvalidArgument, int(b))
	}

	horizontal := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}
	rr := len(row) / 2
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			var sum float64
			for j, w := range row {
				// Flipped tap: offset runs from +r down to -r.
				if sx, ok := b.sourceIndex(x+rr-j, g.cols); ok {
					sum += w * g.data[y*g.cols+sx]
				}
			}
			horizontal.data[y*g.cols+x] = sum
		}
	}

	out := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}
	cr := len(col) / 2
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			var sum float64
			for i, w := range col {
				if sy, ok := b.sourceIndex(y+cr-i, g.rows); ok {
					sum += w * horizontal.data[sy*g.cols+x]
				}
			}
			out.data[y*g.cols+x] = sum
		}
	}
	return out, nil
}

func validateKernel(k *Kernel) error {
	if k == nil {
		return fmt.Errorf("%w: kernel is nil", ErrInvalidArgument)
	}
	if k.size <= 0 || k.size%2 == 0 || len(k.weights) != k.size*k.size {
		return fmt.Errorf("%w: kernel side length %d must be odd and positive", ErrInvalidArgument, k.size)
	}
	return nil
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
