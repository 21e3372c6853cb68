package vision

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxMagnitude is the value the strongest gradient is rescaled to.
const MaxMagnitude = 255.0

// GradientField holds the per-pixel gradient of a grid.
type GradientField struct {
	// Magnitude is sqrt(gx² + gy²) rescaled so the strongest response is
	// MaxMagnitude. A flat input yields an all-zero magnitude.
	Magnitude *Grid

	// Direction is atan2(gy, gx) in radians, in (−π, π], computed from the
	// unscaled derivatives.
	Direction *Grid

	// Peak is the largest magnitude before rescaling.
	Peak float64
}

// SobelGradient computes the Sobel gradient of g.
//
// Both derivative convolutions use the Reflect boundary so that border
// pixels carry meaningful responses rather than artificial steps. The
// magnitude is divided by its global maximum and multiplied by 255; when the
// maximum is zero the rescale is skipped and the zero grid is returned as is.
func SobelGradient(g *Grid) (*GradientField, error) {
	gx, err := Convolve(g, SobelX(), Reflect)
	if err != nil {
		return nil, fmt.Errorf("horizontal derivative: %w", err)
	}
	gy, err := Convolve(g, SobelY(), Reflect)
	if err != nil {
		return nil, fmt.Errorf("vertical derivative: %w", err)
	}

	mag := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}
	dir := &Grid{rows: g.rows, cols: g.cols, data: make([]float64, len(g.data))}
	for i := range mag.data {
		dx, dy := gx.data[i], gy.data[i]
		mag.data[i] = math.Hypot(dx, dy)
		dir.data[i] = math.Atan2(dy, dx)
	}

	peak := floats.Max(mag.data)
	if peak > 0 {
		// Divide first so the peak lands on exactly MaxMagnitude.
		for i, v := range mag.data {
			mag.data[i] = v / peak * MaxMagnitude
		}
	}

	return &GradientField{Magnitude: mag, Direction: dir, Peak: peak}, nil
}

// SuppressNonMaxima thins the magnitude of f to ridges one pixel wide.
//
// The direction of each pixel is quantized to 0°, 45°, 90° or 135° and the
// pixel survives only if its magnitude is at least that of both neighbours
// along that direction. Pixels on the outer border have an incomplete
// neighbourhood and are always suppressed.
func SuppressNonMaxima(f *GradientField) (*Grid, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: gradient field is nil", ErrInvalidArgument)
	}
	if err := validateGrid(f.Magnitude); err != nil {
		return nil, err
	}
	if !f.Magnitude.SameShape(f.Direction) {
		return nil, fmt.Errorf("%w: magnitude %v and direction %v differ in shape",
			ErrInvalidArgument, f.Magnitude, f.Direction)
	}

	mag := f.Magnitude
	rows, cols := mag.rows, mag.cols
	out := &Grid{rows: rows, cols: cols, data: make([]float64, len(mag.data))}

	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			angle := f.Direction.data[y*cols+x]
			m := mag.data[y*cols+x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = mag.data[y*cols+x-1]
				n2 = mag.data[y*cols+x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = mag.data[(y-1)*cols+x+1]
				n2 = mag.data[(y+1)*cols+x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = mag.data[(y-1)*cols+x]
				n2 = mag.data[(y+1)*cols+x]
			default:
				n1 = mag.data[(y-1)*cols+x-1]
				n2 = mag.data[(y+1)*cols+x+1]
			}

			if m >= n1 && m >= n2 {
				out.data[y*cols+x] = m
			}
		}
	}
	return out, nil
}
