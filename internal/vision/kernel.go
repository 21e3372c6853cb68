package vision

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Kernel is a square matrix of convolution weights with an odd side length.
type Kernel struct {
	size    int
	weights []float64
}

// NewKernel copies rows into a Kernel. The rows must form a square with an
// odd side length.
func NewKernel(rows [][]float64) (*Kernel, error) {
	size := len(rows)
	if size == 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: kernel side length %d must be odd and positive", ErrInvalidArgument, size)
	}
	k := &Kernel{size: size, weights: make([]float64, size*size)}
	for i, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("%w: kernel row %d has %d weights, want %d (kernel must be square)",
				ErrInvalidArgument, i, len(row), size)
		}
		copy(k.weights[i*size:], row)
	}
	return k, nil
}

// Size returns the side length 2k+1.
func (k *Kernel) Size() int { return k.size }

// Radius returns k, the number of samples on each side of the center.
func (k *Kernel) Radius() int { return k.size / 2 }

// At returns the weight at row i, column j.
func (k *Kernel) At(i, j int) float64 { return k.weights[i*k.size+j] }

// Sum returns the sum of all weights.
func (k *Kernel) Sum() float64 { return floats.Sum(k.weights) }

// Rows returns a copy of the weights as a slice of rows.
func (k *Kernel) Rows() [][]float64 {
	out := make([][]float64, k.size)
	for i := range out {
		out[i] = make([]float64, k.size)
		copy(out[i], k.weights[i*k.size:(i+1)*k.size])
	}
	return out
}

// Flipped returns the kernel rotated by 180 degrees (flipped along both
// axes), the form used by true convolution.
func (k *Kernel) Flipped() *Kernel {
	n := len(k.weights)
	f := &Kernel{size: k.size, weights: make([]float64, n)}
	for i, w := range k.weights {
		f.weights[n-1-i] = w
	}
	return f
}

// Identity returns the 1x1 kernel holding 1.0.
func Identity() *Kernel {
	return &Kernel{size: 1, weights: []float64{1}}
}

// Box returns a size x size averaging kernel whose weights sum to 1.
func Box(size int) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: kernel size %d must be odd and positive", ErrInvalidArgument, size)
	}
	k := &Kernel{size: size, weights: make([]float64, size*size)}
	w := 1 / float64(size*size)
	for i := range k.weights {
		k.weights[i] = w
	}
	return k, nil
}

// SobelX returns the horizontal derivative kernel.
//
//	-1  0  1
//	-2  0  2
//	-1  0  1
func SobelX() *Kernel {
	return &Kernel{size: 3, weights: []float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}}
}

// SobelY returns the vertical derivative kernel.
//
//	-1 -2 -1
//	 0  0  0
//	 1  2  1
func SobelY() *Kernel {
	return &Kernel{size: 3, weights: []float64{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}}
}

// Gaussian builds a normalized size x size Gaussian kernel.
//
// Each weight is 1/(2πσ²)·exp(−(x²+y²)/(2σ²)) for integer offsets x, y in
// [−k, k] around the center, k = (size−1)/2. The weights are then divided by
// their sum so the kernel preserves overall brightness.
//
// Parameters:
//   - size: side length; must be odd and positive.
//   - sigma: standard deviation in pixels; must be positive and finite.
//
// Typical pairs are (5, 1.0) for light smoothing and (31, 5.0) for heavy
// smoothing; a side length of about 6σ keeps the truncated tails negligible.
func Gaussian(size int, sigma float64) (*Kernel, error) {
	if err := validateGaussian(size, sigma); err != nil {
		return nil, err
	}

	r := size / 2
	k := &Kernel{size: size, weights: make([]float64, size*size)}
	twoSigma2 := 2 * sigma * sigma
	scale := 1 / (math.Pi * twoSigma2)
	for i := 0; i < size; i++ {
		y := float64(i - r)
		for j := 0; j < size; j++ {
			x := float64(j - r)
			k.weights[i*size+j] = scale * math.Exp(-(x*x+y*y)/twoSigma2)
		}
	}
	floats.Scale(1/floats.Sum(k.weights), k.weights)
	return k, nil
}

// Gaussian1D returns the normalized one-dimensional Gaussian profile of the
// given size. Its outer product with itself equals Gaussian(size, sigma), so
// it can drive ConvolveSeparable.
func Gaussian1D(size int, sigma float64) ([]float64, error) {
	if err := validateGaussian(size, sigma); err != nil {
		return nil, err
	}
	r := size / 2
	w := make([]float64, size)
	for i := range w {
		x := float64(i - r)
		w[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(w), w)
	return w, nil
}

func validateGaussian(size int, sigma float64) error {
	if size <= 0 || size%2 == 0 {
		return fmt.Errorf("%w: kernel size %d must be odd and positive", ErrInvalidArgument, size)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return fmt.Errorf("%w: sigma %v must be positive", ErrInvalidArgument, sigma)
	}
	return nil
}
