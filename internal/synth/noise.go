package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// SaltAndPepper returns a copy of g with impulse noise.
//
// amount is the fraction of the grid hit by each kind of impulse:
// int(amount*N) positions are set to 255 (salt) and as many to 0 (pepper).
// Positions are drawn with replacement, so a pixel may be hit more than once
// and pepper overwrites salt.
func SaltAndPepper(g *vision.Grid, amount float64, rng *rand.Rand) (*vision.Grid, error) {
	if g == nil || rng == nil {
		return nil, fmt.Errorf("%w: grid and random source are required", vision.ErrInvalidArgument)
	}
	if math.IsNaN(amount) || amount < 0 || amount > 1 {
		return nil, fmt.Errorf("%w: noise amount %v must be within [0, 1]", vision.ErrInvalidArgument, amount)
	}

	out := g.Clone()
	n := int(amount * float64(g.Len()))
	for _, v := range []float64{255, 0} {
		for i := 0; i < n; i++ {
			out.Set(rng.Intn(g.Rows()), rng.Intn(g.Cols()), v)
		}
	}
	return out, nil
}

// GaussianNoise returns a copy of g with additive noise drawn from
// N(mean, sigma²). Results are clipped to [0, 255] and truncated to whole
// values, as if stored back into an 8-bit image.
func GaussianNoise(g *vision.Grid, mean, sigma float64, rng *rand.Rand) (*vision.Grid, error) {
	if g == nil || rng == nil {
		return nil, fmt.Errorf("%w: grid and random source are required", vision.ErrInvalidArgument)
	}
	if math.IsNaN(sigma) || sigma < 0 || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: noise sigma %v must be non-negative", vision.ErrInvalidArgument, sigma)
	}

	return g.Map(func(v float64) float64 {
		v += mean + sigma*rng.NormFloat64()
		return math.Trunc(math.Max(0, math.Min(255, v)))
	}), nil
}
