package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/edge-tools/internal/imaging"
	"github.com/ironsheep/edge-tools/internal/vision"
)

// ReferenceRadius converts a Gaussian sigma to the integer radius bild's
// blur expects. bild weights tap x by exp(-x²/4r), i.e. σ = √(2r), over
// 2r+1 taps; the radius is rounded so the taps stay centred and is at least
// 1.
func ReferenceRadius(sigma float64) float64 {
	return math.Max(1, math.Round(sigma*sigma/2))
}

// ReferenceBlur smooths g with bild's Gaussian blur at the radius nearest to
// sigma. bild pads by replicating the edge and truncates to 8 bits after
// each pass, so for sigma = 2 the result stays within two gray levels of
// Smooth(g, Smoothing{Size: 5, Sigma: 2}, vision.Replicate).
func ReferenceBlur(g *vision.Grid, sigma float64) (*vision.Grid, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: grid is nil", vision.ErrInvalidArgument)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: sigma %v must be positive", vision.ErrInvalidArgument, sigma)
	}
	return redChannel(blur.Gaussian(imaging.GridToGray(g), ReferenceRadius(sigma)))
}

// ReferenceSobel computes bild's Sobel response of g, rescaled like
// vision.SobelGradient so that the strongest response is MaxMagnitude.
//
// bild clips each derivative to [0, 255] before combining them and stores
// (gx² + gy²) / 255, so the magnitude is recovered as √(255·v). Only
// brightness rising to the right or upwards responds, and raw derivatives
// above 255 saturate.
func ReferenceSobel(g *vision.Grid) (*vision.Grid, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: grid is nil", vision.ErrInvalidArgument)
	}
	out, err := redChannel(effect.Sobel(imaging.GridToGray(g)))
	if err != nil {
		return nil, err
	}
	out = out.Map(func(v float64) float64 { return math.Sqrt(255 * v) })
	if peak := out.Max(); peak > 0 {
		out = out.Map(func(v float64) float64 { return v / peak * vision.MaxMagnitude })
	}
	return out, nil
}

// redChannel reads the first channel of a gray RGBA result. bild may leave
// alpha at zero, so the samples are taken as stored rather than unpremultiplied.
func redChannel(img *image.RGBA) (*vision.Grid, error) {
	b := img.Bounds()
	g, err := vision.NewGrid(b.Dy(), b.Dx())
	if err != nil {
		return nil, fmt.Errorf("failed to convert reference image: %w", err)
	}
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			g.Set(y, x, float64(row[x*4]))
		}
	}
	return g, nil
}
