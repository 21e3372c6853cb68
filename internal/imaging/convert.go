package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// BT.601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// GridFromImage converts img to a luminance grid with samples in [0, 255].
//
// *image.Gray sources are copied sample for sample. Any other image is
// converted pixel by pixel with BT.601 weights on the non-premultiplied
// color and rounded to the nearest integer, matching an 8-bit grayscale
// load. Fully transparent pixels become 0.
func GridFromImage(img image.Image) (*vision.Grid, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	g, err := vision.NewGrid(height, width)
	if err != nil {
		return nil, fmt.Errorf("image %dx%d: %w", width, height, err)
	}

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g.Set(y, x, float64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y))
			}
		}
		return g, nil
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				continue
			}
			lum := (lumaR*c.R + lumaG*c.G + lumaB*c.B) * 255
			g.Set(y, x, math.Round(clampSample(lum)))
		}
	}
	return g, nil
}

// GridToGray renders g as an 8-bit grayscale image. Samples are clipped to
// [0, 255] and truncated.
func GridToGray(g *vision.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Cols(), g.Rows()))
	for y := 0; y < g.Rows(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+g.Cols()]
		for x := range row {
			row[x] = uint8(clampSample(g.At(y, x)))
		}
	}
	return img
}

// DirectionToImage renders a gradient field as color: hue follows the
// gradient angle (0° at −π, a full turn across (−π, π]) and brightness
// follows the rescaled magnitude.
func DirectionToImage(f *vision.GradientField) (*image.NRGBA, error) {
	if f == nil || f.Magnitude == nil || !f.Magnitude.SameShape(f.Direction) {
		return nil, fmt.Errorf("gradient field is incomplete or its grids differ in shape")
	}
	rows, cols := f.Magnitude.Rows(), f.Magnitude.Cols()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			hue := (f.Direction.At(y, x) + math.Pi) * 180 / math.Pi
			value := clampSample(f.Magnitude.At(y, x)) / vision.MaxMagnitude
			r, g, b := colorful.Hsv(math.Mod(hue, 360), 1, value).Clamped().RGB255()
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img, nil
}

func clampSample(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
