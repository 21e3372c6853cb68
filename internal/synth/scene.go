package synth

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"

	"golang.org/x/image/vector"

	"github.com/ironsheep/edge-tools/internal/imaging"
	"github.com/ironsheep/edge-tools/internal/vision"
)

// Gray levels of the warehouse scene.
const (
	FloorLevel    = 180
	CrackLevel    = 160
	ObstacleLevel = 60
)

// The scene is laid out on a 400x400 reference canvas and scaled.
const (
	layoutSize   = 400.0
	crackSpacing = 50.0
)

type pallet struct {
	x0, y0, x1, y1 float32 // inclusive pixel corners
	level          uint8
}

var pallets = []pallet{
	{50, 50, 150, 120, 100},
	{200, 150, 350, 280, 80},
	{80, 250, 180, 350, 120},
}

// Warehouse renders a synthetic warehouse floor: a uniform floor with thin
// cracks every 50 reference pixels (each crack drifts by up to ±5 pixels
// across the frame), three filled pallets and one round obstacle.
//
// Shapes are rasterized with anti-aliasing, so their borders carry
// intermediate gray levels much like a camera image would.
func Warehouse(width, height int, rng *rand.Rand) (*vision.Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: scene size %dx%d must be at least 1x1", vision.ErrInvalidArgument, width, height)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", vision.ErrInvalidArgument)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: FloorLevel}), image.Point{}, draw.Src)

	sx := float32(width) / layoutSize
	sy := float32(height) / layoutSize
	z := vector.NewRasterizer(width, height)

	for i := 0.0; i < layoutSize; i += crackSpacing {
		drift := float32(rng.Intn(10) - 5)
		y := float32(i) * sy
		strokeLine(z, 0, y, float32(width), y+drift*sy, 1)
		fill(z, img, CrackLevel)
	}
	for i := 0.0; i < layoutSize; i += crackSpacing {
		drift := float32(rng.Intn(10) - 5)
		x := float32(i) * sx
		strokeLine(z, x, 0, x+drift*sx, float32(height), 1)
		fill(z, img, CrackLevel)
	}

	for _, p := range pallets {
		z.MoveTo(p.x0*sx, p.y0*sy)
		z.LineTo((p.x1+1)*sx, p.y0*sy)
		z.LineTo((p.x1+1)*sx, (p.y1+1)*sy)
		z.LineTo(p.x0*sx, (p.y1+1)*sy)
		z.ClosePath()
		fill(z, img, p.level)
	}

	circle(z, 300*sx, 80*sy, 30*sx, 30*sy)
	fill(z, img, ObstacleLevel)

	return imaging.GridFromImage(img)
}

// strokeLine adds a closed quad of the given width centred on the segment.
func strokeLine(z *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

// circle adds an ellipse approximated by a 64-sided polygon.
func circle(z *vector.Rasterizer, cx, cy, rx, ry float32) {
	const segments = 64
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		x := cx + rx*float32(math.Cos(a))
		y := cy + ry*float32(math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}

// fill paints the accumulated path onto img and resets the rasterizer.
func fill(z *vector.Rasterizer, img *image.Gray, level uint8) {
	z.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: level}), image.Point{})
	b := img.Bounds()
	z.Reset(b.Dx(), b.Dy())
}
