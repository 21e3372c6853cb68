package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// SideBySide lays out grids left to right with gap black columns between
// them, producing one comparison panel. All grids must have the same number
// of rows.
func SideBySide(gap int, grids ...*vision.Grid) (*image.NRGBA, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("no grids to compose")
	}
	if gap < 0 {
		return nil, fmt.Errorf("gap %d must not be negative", gap)
	}

	height := grids[0].Rows()
	width := gap * (len(grids) - 1)
	for i, g := range grids {
		if g.Rows() != height {
			return nil, fmt.Errorf("grid %d has %d rows, want %d", i, g.Rows(), height)
		}
		width += g.Cols()
	}

	canvas := imaging.New(width, height, color.Black)
	x := 0
	for _, g := range grids {
		canvas = imaging.Paste(canvas, GridToGray(g), image.Pt(x, 0))
		x += g.Cols() + gap
	}
	return canvas, nil
}
