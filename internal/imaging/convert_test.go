package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/edge-tools/internal/vision"
)

func TestGridFromImage_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(2, 1, color.Gray{Y: 200})
	img.SetGray(0, 0, color.Gray{Y: 7})

	g, err := GridFromImage(img)
	if err != nil {
		t.Fatalf("GridFromImage failed: %v", err)
	}
	if g.Rows() != 2 || g.Cols() != 3 {
		t.Fatalf("shape: got %dx%d, want 2x3", g.Rows(), g.Cols())
	}
	if g.At(1, 2) != 200 || g.At(0, 0) != 7 {
		t.Errorf("samples: got %v and %v, want 200 and 7", g.At(1, 2), g.At(0, 0))
	}
}

func TestGridFromImage_ColorLuminance(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want float64
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 255},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
		{"blue", color.RGBA{0, 0, 255, 255}, 29},
		{"orange", color.RGBA{255, 128, 64, 255}, 159},
		{"transparent", color.RGBA{0, 0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 1, 1))
			img.Set(0, 0, tt.c)
			g, err := GridFromImage(img)
			if err != nil {
				t.Fatalf("GridFromImage failed: %v", err)
			}
			if g.At(0, 0) != tt.want {
				t.Errorf("luminance: got %v, want %v", g.At(0, 0), tt.want)
			}
		})
	}
}

func TestGridFromImage_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 14, 23))
	img.SetGray(13, 22, color.Gray{Y: 99})

	g, err := GridFromImage(img)
	if err != nil {
		t.Fatalf("GridFromImage failed: %v", err)
	}
	if g.At(2, 3) != 99 {
		t.Errorf("bottom-right sample: got %v, want 99", g.At(2, 3))
	}
}

func TestGridFromImage_Empty(t *testing.T) {
	if _, err := GridFromImage(image.NewGray(image.Rect(0, 0, 0, 5))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestGridToGray_ClipsAndTruncates(t *testing.T) {
	g, err := vision.FromRows([][]float64{{-20, 0, 127.9, 255, 300, math.NaN()}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}

	img := GridToGray(g)
	want := []uint8{0, 0, 127, 255, 255, 0}
	for x, w := range want {
		if got := img.GrayAt(x, 0).Y; got != w {
			t.Errorf("pixel %d: got %d, want %d", x, got, w)
		}
	}
}

func TestGridRoundTrip(t *testing.T) {
	g, err := vision.FromRows([][]float64{{0, 50, 100}, {150, 200, 255}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	back, err := GridFromImage(GridToGray(g))
	if err != nil {
		t.Fatalf("GridFromImage failed: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if back.At(y, x) != g.At(y, x) {
				t.Errorf("(%d,%d): got %v, want %v", y, x, back.At(y, x), g.At(y, x))
			}
		}
	}
}

func TestDirectionToImage(t *testing.T) {
	g, err := vision.FromRows([][]float64{
		{0, 0, 100, 100},
		{0, 0, 100, 100},
		{0, 0, 100, 100},
	})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	field, err := vision.SobelGradient(g)
	if err != nil {
		t.Fatalf("SobelGradient failed: %v", err)
	}

	img, err := DirectionToImage(field)
	if err != nil {
		t.Fatalf("DirectionToImage failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds: got %v", img.Bounds())
	}

	// Flat column: zero magnitude renders black.
	if c := img.NRGBAAt(0, 1); c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("flat pixel should be black, got %v", c)
	}
	// Angle π wraps to hue 0 (red) at full brightness.
	if c := img.NRGBAAt(1, 1); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("edge pixel should be pure red, got %v", c)
	}

	if _, err := DirectionToImage(nil); err == nil {
		t.Error("expected error for nil field")
	}
}
