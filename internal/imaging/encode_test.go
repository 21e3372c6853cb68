package imaging

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ironsheep/edge-tools/internal/vision"
)

func TestEncodeGrid(t *testing.T) {
	g, err := vision.Filled(20, 30, 128)
	if err != nil {
		t.Fatalf("Filled failed: %v", err)
	}

	result, err := EncodeGrid(g)
	if err != nil {
		t.Fatalf("EncodeGrid failed: %v", err)
	}
	if result.Width != 30 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 30x20", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	r, _, _, _ := img.At(5, 5).RGBA()
	if r>>8 != 128 {
		t.Errorf("pixel value: got %d, want 128", r>>8)
	}
}

func TestSaveGridAndReload(t *testing.T) {
	g, err := vision.FromRows([][]float64{{0, 255}, {10, 20}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "out.png")
	if err := SaveGrid(g, path); err != nil {
		t.Fatalf("SaveGrid failed: %v", err)
	}

	back, err := NewImageCache().LoadGrid(path)
	if err != nil {
		t.Fatalf("LoadGrid failed: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if back.At(y, x) != g.At(y, x) {
				t.Errorf("(%d,%d): got %v, want %v", y, x, back.At(y, x), g.At(y, x))
			}
		}
	}
}

func TestSaveImage_UnsupportedExtension(t *testing.T) {
	g, _ := vision.Filled(2, 2, 1)
	if err := SaveGrid(g, filepath.Join(t.TempDir(), "out.xyz")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
