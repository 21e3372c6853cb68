package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// EncodedImage contains an image encoded as base64 PNG for transport.
type EncodedImage struct {
	// Width of the image in pixels.
	Width int `json:"width"`

	// Height of the image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the PNG data encoded as standard base64.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeImage encodes img as a base64 PNG.
func EncodeImage(img image.Image) (*EncodedImage, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return &EncodedImage{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// EncodeGrid renders g as grayscale (see GridToGray) and encodes it as a
// base64 PNG.
func EncodeGrid(g *vision.Grid) (*EncodedImage, error) {
	return EncodeImage(GridToGray(g))
}

// SaveImage writes img to path, creating parent directories as needed. The
// format follows the file extension.
func SaveImage(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// SaveGrid renders g as grayscale and writes it to path.
func SaveGrid(g *vision.Grid, path string) error {
	return SaveImage(GridToGray(g), path)
}
