package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/edge-tools/internal/vision"
)

// ImageCache provides thread-safe caching of loaded images and their
// luminance grids, avoiding redundant disk reads and conversions.
//
// Entries are keyed by the exact path string. Different spellings of the
// same file (relative vs absolute) are cached separately.
//
// # Memory Management
//
// Cached entries remain in memory until explicitly removed via Evict() or
// Clear(). A grid costs 8 bytes per pixel on top of the decoded image.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	g, err := cache.LoadGrid("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	field, err := vision.SobelGradient(g)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	grids  map[string]*vision.Grid
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		grids:  make(map[string]*vision.Grid),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are those understood by github.com/disintegration/imaging
// (PNG, JPEG, GIF, BMP, TIFF).
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadGrid returns the luminance grid of the image at path.
//
// The grid is cached alongside the image. Callers receive a clone, so the
// cached copy cannot be modified through the returned value.
func (c *ImageCache) LoadGrid(path string) (*vision.Grid, error) {
	c.mu.RLock()
	if g, ok := c.grids[path]; ok {
		c.mu.RUnlock()
		return g.Clone(), nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	g, err := GridFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to grayscale: %w", path, err)
	}

	c.mu.Lock()
	c.grids[path] = g
	c.mu.Unlock()

	return g.Clone(), nil
}

// Clear removes all entries from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.grids = make(map[string]*vision.Grid)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.grids, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format implied by the file extension: "png", "jpeg",
	// "gif", "bmp", "tiff", or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// Grayscale is true when the decoded image is already single channel
	// and no luminance conversion is needed.
	Grayscale bool `json:"grayscale"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns its metadata.
//
// # Format Detection
//
// The format is determined by file extension, not by content:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".bmp" -> "bmp"
//   - ".tif", ".tiff" -> "tiff"
//   - Other extensions -> "unknown"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	}

	colorDepth := "8-bit"
	grayscale := false
	switch img.(type) {
	case *image.Gray:
		grayscale = true
	case *image.Gray16:
		grayscale = true
		colorDepth = "16-bit"
	case *image.RGBA64, *image.NRGBA64:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    colorDepth,
		Grayscale:     grayscale,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional
// metadata. The image is loaded into the cache if not already present.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
