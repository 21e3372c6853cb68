// Package imaging is the image I/O boundary of the edge detection tools.
//
// The numeric pipeline in package vision works on float64 sample grids and
// never touches files or image types. This package converts between those
// grids and Go images, loads and caches images from disk, encodes results
// as PNG (raw bytes, files, or base64 for transport), and assembles
// side-by-side comparison panels.
//
// # Sample Conventions
//
// Images are reduced to luminance with ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B) and rounded to 8-bit values in [0, 255]
// before being widened to float64. When a grid is written back out, samples
// are clipped to [0, 255] and truncated to uint8.
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner; grid
// row y and column x correspond to image pixel (x, y).
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The conversion and encoding
// functions are stateless.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O failures and undecodable image data
//   - Grids of mismatched height passed to SideBySide
//   - Encoding failures
package imaging
