// Package detection chains the vision primitives into a complete edge
// detector and measures the edge maps it produces.
//
// # Pipeline
//
// Detect runs the stages in order, keeping every intermediate grid:
//
//  1. Smoothing: optional Gaussian convolution to suppress noise
//  2. Gradient: Sobel magnitude (rescaled to [0, 255]) and direction
//  3. Thinning: optional non-maximum suppression along the gradient
//  4. Classification: a single threshold or hysteresis linking
//
// Canny is a preset of the same pipeline with 5x5 σ=1.4 smoothing,
// thinning and hysteresis.
//
// # Measuring Edge Maps
//
// Analyze counts edge pixels and their 8-connected segments. A map whose
// edges are broken into many short pieces has a high segment count and a
// low mean segment size, which is how thresholding and hysteresis are
// compared. Agreement scores two maps by intersection over union.
//
// # Coordinate System
//
// Grids are indexed (row, column) with the origin at the top-left corner,
// matching the image convention used elsewhere in this module.
package detection
