// Package vision implements the numeric core of the edge detection pipeline.
//
// The package works on Grid values: rectangular arrays of float64 samples
// stored row-major. Grayscale images enter as samples in [0, 255] and stay in
// floating point through every stage so that intermediate results are never
// clipped or rounded.
//
// # Pipeline
//
// The components are meant to be chained:
//
//  1. Gaussian builds a normalized smoothing kernel.
//  2. Convolve applies any odd square kernel with an explicit boundary
//     policy (Reflect, Zero, Replicate).
//  3. SobelGradient convolves with the horizontal and vertical Sobel
//     kernels and combines them into magnitude and direction.
//  4. ClassifySimple or ClassifyHysteresis turn a magnitude grid into a
//     binary edge map (0 or 255).
//
// # Ownership
//
// Every operation allocates and returns a new Grid. Inputs are never
// modified, so a grid can be fed to several stages without copying.
//
// # Error Handling
//
// Malformed arguments (even kernel sizes, ragged rows, non-positive sigma,
// inverted threshold pairs) are reported with errors wrapping
// ErrInvalidArgument. Callers should test with errors.Is.
package vision
