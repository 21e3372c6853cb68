// Package synth generates test input for the edge detection experiments:
// a synthetic warehouse-floor scene and the two noise models used to
// stress the detectors (salt-and-pepper and additive Gaussian).
//
// Every generator takes an explicit *rand.Rand so runs are reproducible
// from a seed, and every noise function returns a new grid.
package synth
