// Package experiment runs the edge detection experiments and records what
// they produce.
//
// Experiment A shows the effect of the Gaussian pre-filter: the input is
// corrupted with salt-and-pepper and Gaussian noise, then the Sobel
// magnitude is computed once per smoothing variant (none, light, heavy).
//
// Experiment B compares a single global threshold against hysteresis. The
// magnitude of a lightly smoothed, noisy input is classified with a sweep
// of simple thresholds, with several hysteresis pairs and with the Canny
// preset from package detection.
//
// Every edge map and magnitude is written as PNG under the output
// directory, together with side-by-side comparison panels and a
// report.yaml describing the run.
package experiment
