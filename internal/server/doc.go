// Package server implements the MCP (Model Context Protocol) server for the
// edge detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes smoothing,
// gradient and edge classification operations through the MCP protocol, so
// an MCP client can run the pipeline on local image files and inspect each
// stage.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Filtering:
//   - image_gaussian_kernel: Normalized Gaussian weights
//   - image_smooth: Gaussian smoothing with a chosen boundary policy
//   - image_gradient: Sobel magnitude or direction
//
// Edge Classification:
//   - image_edge_threshold: Single global threshold
//   - image_edge_hysteresis: Double threshold with 8-connected linking
//   - image_edge_detect: Canny preset (smoothing, thinning, hysteresis)
//
// Test Inputs:
//   - image_add_noise: Salt-and-pepper or Gaussian noise
//   - image_synthetic_scene: Rendered warehouse floor
//
// Every tool that produces an image returns it as base64 PNG and, when
// output_path is given, also writes it to disk.
//
// # Image Caching
//
// Loaded images and their luminance grids are cached by path for the
// lifetime of the server process. Tools never modify cached grids.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
