package server

import (
	"encoding/json"
	"fmt"
	"image"
	"math/rand"

	"github.com/ironsheep/edge-tools/internal/detection"
	"github.com/ironsheep/edge-tools/internal/imaging"
	"github.com/ironsheep/edge-tools/internal/synth"
	"github.com/ironsheep/edge-tools/internal/vision"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_edge_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the image from cache as a luminance grid
//  4. Runs the vision/detection/synth operation
//  5. Encodes the resulting grid, optionally saving it as well
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Filtering
	case "image_gaussian_kernel":
		return s.handleGaussianKernel(args)
	case "image_smooth":
		return s.handleImageSmooth(args)
	case "image_gradient":
		return s.handleImageGradient(args)

	// Edge Classification
	case "image_edge_threshold":
		return s.handleEdgeThreshold(args)
	case "image_edge_hysteresis":
		return s.handleEdgeHysteresis(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	// Test Inputs
	case "image_add_noise":
		return s.handleAddNoise(args)
	case "image_synthetic_scene":
		return s.handleSyntheticScene(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {} so
// tools whose parameters are all optional can be called bare.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// ImageResult is an encoded grid, plus the path it was written to when the
// caller asked for a file.
type ImageResult struct {
	*imaging.EncodedImage
	SavedTo string `json:"saved_to,omitempty"`
}

// KernelResult describes a Gaussian kernel.
type KernelResult struct {
	Size    int         `json:"size"`
	Sigma   float64     `json:"sigma"`
	Sum     float64     `json:"sum"`
	Weights [][]float64 `json:"weights"`
}

// GradientResult is a rendered gradient with its magnitude statistics.
type GradientResult struct {
	ImageResult
	Render    string            `json:"render"`
	Peak      float64           `json:"peak"`
	Magnitude detection.Summary `json:"magnitude"`
}

// EdgeResult is an encoded edge map with its segment statistics.
type EdgeResult struct {
	ImageResult
	Stats detection.Stats `json:"stats"`
}

func (s *Server) imageResult(img image.Image, outputPath string) (ImageResult, error) {
	enc, err := imaging.EncodeImage(img)
	if err != nil {
		return ImageResult{}, err
	}
	res := ImageResult{EncodedImage: enc}
	if outputPath != "" {
		if err := imaging.SaveImage(img, outputPath); err != nil {
			return ImageResult{}, err
		}
		res.SavedTo = outputPath
	}
	return res, nil
}

func (s *Server) gridResult(g *vision.Grid, outputPath string) (ImageResult, error) {
	return s.imageResult(imaging.GridToGray(g), outputPath)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Filtering Handlers ===

type gaussianKernelArgs struct {
	Size  int     `json:"size"`
	Sigma float64 `json:"sigma"`
}

func (s *Server) handleGaussianKernel(args json.RawMessage) (interface{}, error) {
	var a gaussianKernelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		a.Size = 5
	}
	if a.Sigma == 0 {
		a.Sigma = 1.0
	}
	k, err := vision.Gaussian(a.Size, a.Sigma)
	if err != nil {
		return nil, err
	}
	return &KernelResult{Size: k.Size(), Sigma: a.Sigma, Sum: k.Sum(), Weights: k.Rows()}, nil
}

type imageSmoothArgs struct {
	Path       string  `json:"path"`
	Size       int     `json:"size"`
	Sigma      float64 `json:"sigma"`
	Boundary   string  `json:"boundary"`
	OutputPath string  `json:"output_path"`
}

func (s *Server) handleImageSmooth(args json.RawMessage) (interface{}, error) {
	var a imageSmoothArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		a.Size = 5
	}
	if a.Sigma == 0 {
		a.Sigma = 1.0
	}
	b, err := vision.ParseBoundary(a.Boundary)
	if err != nil {
		return nil, err
	}
	g, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	smoothed, err := detection.Smooth(g, detection.Smoothing{Size: a.Size, Sigma: a.Sigma}, b)
	if err != nil {
		return nil, err
	}
	return s.gridResult(smoothed, a.OutputPath)
}

// smoothingArgs are the pre-filter arguments shared by the gradient and
// edge tools.
type smoothingArgs struct {
	SmoothSize  int     `json:"smooth_size"`
	SmoothSigma float64 `json:"smooth_sigma"`
	Boundary    string  `json:"boundary"`
}

// options fills the smoothing part of detection options. A side length of
// 1 yields no smoothing.
func (a smoothingArgs) options() (detection.Options, error) {
	var opts detection.Options
	b, err := vision.ParseBoundary(a.Boundary)
	if err != nil {
		return opts, err
	}
	opts.Boundary = b
	if a.SmoothSize == 0 {
		a.SmoothSize = 5
	}
	if a.SmoothSigma == 0 {
		a.SmoothSigma = 1.4
	}
	if a.SmoothSize != 1 {
		opts.Smoothing = &detection.Smoothing{Size: a.SmoothSize, Sigma: a.SmoothSigma}
	}
	return opts, nil
}

type imageGradientArgs struct {
	Path string `json:"path"`
	smoothingArgs
	Render     string `json:"render"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleImageGradient(args json.RawMessage) (interface{}, error) {
	var a imageGradientArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Render == "" {
		a.Render = "magnitude"
	}
	if a.Render != "magnitude" && a.Render != "direction" {
		return nil, fmt.Errorf("%w: unknown render %q", vision.ErrInvalidArgument, a.Render)
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	g, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}
	if opts.Smoothing != nil {
		if g, err = detection.Smooth(g, *opts.Smoothing, opts.Boundary); err != nil {
			return nil, err
		}
	}
	field, err := vision.SobelGradient(g)
	if err != nil {
		return nil, err
	}
	summary, err := detection.MagnitudeStats(field.Magnitude)
	if err != nil {
		return nil, err
	}

	var rendered image.Image = imaging.GridToGray(field.Magnitude)
	if a.Render == "direction" {
		if rendered, err = imaging.DirectionToImage(field); err != nil {
			return nil, err
		}
	}
	img, err := s.imageResult(rendered, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &GradientResult{ImageResult: img, Render: a.Render, Peak: field.Peak, Magnitude: summary}, nil
}

// === Edge Classification Handlers ===

func (s *Server) detectEdges(path, outputPath string, opts detection.Options) (*EdgeResult, error) {
	g, err := s.cache.LoadGrid(path)
	if err != nil {
		return nil, err
	}
	res, err := detection.Detect(g, opts)
	if err != nil {
		return nil, err
	}
	img, err := s.gridResult(res.Edges, outputPath)
	if err != nil {
		return nil, err
	}
	return &EdgeResult{ImageResult: img, Stats: res.Stats}, nil
}

// orDefault returns *v, or def when the argument was not sent. Zero is a
// valid threshold, so the zero value cannot stand for "absent".
func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

type edgeThresholdArgs struct {
	Path      string   `json:"path"`
	Threshold *float64 `json:"threshold"`
	smoothingArgs
	OutputPath string `json:"output_path"`
}

func (s *Server) handleEdgeThreshold(args json.RawMessage) (interface{}, error) {
	var a edgeThresholdArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	opts.Mode = detection.ModeSimple
	opts.Threshold = orDefault(a.Threshold, 60)
	return s.detectEdges(a.Path, a.OutputPath, opts)
}

type edgeHysteresisArgs struct {
	Path string   `json:"path"`
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
	Thin bool     `json:"thin"`
	smoothingArgs
	OutputPath string `json:"output_path"`
}

func (s *Server) handleEdgeHysteresis(args json.RawMessage) (interface{}, error) {
	var a edgeHysteresisArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	opts.Mode = detection.ModeHysteresis
	opts.Low = orDefault(a.Low, 50)
	opts.High = orDefault(a.High, 150)
	opts.Thin = a.Thin
	return s.detectEdges(a.Path, a.OutputPath, opts)
}

type imageEdgeDetectArgs struct {
	Path          string   `json:"path"`
	ThresholdLow  *float64 `json:"threshold_low"`
	ThresholdHigh *float64 `json:"threshold_high"`
	OutputPath    string   `json:"output_path"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts := detection.CannyOptions(orDefault(a.ThresholdLow, 50), orDefault(a.ThresholdHigh, 150))
	return s.detectEdges(a.Path, a.OutputPath, opts)
}

// === Test Input Handlers ===

type addNoiseArgs struct {
	Path       string  `json:"path"`
	Kind       string  `json:"kind"`
	Amount     float64 `json:"amount"`
	Mean       float64 `json:"mean"`
	Sigma      float64 `json:"sigma"`
	Seed       int64   `json:"seed"`
	OutputPath string  `json:"output_path"`
}

func (s *Server) handleAddNoise(args json.RawMessage) (interface{}, error) {
	var a addNoiseArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Kind == "" {
		a.Kind = "gaussian"
	}
	if a.Amount == 0 {
		a.Amount = 0.02
	}
	if a.Sigma == 0 {
		a.Sigma = 25
	}
	if a.Seed == 0 {
		a.Seed = 1
	}
	g, err := s.cache.LoadGrid(a.Path)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(a.Seed))
	var noisy *vision.Grid
	switch a.Kind {
	case "salt_pepper":
		noisy, err = synth.SaltAndPepper(g, a.Amount, rng)
	case "gaussian":
		noisy, err = synth.GaussianNoise(g, a.Mean, a.Sigma, rng)
	default:
		return nil, fmt.Errorf("%w: unknown noise kind %q", vision.ErrInvalidArgument, a.Kind)
	}
	if err != nil {
		return nil, err
	}
	return s.gridResult(noisy, a.OutputPath)
}

// maxSceneSide bounds each side of a rendered scene; a grid costs 8 bytes
// per pixel.
const maxSceneSide = 8192

type syntheticSceneArgs struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Seed       int64  `json:"seed"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleSyntheticScene(args json.RawMessage) (interface{}, error) {
	var a syntheticSceneArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width == 0 {
		a.Width = 400
	}
	if a.Height == 0 {
		a.Height = 400
	}
	if a.Seed == 0 {
		a.Seed = 1
	}
	if a.Width > maxSceneSide || a.Height > maxSceneSide {
		return nil, fmt.Errorf("%w: scene %dx%d exceeds %d pixels per side",
			vision.ErrInvalidArgument, a.Width, a.Height, maxSceneSide)
	}
	g, err := synth.Warehouse(a.Width, a.Height, rand.New(rand.NewSource(a.Seed)))
	if err != nil {
		return nil, err
	}
	return s.gridResult(g, a.OutputPath)
}
