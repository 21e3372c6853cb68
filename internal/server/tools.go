package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Shared argument schemas.
var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
	outputPathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to also write the result as PNG",
	}
	smoothSizeProperty = map[string]interface{}{
		"type":        "integer",
		"description": "Gaussian pre-filter side length (odd). Default 5; 1 disables smoothing",
		"default":     5,
	}
	smoothSigmaProperty = map[string]interface{}{
		"type":        "number",
		"description": "Gaussian pre-filter sigma in pixels. Default 1.4",
		"default":     1.4,
	}
	boundaryProperty = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"reflect", "zero", "replicate"},
		"description": "How the image is extended past its borders. Default reflect",
		"default":     "reflect",
	}
	seedProperty = map[string]interface{}{
		"type":        "integer",
		"description": "Random seed. Default 1",
		"default":     1,
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Filtering
		{
			Name:        "image_gaussian_kernel",
			Description: "Return the normalized Gaussian convolution kernel for a size and sigma. Weights sum to 1.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd side length. Default 5",
						"default":     5,
					},
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Standard deviation in pixels. Default 1.0",
						"default":     1.0,
					},
				},
			},
		},
		{
			Name:        "image_smooth",
			Description: "Convert an image to grayscale and smooth it with a Gaussian kernel. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd kernel side length. Default 5",
						"default":     5,
					},
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Standard deviation in pixels. Default 1.0",
						"default":     1.0,
					},
					"boundary":    boundaryProperty,
					"output_path": outputPathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_gradient",
			Description: "Compute the Sobel gradient of an image. Returns the magnitude (rescaled so the strongest edge is 255) or the direction rendered as hue, plus magnitude statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty,
					"smooth_size":  smoothSizeProperty,
					"smooth_sigma": smoothSigmaProperty,
					"boundary":     boundaryProperty,
					"render": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"magnitude", "direction"},
						"description": "What to render. Default magnitude",
						"default":     "magnitude",
					},
					"output_path": outputPathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Edge Classification
		{
			Name:        "image_edge_threshold",
			Description: "Detect edges with a single global threshold on the Sobel magnitude. Pixels whose magnitude exceeds the threshold are edges. Returns the edge map and segment statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Magnitude threshold in [0, 255]. Default 60",
						"default":     60,
					},
					"smooth_size":  smoothSizeProperty,
					"smooth_sigma": smoothSigmaProperty,
					"boundary":     boundaryProperty,
					"output_path":  outputPathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_hysteresis",
			Description: "Detect edges with double-threshold hysteresis: pixels at or above high are edges, pixels between low and high are edges only when connected to a strong pixel. Returns the edge map and segment statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"low": map[string]interface{}{
						"type":        "number",
						"description": "Low threshold. Default 50",
						"default":     50,
					},
					"high": map[string]interface{}{
						"type":        "number",
						"description": "High threshold, greater than low. Default 150",
						"default":     150,
					},
					"thin": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply non-maximum suppression before linking. Default false",
						"default":     false,
					},
					"smooth_size":  smoothSizeProperty,
					"smooth_sigma": smoothSigmaProperty,
					"boundary":     boundaryProperty,
					"output_path":  outputPathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Canny-style edge detection: 5x5 Gaussian smoothing, Sobel gradient, non-maximum suppression and hysteresis. Returns the edge map and segment statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Low threshold for edge linking. Default 50",
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "High threshold for strong edges. Default 150",
						"default":     150,
					},
					"output_path": outputPathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Test Inputs
		{
			Name:        "image_add_noise",
			Description: "Convert an image to grayscale and corrupt it with salt-and-pepper or Gaussian noise. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"salt_pepper", "gaussian"},
						"description": "Noise model. Default gaussian",
						"default":     "gaussian",
					},
					"amount": map[string]interface{}{
						"type":        "number",
						"description": "Salt-and-pepper: fraction of pixels hit by each impulse. Default 0.02",
						"default":     0.02,
					},
					"mean": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian: noise mean. Default 0",
						"default":     0,
					},
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian: noise standard deviation. Default 25",
						"default":     25,
					},
					"seed":        seedProperty,
					"output_path": outputPathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_synthetic_scene",
			Description: "Render a synthetic warehouse floor with cracks, pallets and an obstacle for testing edge detection. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width in pixels. Default 400, at most 8192",
						"default":     400,
						"maximum":     maxSceneSide,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height in pixels. Default 400, at most 8192",
						"default":     400,
						"maximum":     maxSceneSide,
					},
					"seed":        seedProperty,
					"output_path": outputPathProperty,
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
