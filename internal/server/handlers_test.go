package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestPNG(t, img)
}

// createStepImageFile creates an image that is black on the left half and
// white on the right half.
func createStepImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return writeTestPNG(t, img)
}

func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the decoded text content
// or the JSON-RPC error.
func callTool(t *testing.T, s *Server, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: paramsJSON})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("failed to decode tool result: %v", err)
	}
	return decoded, nil
}

// decodeResultImage decodes the base64 PNG of a tool result.
func decodeResultImage(t *testing.T, result map[string]interface{}) image.Image {
	t.Helper()

	if result["mime_type"] != "image/png" {
		t.Errorf("mime_type: got %v, want image/png", result["mime_type"])
	}
	data, err := base64.StdEncoding.DecodeString(result["image_base64"].(string))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	return img
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New("test")
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	result, mcpErr := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["width"] != float64(100) || result["height"] != float64(80) {
		t.Errorf("size: got %vx%v, want 100x80", result["width"], result["height"])
	}
	if result["format"] != "png" {
		t.Errorf("format: got %v, want png", result["format"])
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New("test")
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	result, mcpErr := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["width"] != float64(200) || result["height"] != float64(150) {
		t.Errorf("size: got %vx%v, want 200x150", result["width"], result["height"])
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New("test")

	_, mcpErr := callTool(t, s, "image_edge_detect", map[string]interface{}{"path": "/nonexistent/image.png"})
	if mcpErr == nil {
		t.Fatal("Expected error for non-existent file")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New("test")

	_, mcpErr := callTool(t, s, "image_ocr_full", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if mcpErr.Data != "unknown tool: image_ocr_full" {
		t.Errorf("Error data: got %v", mcpErr.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New("test")

	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: json.RawMessage(`[1,2]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("Expected invalid params error, got %+v", resp.Error)
	}

	_, mcpErr := callTool(t, s, "image_smooth", map[string]interface{}{"path": 12})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("Expected tool error for mistyped argument, got %+v", mcpErr)
	}
}

func TestHandleGaussianKernel(t *testing.T) {
	s := New("test")

	result, mcpErr := callTool(t, s, "image_gaussian_kernel", nil)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["size"] != float64(5) || result["sigma"] != 1.0 {
		t.Errorf("defaults: got size %v sigma %v, want 5 and 1", result["size"], result["sigma"])
	}
	if sum := result["sum"].(float64); math.Abs(sum-1) > 1e-9 {
		t.Errorf("sum: got %v, want 1", sum)
	}
	weights := result["weights"].([]interface{})
	if len(weights) != 5 {
		t.Fatalf("weights: got %d rows, want 5", len(weights))
	}
	center := weights[2].([]interface{})[2].(float64)
	corner := weights[0].([]interface{})[0].(float64)
	if center <= corner {
		t.Errorf("center weight %v should exceed corner weight %v", center, corner)
	}

	_, mcpErr = callTool(t, s, "image_gaussian_kernel", map[string]interface{}{"size": 4})
	if mcpErr == nil {
		t.Error("Expected error for even kernel size")
	}
	_, mcpErr = callTool(t, s, "image_gaussian_kernel", map[string]interface{}{"sigma": -1})
	if mcpErr == nil {
		t.Error("Expected error for negative sigma")
	}
}

func TestHandleImageSmooth(t *testing.T) {
	s := New("test")
	imgPath := createTestImageFile(t, 30, 20, color.RGBA{100, 100, 100, 255})
	outPath := filepath.Join(t.TempDir(), "out", "smoothed.png")

	result, mcpErr := callTool(t, s, "image_smooth", map[string]interface{}{
		"path":        imgPath,
		"size":        7,
		"sigma":       2,
		"boundary":    "replicate",
		"output_path": outPath,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	img := decodeResultImage(t, result)
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds: got %v, want 30x20", img.Bounds())
	}
	if result["saved_to"] != outPath {
		t.Errorf("saved_to: got %v, want %s", result["saved_to"], outPath)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}

	// A flat image with replicate padding stays flat, up to rounding of the
	// kernel weights.
	r, _, _, _ := img.At(0, 0).RGBA()
	if v := r >> 8; v != 100 && v != 99 {
		t.Errorf("corner: got %d, want 100", v)
	}

	_, mcpErr = callTool(t, s, "image_smooth", map[string]interface{}{"path": imgPath, "boundary": "wrap"})
	if mcpErr == nil {
		t.Error("Expected error for unknown boundary")
	}
}

func TestHandleImageGradient(t *testing.T) {
	s := New("test")

	flat := createTestImageFile(t, 20, 20, color.RGBA{128, 128, 128, 255})
	result, mcpErr := callTool(t, s, "image_gradient", map[string]interface{}{"path": flat})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["peak"] != float64(0) {
		t.Errorf("flat image peak: got %v, want 0", result["peak"])
	}
	if result["render"] != "magnitude" {
		t.Errorf("render: got %v, want magnitude", result["render"])
	}

	step := createStepImageFile(t, 20, 20)
	result, mcpErr = callTool(t, s, "image_gradient", map[string]interface{}{
		"path":        step,
		"smooth_size": 1,
		"render":      "direction",
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	magnitude := result["magnitude"].(map[string]interface{})
	if magnitude["max"] != float64(255) {
		t.Errorf("magnitude max: got %v, want 255", magnitude["max"])
	}
	img := decodeResultImage(t, result)
	if img.Bounds().Dx() != 20 {
		t.Errorf("width: got %d, want 20", img.Bounds().Dx())
	}

	_, mcpErr = callTool(t, s, "image_gradient", map[string]interface{}{"path": step, "render": "phase"})
	if mcpErr == nil {
		t.Error("Expected error for unknown render")
	}
}

func edgeStats(t *testing.T, result map[string]interface{}) (pixels, segments float64) {
	t.Helper()
	stats, ok := result["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("stats missing from result: %v", result)
	}
	return stats["edge_pixels"].(float64), stats["segments"].(float64)
}

func TestHandleEdgeThreshold(t *testing.T) {
	s := New("test")
	step := createStepImageFile(t, 40, 20)

	result, mcpErr := callTool(t, s, "image_edge_threshold", map[string]interface{}{"path": step})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	pixels, segments := edgeStats(t, result)
	if pixels == 0 || segments != 1 {
		t.Errorf("step edges: got %v pixels in %v segments, want one segment", pixels, segments)
	}
	decodeResultImage(t, result)

	// Zero is a valid threshold and must not be replaced by the default.
	flat := createTestImageFile(t, 10, 10, color.RGBA{50, 50, 50, 255})
	result, mcpErr = callTool(t, s, "image_edge_threshold", map[string]interface{}{"path": flat, "threshold": 0})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if pixels, _ := edgeStats(t, result); pixels != 0 {
		t.Errorf("flat image: got %v edge pixels, want 0", pixels)
	}
}

func TestHandleEdgeHysteresis(t *testing.T) {
	s := New("test")
	step := createStepImageFile(t, 40, 20)

	wide, mcpErr := callTool(t, s, "image_edge_hysteresis", map[string]interface{}{"path": step})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	thin, mcpErr := callTool(t, s, "image_edge_hysteresis", map[string]interface{}{"path": step, "thin": true})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	widePixels, _ := edgeStats(t, wide)
	thinPixels, thinSegments := edgeStats(t, thin)
	if thinPixels == 0 || thinPixels >= widePixels {
		t.Errorf("thinning: got %v pixels, want fewer than %v", thinPixels, widePixels)
	}
	if thinSegments != 1 {
		t.Errorf("thin segments: got %v, want 1", thinSegments)
	}

	_, mcpErr = callTool(t, s, "image_edge_hysteresis", map[string]interface{}{"path": step, "low": 200, "high": 100})
	if mcpErr == nil {
		t.Error("Expected error when low exceeds high")
	}
}

func TestHandleEdgeHysteresisZeroLow(t *testing.T) {
	s := New("test")
	step := createStepImageFile(t, 40, 20)

	// With low = 0 every pixel is at least weak, so the whole grid links to
	// the strong step edge.
	result, mcpErr := callTool(t, s, "image_edge_hysteresis", map[string]interface{}{"path": step, "low": 0, "high": 40})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	pixels, segments := edgeStats(t, result)
	if pixels != 800 || segments != 1 {
		t.Errorf("got %v pixels in %v segments, want 800 in 1", pixels, segments)
	}

	// An explicit high of 0 is kept too, and then rejected with the values sent.
	_, mcpErr = callTool(t, s, "image_edge_hysteresis", map[string]interface{}{"path": step, "low": 0, "high": 0})
	if mcpErr == nil {
		t.Fatal("Expected error for low equal to high")
	}
	if data, _ := mcpErr.Data.(string); !strings.Contains(data, "(0, 0)") {
		t.Errorf("error data: got %q, want the thresholds sent", data)
	}
}

func TestHandleImageEdgeDetect(t *testing.T) {
	s := New("test")
	step := createStepImageFile(t, 20, 20)

	result, mcpErr := callTool(t, s, "image_edge_detect", map[string]interface{}{"path": step})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	pixels, segments := edgeStats(t, result)
	if segments != 1 {
		t.Errorf("segments: got %v, want 1", segments)
	}
	// One pixel wide, at most two where the ridge ties, on the 18 interior rows.
	if pixels < 18 || pixels > 36 {
		t.Errorf("edge pixels: got %v, want 18..36", pixels)
	}
}

func TestHandleImageEdgeDetectZeroLow(t *testing.T) {
	s := New("test")
	step := createStepImageFile(t, 20, 20)

	// Suppressed pixels are 0, which is not below a low threshold of 0, so
	// they all link to the ridge.
	result, mcpErr := callTool(t, s, "image_edge_detect", map[string]interface{}{"path": step, "threshold_low": 0})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if pixels, _ := edgeStats(t, result); pixels != 400 {
		t.Errorf("edge pixels: got %v, want 400", pixels)
	}
}

func TestHandleAddNoise(t *testing.T) {
	s := New("test")
	imgPath := createTestImageFile(t, 32, 32, color.RGBA{128, 128, 128, 255})

	args := map[string]interface{}{"path": imgPath, "kind": "salt_pepper", "amount": 0.1, "seed": 7}
	first, mcpErr := callTool(t, s, "image_add_noise", args)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	second, mcpErr := callTool(t, s, "image_add_noise", args)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if first["image_base64"] != second["image_base64"] {
		t.Error("same seed should produce the same noise")
	}

	gaussian, mcpErr := callTool(t, s, "image_add_noise", map[string]interface{}{"path": imgPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if gaussian["image_base64"] == first["image_base64"] {
		t.Error("gaussian and salt-and-pepper noise should differ")
	}

	_, mcpErr = callTool(t, s, "image_add_noise", map[string]interface{}{"path": imgPath, "kind": "speckle"})
	if mcpErr == nil {
		t.Error("Expected error for unknown noise kind")
	}
	_, mcpErr = callTool(t, s, "image_add_noise", map[string]interface{}{"path": imgPath, "kind": "salt_pepper", "amount": 2})
	if mcpErr == nil {
		t.Error("Expected error for amount above 1")
	}
}

func TestHandleSyntheticScene(t *testing.T) {
	s := New("test")

	result, mcpErr := callTool(t, s, "image_synthetic_scene", nil)
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if result["width"] != float64(400) || result["height"] != float64(400) {
		t.Errorf("size: got %vx%v, want 400x400", result["width"], result["height"])
	}

	outPath := filepath.Join(t.TempDir(), "scene.png")
	result, mcpErr = callTool(t, s, "image_synthetic_scene", map[string]interface{}{
		"width": 80, "height": 60, "seed": 3, "output_path": outPath,
	})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	img := decodeResultImage(t, result)
	if img.Bounds().Dx() != 80 || img.Bounds().Dy() != 60 {
		t.Errorf("bounds: got %v, want 80x60", img.Bounds())
	}

	// The saved scene loads back through the cache like any other image.
	loaded, mcpErr := callTool(t, s, "image_load", map[string]interface{}{"path": outPath})
	if mcpErr != nil {
		t.Fatalf("Unexpected error: %v", mcpErr)
	}
	if loaded["grayscale"] != true {
		t.Errorf("grayscale: got %v, want true", loaded["grayscale"])
	}
}

func TestHandleSyntheticSceneRejectsOversize(t *testing.T) {
	s := New("test")

	tests := []map[string]interface{}{
		{"width": 100000, "height": 100000},
		{"width": maxSceneSide + 1, "height": 10},
		{"width": 10, "height": maxSceneSide + 1},
		{"width": -5},
	}
	for _, args := range tests {
		if _, mcpErr := callTool(t, s, "image_synthetic_scene", args); mcpErr == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}
