package main

import (
	"bytes"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/edge-tools/internal/experiment"
	"github.com/ironsheep/edge-tools/internal/imaging"
	"github.com/ironsheep/edge-tools/internal/synth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKernelCommand(t *testing.T) {
	out, err := execute(t, "kernel", "--size", "3", "--sigma", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Len(t, strings.Fields(lines[0]), 3)
	assert.Equal(t, "sum 1.000000", lines[3])

	_, err = execute(t, "kernel", "--size", "4")
	require.Error(t, err)
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	scene, err := synth.Warehouse(80, 80, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	input := filepath.Join(dir, "scene.png")
	require.NoError(t, imaging.SaveGrid(scene, input))

	output := filepath.Join(dir, "edges.png")
	out, err := execute(t, "detect", input, "--canny", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "segments:")
	assert.FileExists(t, output)

	_, err = execute(t, "detect", input, "--mode", "sobel", "-o", output)
	require.Error(t, err)

	_, err = execute(t, "detect", filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := experiment.DefaultConfig()
	cfg.Synthetic = experiment.SceneConfig{Width: 48, Height: 48}
	cfgPath := filepath.Join(dir, "edgelab.yaml")
	require.NoError(t, experiment.WriteConfig(cfg, cfgPath))

	outDir := filepath.Join(dir, "results")
	out, err := execute(t, "run", "-c", cfgPath, "-o", outDir, "--seed", "3", "-j", "2", "--write-config")
	require.NoError(t, err)
	assert.Contains(t, out, "EXPERIMENT")

	report, err := experiment.ReadReport(filepath.Join(outDir, experiment.ReportFile))
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Config.Seed)
	assert.Equal(t, 2, report.Config.Workers)
	assert.Equal(t, 48, report.Width)

	written, err := experiment.LoadConfig(filepath.Join(outDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, outDir, written.OutputDir)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "edgelab "+Version))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}
