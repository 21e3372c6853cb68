package experiment

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/edge-tools/internal/detection"
)

// ReportFile is the name of the run report inside the output directory.
const ReportFile = "report.yaml"

// Report records one harness run.
type Report struct {
	RunID          string    `yaml:"run_id"`
	StartedAt      time.Time `yaml:"started_at"`
	ElapsedSeconds float64   `yaml:"elapsed_seconds"`

	// Source is the input image path, or "synthetic".
	Source string `yaml:"source"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	Config Config `yaml:"config"`

	// Files lists the run-level outputs (inputs and comparison panels)
	// relative to the output directory.
	Files []string `yaml:"files"`

	Variants []VariantReport `yaml:"variants"`
}

func (r *Report) addFile(name string) { r.Files = append(r.Files, name) }

// VariantReport records one variant of an experiment.
type VariantReport struct {
	Experiment     string   `yaml:"experiment"`
	Name           string   `yaml:"name"`
	ElapsedSeconds float64  `yaml:"elapsed_seconds"`
	Files          []string `yaml:"files"`

	// Peak and Magnitude are set for gradient variants.
	Peak      float64            `yaml:"peak,omitempty"`
	Magnitude *detection.Summary `yaml:"magnitude,omitempty"`

	// Edges is set for edge map variants.
	Edges *detection.Stats `yaml:"edges,omitempty"`

	// AgreementWithBest is the intersection over union with the best
	// simple threshold map.
	AgreementWithBest *float64 `yaml:"agreement_with_best,omitempty"`
}

func (v *VariantReport) addFile(name string) { v.Files = append(v.Files, name) }

// Variant returns the variant with the given experiment and name.
func (r *Report) Variant(experiment, name string) (VariantReport, bool) {
	for _, v := range r.Variants {
		if v.Experiment == experiment && v.Name == name {
			return v, true
		}
	}
	return VariantReport{}, false
}

// WriteReport writes r as YAML.
func WriteReport(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport reads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}

// WriteSummary prints one table row per variant.
func WriteSummary(w io.Writer, r *Report) {
	fmt.Fprintf(w, "run %s  source %s (%dx%d)  %.2fs\n\n", r.RunID, r.Source, r.Width, r.Height, r.ElapsedSeconds)

	var data [][]string
	for _, v := range r.Variants {
		row := []string{v.Experiment, v.Name, "-", "-", "-", "-", "-", "-"}
		if v.Edges != nil {
			row[2] = strconv.Itoa(v.Edges.EdgePixels)
			row[3] = strconv.Itoa(v.Edges.Segments)
			row[4] = strconv.FormatFloat(v.Edges.MeanSegmentSize, 'f', 1, 64)
		}
		if v.Magnitude != nil {
			row[5] = strconv.FormatFloat(v.Magnitude.Mean, 'f', 2, 64)
			row[6] = strconv.FormatFloat(v.Magnitude.StdDev, 'f', 2, 64)
		}
		if v.AgreementWithBest != nil {
			row[7] = strconv.FormatFloat(*v.AgreementWithBest, 'f', 3, 64)
		}
		data = append(data, row)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"EXPERIMENT", "VARIANT", "EDGE PX", "SEGMENTS", "MEAN SEG", "MAG MEAN", "MAG STD", "IOU BEST"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
