package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go/pkg/models"
	"go.yaml.in/yaml/v3"
)

// HalsteadMetrics holds the software-science measures derived from Counts.
type HalsteadMetrics struct {
	Vocabulary      int     `json:"vocabulary" yaml:"vocabulary"`
	Length          int     `json:"program_length" yaml:"program_length"`
	EstimatedLength float64 `json:"calculated_length" yaml:"calculated_length"`
	Volume          float64 `json:"volume" yaml:"volume"`
	Difficulty      float64 `json:"difficulty" yaml:"difficulty"`
	Effort          float64 `json:"effort" yaml:"effort"`
	Time            float64 `json:"time" yaml:"time"`
	Bugs            float64 `json:"bugs" yaml:"bugs"`
}

// Summary is the flat metric block shared by files, languages and the whole project.
type Summary struct {
	TotalLines        int             `json:"total_lines" yaml:"total_lines"`
	BlankLines        int             `json:"blank_lines" yaml:"blank_lines"`
	CommentLines      int             `json:"comment_lines" yaml:"comment_lines"`
	CodeLines         int             `json:"code_lines" yaml:"code_lines"`
	DistinctOperators int             `json:"distinct_operators" yaml:"distinct_operators"`
	DistinctOperands  int             `json:"distinct_operands" yaml:"distinct_operands"`
	TotalOperators    int             `json:"total_operators" yaml:"total_operators"`
	TotalOperands     int             `json:"total_operands" yaml:"total_operands"`
	CommentDensity    float64         `json:"comment_density" yaml:"comment_density"`
	Halstead          HalsteadMetrics `json:"halstead" yaml:"halstead"`
}

// FileMetrics is the per-file result.
type FileMetrics struct {
	ID       *models.RecordID `json:"id,omitempty" yaml:"-"`
	Path     string           `json:"path" yaml:"path"`
	Language string           `json:"language" yaml:"language"`
	Summary  `yaml:",inline"`
}

// LanguageSummary aggregates the files of one language.
type LanguageSummary struct {
	Language string `json:"language" yaml:"language"`
	Files    int    `json:"files" yaml:"files"`
	Summary  `yaml:",inline"`
}

// Warning records a file that was excluded from the totals.
type Warning struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// AnalysisReport contains the complete analysis results
type AnalysisReport struct {
	ID        *models.RecordID `json:"id,omitempty" yaml:"-"`
	Root      string           `json:"root" yaml:"root"`
	FileCount int              `json:"file_count" yaml:"file_count"`
	Summary   `yaml:",inline"`
	Files     []FileMetrics     `json:"files" yaml:"files"`
	Languages []LanguageSummary `json:"languages" yaml:"languages"`
	Warnings  []Warning         `json:"warnings" yaml:"warnings"`
}

// PrettyPrint returns the report as indented JSON
func (r AnalysisReport) PrettyPrint() string {
	jsonBytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating summary: %v", err)
	}

	return string(jsonBytes)
}

// YAML returns the report as a YAML document.
func (r AnalysisReport) YAML() (string, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode report as yaml: %w", err)
	}
	return string(out), nil
}

// Text renders the console report.
func (r AnalysisReport) Text() string {
	var b strings.Builder
	h := r.Halstead

	fmt.Fprintln(&b, "Software Metrics Report")
	fmt.Fprintf(&b, "Analyzed path: %s\n", r.Root)
	fmt.Fprintf(&b, "Files analyzed: %d\n", r.FileCount)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Lines of Code (LOC):")
	fmt.Fprintf(&b, "    Total lines: %d\n", r.TotalLines)
	fmt.Fprintf(&b, "    Blank lines: %d\n", r.BlankLines)
	fmt.Fprintf(&b, "    Comment lines: %d\n", r.CommentLines)
	fmt.Fprintf(&b, "    Code lines (NCLOC): %d\n", r.CodeLines)
	fmt.Fprintf(&b, "    Comment density: %.2f%%\n", r.CommentDensity)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Halstead Metrics:")
	fmt.Fprintf(&b, "    Distinct operators (n1): %d\n", r.DistinctOperators)
	fmt.Fprintf(&b, "    Distinct operands (n2): %d\n", r.DistinctOperands)
	fmt.Fprintf(&b, "    Program vocabulary (n): %d\n", h.Vocabulary)
	fmt.Fprintf(&b, "    Total operators (N1): %d\n", r.TotalOperators)
	fmt.Fprintf(&b, "    Total operands (N2): %d\n", r.TotalOperands)
	fmt.Fprintf(&b, "    Program length (N): %d\n", h.Length)
	fmt.Fprintf(&b, "    Estimated program length (N^): %.2f\n", h.EstimatedLength)
	fmt.Fprintf(&b, "    Volume (V): %.2f\n", h.Volume)
	fmt.Fprintf(&b, "    Difficulty (D): %.2f\n", h.Difficulty)
	fmt.Fprintf(&b, "    Effort (E): %.2f\n", h.Effort)
	fmt.Fprintf(&b, "    Time to program (seconds): %.2f\n", h.Time)
	fmt.Fprintf(&b, "    Estimated delivered bugs (B): %.2f\n", h.Bugs)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Skipped files:")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "    %s: %s\n", w.Path, w.Reason)
		}
	}

	return b.String()
}
