// Package report serializes verification results. JSONReporter produces a
// deterministic JSON report for CI pipelines and downstream tooling;
// TextReporter renders the same results for a terminal.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nox-hq/certguard/core/trust"
)

// ToolName is embedded in every report.
const ToolName = "certguard"

// Reporter serializes a batch of verification results.
type Reporter interface {
	Generate(results []trust.VerifyResult) ([]byte, error)
}

// New returns the reporter for format: "json", "sarif" or "text". An empty
// format means text.
func New(format, version string) (Reporter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextReporter{}, nil
	case "json":
		return NewJSONReporter(version), nil
	case "sarif":
		return NewSARIFReporter(version), nil
	default:
		return nil, fmt.Errorf("unknown output format: %q", format)
	}
}

// Meta contains metadata about the report itself.
type Meta struct {
	SchemaVersion string `json:"schema_version"`
	GeneratedAt   string `json:"generated_at"`
	ToolName      string `json:"tool_name"`
	ToolVersion   string `json:"tool_version"`
}

// Summary counts the results of a report.
type Summary struct {
	Checked  int `json:"checked"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// Summarize counts results and warnings.
func Summarize(results []trust.VerifyResult) Summary {
	s := Summary{Checked: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Warnings += len(r.Warnings)
	}
	return s
}

// JSONReport is the top-level structure serialized to JSON.
type JSONReport struct {
	Meta    Meta                 `json:"meta"`
	Summary Summary              `json:"summary"`
	Results []trust.VerifyResult `json:"results"`
}

// JSONReporter produces deterministic JSON output.
type JSONReporter struct {
	ToolVersion string

	now func() time.Time
}

// NewJSONReporter returns a JSONReporter that embeds version in the report
// metadata.
func NewJSONReporter(version string) *JSONReporter {
	return &JSONReporter{ToolVersion: version, now: time.Now}
}

// Generate sorts a copy of results by source and serializes it with 2-space
// indentation. The output is stable across runs given the same input, aside
// from GeneratedAt.
func (r *JSONReporter) Generate(results []trust.VerifyResult) ([]byte, error) {
	sorted := sortedBySource(results)

	now := time.Now
	if r.now != nil {
		now = r.now
	}
	report := JSONReport{
		Meta: Meta{
			SchemaVersion: "1.0.0",
			GeneratedAt:   now().UTC().Format(time.RFC3339),
			ToolName:      ToolName,
			ToolVersion:   r.ToolVersion,
		},
		Summary: Summarize(sorted),
		Results: sorted,
	}
	return json.MarshalIndent(report, "", "  ")
}

// TextReporter renders one block per result, violations before warnings.
type TextReporter struct{}

// Generate implements Reporter.
func (TextReporter) Generate(results []trust.VerifyResult) ([]byte, error) {
	var b strings.Builder
	for _, r := range results {
		status := "PASS"
		if !r.OK() {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s (%s, worst: %s)\n", status, orUnnamed(r.Source), r.Variant, r.Worst())
		for _, c := range r.Certificates {
			anchor := ""
			if c.Anchor {
				anchor = " [anchor]"
			}
			fmt.Fprintf(&b, "  %-6s %s%s\n", c.Role, c.Subject, anchor)
			if c.SignatureAlgorithm != "" {
				fmt.Fprintf(&b, "         signature %s: %s\n", c.SignatureAlgorithm, c.Signature.Strength)
			}
			fmt.Fprintf(&b, "         key %s: %s\n", c.Key, c.KeyVerdict.Strength)
		}
		for _, v := range r.Violations {
			fmt.Fprintf(&b, "  error   %s: %s\n", v.Field, v.Message)
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  warning %s: %s\n", w.Field, w.Message)
		}
	}
	s := Summarize(results)
	fmt.Fprintf(&b, "%d checked, %d passed, %d failed, %d warnings\n", s.Checked, s.Passed, s.Failed, s.Warnings)
	return []byte(b.String()), nil
}

// WriteToFile generates a report with r and writes it to path with 0644
// permissions. Parent directories must already exist.
func WriteToFile(r Reporter, results []trust.VerifyResult, path string) error {
	data, err := r.Generate(results)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func sortedBySource(results []trust.VerifyResult) []trust.VerifyResult {
	sorted := make([]trust.VerifyResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Source < sorted[j].Source
	})
	return sorted
}

func orUnnamed(s string) string {
	if s == "" {
		return "(unnamed)"
	}
	return s
}
