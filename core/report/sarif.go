package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/nox-hq/certguard/core/trust"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/errata01/os/schemas/sarif-schema-2.1.0.json"

	informationURI = "https://github.com/nox-hq/certguard"
)

// SARIF 2.1.0 envelope types.

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the tool that produced the run.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver identifies the tool and the catalog of rules it reports on.
type Driver struct {
	Name           string                `json:"name"`
	Version        string                `json:"version"`
	InformationURI string                `json:"informationUri"`
	Rules          []ReportingDescriptor `json:"rules"`
}

// ReportingDescriptor defines a single rule in the catalog.
type ReportingDescriptor struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	ShortDescription     Message       `json:"shortDescription"`
	DefaultConfiguration Configuration `json:"defaultConfiguration"`
}

// Configuration holds the default level for a rule.
type Configuration struct {
	Level string `json:"level"`
}

// Message is a SARIF message object.
type Message struct {
	Text string `json:"text"`
}

// Result is one violation or warning.
type Result struct {
	RuleID       string            `json:"ruleId"`
	RuleIndex    int               `json:"ruleIndex"`
	Level        string            `json:"level"`
	Message      Message           `json:"message"`
	Locations    []Location        `json:"locations"`
	Fingerprints map[string]string `json:"fingerprints"`
}

// Location wraps a physical location.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation identifies the checked artifact.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
}

// ArtifactLocation is a URI reference to the checked file.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// sarifRules is the fixed rule catalog, one entry per violation field.
var sarifRules = []ReportingDescriptor{
	{ID: "anchor", ShortDescription: Message{Text: "Chain does not lead to a trust anchor"}},
	{ID: "certificate", ShortDescription: Message{Text: "Certificate is on the blocklist"}},
	{ID: "chain", ShortDescription: Message{Text: "Chain could not be checked"}},
	{ID: "key", ShortDescription: Message{Text: "Public key is restricted by the algorithm policy"}},
	{ID: "signature", ShortDescription: Message{Text: "Certificate is not signed by the next certificate"}},
	{ID: "signature_algorithm", ShortDescription: Message{Text: "Signature algorithm is restricted by the algorithm policy"}},
	{ID: "signers", ShortDescription: Message{Text: "Signer set could not be checked"}},
}

// SARIFReporter produces SARIF 2.1.0 documents. Violations are errors and
// warnings are warnings.
type SARIFReporter struct {
	ToolVersion string
}

// NewSARIFReporter returns a SARIFReporter for version.
func NewSARIFReporter(version string) *SARIFReporter {
	return &SARIFReporter{ToolVersion: version}
}

// Generate implements Reporter. Results are sorted by source first.
func (r *SARIFReporter) Generate(results []trust.VerifyResult) ([]byte, error) {
	catalog := make([]ReportingDescriptor, len(sarifRules))
	index := make(map[string]int, len(sarifRules))
	for i, d := range sarifRules {
		d.Name = d.ID
		d.DefaultConfiguration = Configuration{Level: "error"}
		catalog[i] = d
		index[d.ID] = i
	}

	out := make([]Result, 0)
	for _, vr := range sortedBySource(results) {
		for _, v := range vr.Violations {
			out = append(out, sarifResult(vr.Source, v, "error", index))
		}
		for _, w := range vr.Warnings {
			out = append(out, sarifResult(vr.Source, w, "warning", index))
		}
	}

	report := SARIFReport{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:           ToolName,
				Version:        r.ToolVersion,
				InformationURI: informationURI,
				Rules:          catalog,
			}},
			Results: out,
		}},
	}
	return json.MarshalIndent(report, "", "  ")
}

func sarifResult(source string, v trust.TrustViolation, level string, index map[string]int) Result {
	sum := sha256.Sum256([]byte(source + "\x00" + v.Field + "\x00" + v.Message))
	return Result{
		RuleID:    v.Field,
		RuleIndex: index[v.Field],
		Level:     level,
		Message:   Message{Text: v.Message},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{ArtifactLocation: ArtifactLocation{URI: source}},
		}},
		Fingerprints: map[string]string{"certguard/v1": hex.EncodeToString(sum[:])},
	}
}
