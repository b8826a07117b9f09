package main

import (
	"crypto/elliptic"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nox-hq/certguard/core/report"
)

func TestRunCheck_Pass(t *testing.T) {
	setupHome(t)
	chain, _ := writeChain(t, t.TempDir(), "chain.pem", elliptic.P256())

	if code := run([]string{"check", chain}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunCheck_PolicyViolation(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	chain, _ := writeChain(t, dir, "chain.pem", elliptic.P256())
	cfg := writeFile(t, dir, "certguard.yaml", "properties:\n  jdk.certpath.disabledAlgorithms: \"MD5, EC keySize < 384\"\n")

	if code := run([]string{"--config", cfg, "check", chain}); code != 1 {
		t.Fatalf("expected exit code 1 for a restricted key size, got %d", code)
	}
}

func TestRunCheck_JSONOutput(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	chain, _ := writeChain(t, dir, "chain.pem", elliptic.P384())
	out := filepath.Join(dir, "report.json")

	if code := run([]string{"check", "--format", "json", "--output", out, "--variant", "tls_server", chain}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var rep report.JSONReport
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("invalid report JSON: %v", err)
	}
	if len(rep.Results) != 1 || rep.Results[0].Source != chain {
		t.Fatalf("results = %+v", rep.Results)
	}
	if rep.Results[0].Variant != "tls server" {
		t.Errorf("Variant = %q", rep.Results[0].Variant)
	}
}

func TestRunCheck_StrictNeedsAnchor(t *testing.T) {
	setupHome(t)
	chain, root := writeChain(t, t.TempDir(), "chain.pem", elliptic.P256())

	if code := run([]string{"check", "--trust", "strict", chain}); code != 1 {
		t.Fatalf("strict check without anchors: expected 1, got %d", code)
	}
	if code := run([]string{"truststore", "add", "--anchor", root}); code != 0 {
		t.Fatalf("truststore add: expected 0, got %d", code)
	}
	if code := run([]string{"check", "--trust", "strict", chain}); code != 0 {
		t.Fatalf("strict check with the root anchored: expected 0, got %d", code)
	}
}

func TestRunCheck_Errors(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	chain, _ := writeChain(t, dir, "chain.pem", elliptic.P256())

	tests := map[string][]string{
		"no files":     {"check"},
		"missing file": {"check", filepath.Join(dir, "absent.pem")},
		"not pem":      {"check", writeFile(t, dir, "junk.pem", "junk")},
		"bad format":   {"check", "--format", "xml", chain},
		"bad trust":    {"check", "--trust", "lenient", chain},
		"unknown flag": {"check", "--bogus", chain},
	}
	for name, args := range tests {
		if code := run(args); code != 2 {
			t.Errorf("%s: expected exit code 2, got %d", name, code)
		}
	}
}

func TestRunCheck_Directory(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()
	writeChain(t, dir, "a.pem", elliptic.P256())
	writeChain(t, dir, "b.pem", elliptic.P384())
	writeFile(t, dir, "server.key", "not checked")
	out := filepath.Join(t.TempDir(), "report.json")

	if code := run([]string{"check", "--format", "json", "--output", out, dir}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var rep report.JSONReport
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}
	// a.pem, b.pem and their root-*.pem companions.
	if rep.Summary.Checked != 4 {
		t.Errorf("Checked = %d, want 4", rep.Summary.Checked)
	}

	if code := run([]string{"check", t.TempDir()}); code != 2 {
		t.Errorf("empty directory: expected 2, got %d", code)
	}
}
