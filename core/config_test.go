package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_NotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("expected no error for missing %s, got: %v", ConfigFileName, err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if len(cfg.Properties) != 0 {
		t.Errorf("expected no property overrides, got %v", cfg.Properties)
	}
	if cfg.Output.Format != "" {
		t.Errorf("expected empty format, got %q", cfg.Output.Format)
	}
}

func TestLoadConfig_Valid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `properties:
  jdk.certpath.disabledAlgorithms: "MD5, SHA1"
security_properties_file: conf/java.security
trust_store: /etc/certguard/cacerts.json
blocklist: blocked.certs
concurrency: 8
policy:
  disabled: jdk.jar.disabledAlgorithms
  trust: strict
  variant: code_signing
output:
  format: json
  path: report.json
serve:
  rate_limit: 2.5
  burst: 5
watch:
  debounce: 250ms
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.Properties["jdk.certpath.disabledAlgorithms"]; got != "MD5, SHA1" {
		t.Errorf("property override = %q", got)
	}
	if want := filepath.Join(dir, "conf", "java.security"); cfg.SecurityPropertiesFile != want {
		t.Errorf("SecurityPropertiesFile = %q, want %q", cfg.SecurityPropertiesFile, want)
	}
	if cfg.TrustStore != "/etc/certguard/cacerts.json" {
		t.Errorf("absolute TrustStore changed: %q", cfg.TrustStore)
	}
	if want := filepath.Join(dir, "blocked.certs"); cfg.Blocklist != want {
		t.Errorf("Blocklist = %q, want %q", cfg.Blocklist, want)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.Policy.Disabled != "jdk.jar.disabledAlgorithms" || cfg.Policy.Trust != "strict" || cfg.Policy.Variant != "code_signing" {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if cfg.Output.Format != "json" || cfg.Output.Path != "report.json" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Serve.RateLimit != 2.5 || cfg.Serve.Burst != 5 {
		t.Errorf("Serve = %+v", cfg.Serve)
	}
	if cfg.Watch.Debounce != "250ms" {
		t.Errorf("Watch = %+v", cfg.Watch)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("properties: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
