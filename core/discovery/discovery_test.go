package discovery

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultClassifier tests
// ---------------------------------------------------------------------------

func TestDefaultClassifier(t *testing.T) {
	t.Parallel()
	c := &DefaultClassifier{}

	cases := []struct {
		path string
		want ArtifactType
	}{
		{"server.pem", Certificate},
		{"certs/intermediate.CRT", Certificate},
		{"root.cer", Certificate},
		{"server.key", PrivateKey},
		{"server-key.pem", PrivateKey},
		{"tls/server.key.pem", PrivateKey},
		{"pkcs8.p8", PrivateKey},
		{"truststore.json", TrustStore},
		{"corp.truststore.json", TrustStore},
		{"release-signers.yaml", Manifest},
		{"signers.yml", Manifest},
		{"config.yaml", Unknown},
		{"README.md", Unknown},
		{"cert.der", Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got := c.Classify(tc.path, nil)
			if got != tc.want {
				t.Errorf("Classify(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ClassifierRegistry tests
// ---------------------------------------------------------------------------

type stubClassifier struct {
	result ArtifactType
}

func (s *stubClassifier) Classify(_ string, _ os.FileInfo) ArtifactType {
	return s.result
}

func TestClassifierRegistry_FirstNonUnknownWins(t *testing.T) {
	t.Parallel()
	reg := NewClassifierRegistry()
	reg.Register(&stubClassifier{result: Unknown})
	reg.Register(&stubClassifier{result: Manifest})
	reg.Register(&stubClassifier{result: Certificate})

	if got := reg.Classify("x", nil); got != Manifest {
		t.Errorf("Classify = %q, want %q", got, Manifest)
	}
}

func TestClassifierRegistry_Empty(t *testing.T) {
	t.Parallel()
	if got := NewClassifierRegistry().Classify("a.pem", nil); got != Unknown {
		t.Errorf("empty registry Classify = %q, want %q", got, Unknown)
	}
}

// ---------------------------------------------------------------------------
// Ignore pattern tests
// ---------------------------------------------------------------------------

func TestLoadIgnorePatterns_NoFiles(t *testing.T) {
	t.Parallel()
	patterns, err := LoadIgnorePatterns(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected no patterns, got %v", patterns)
	}
}

func TestLoadIgnorePatterns_BothFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, ".gitignore"), "# comment\n\n*.old.pem\n")
	writeTestFile(t, filepath.Join(dir, IgnoreFileName), "archive/\n!keep.old.pem\n")

	patterns, err := LoadIgnorePatterns(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"*.old.pem", "archive/", "!keep.old.pem"}
	if !reflect.DeepEqual(patterns, want) {
		t.Errorf("patterns = %v, want %v", patterns, want)
	}
}

func TestIsIgnored(t *testing.T) {
	t.Parallel()
	patterns := []string{"expired", "*.old.pem", "archive/", "/top.pem", "certs/tmp/", "!keep.old.pem"}

	cases := []struct {
		path string
		want bool
	}{
		{"expired/a.pem", true},
		{"x/expired", true},
		{"a.old.pem", true},
		{"keep.old.pem", false},
		{"archive/a.pem", true},
		{"archive", false},
		{"top.pem", true},
		{"sub/top.pem", false},
		{"certs/tmp/a.pem", true},
		{"certs/a.pem", false},
		{".git/config", true},
		{"server.pem", false},
	}
	for _, tc := range cases {
		if got := IsIgnored(tc.path, patterns); got != tc.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnore_CertificateExtensionsIgnoreCase(t *testing.T) {
	t.Parallel()
	ig := CompileIgnore([]string{"*.old.pem", "staging/*.CRT", "*.key", "README*"})

	cases := []struct {
		path string
		want bool
	}{
		{"root.old.pem", true},
		{"ROOT.OLD.PEM", true},
		{"certs/Intermediate.Old.Pem", true},
		{"staging/leaf.crt", true},
		{"staging/leaf.Crt", true},
		{"other/leaf.crt", false},
		{"server.KEY", true},
		{"root.pem", false},
		// Non-certificate patterns keep gitignore's case sensitivity.
		{"README.md", true},
		{"readme.md", false},
	}
	for _, tc := range cases {
		if got := ig.Match(tc.path, false); got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnore_DirectoryOnly(t *testing.T) {
	t.Parallel()
	ig := CompileIgnore([]string{"archive/", "/revoked/"})

	cases := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"archive", true, true},
		{"archive", false, false},
		{"nested/archive", true, true},
		{"archive/a.pem", false, true},
		{"revoked", true, true},
		{"nested/revoked", true, false},
	}
	for _, tc := range cases {
		if got := ig.Match(tc.path, tc.isDir); got != tc.want {
			t.Errorf("Match(%q, dir=%v) = %v, want %v", tc.path, tc.isDir, got, tc.want)
		}
	}
}

func TestIgnore_NilAndGit(t *testing.T) {
	t.Parallel()
	var ig *Ignore
	if ig.Match("a.pem", false) {
		t.Error("nil Ignore should match nothing")
	}
	if !ig.Match(".git", true) || !ig.Match("sub/.git/HEAD", false) {
		t.Error(".git should always be ignored")
	}
}

func TestWalker_IgnoresUppercaseCertificates(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, ".gitignore"), "*.bak.pem\n")
	writeTestFile(t, filepath.Join(root, "LEAF.BAK.PEM"), "x")
	writeTestFile(t, filepath.Join(root, "leaf.pem"), "x")

	artifacts, err := NewWalker(root).Walk()
	if err != nil {
		t.Fatal(err)
	}
	var certs []string
	for _, a := range artifacts {
		if a.Type == Certificate {
			certs = append(certs, a.Path)
		}
	}
	if !reflect.DeepEqual(certs, []string{"leaf.pem"}) {
		t.Errorf("certificates = %v, want [leaf.pem]", certs)
	}
}

// ---------------------------------------------------------------------------
// Walker tests
// ---------------------------------------------------------------------------

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// createTestTree builds:
//
//	root/
//	  .git/HEAD
//	  .certguardignore   (archive/)
//	  b.pem
//	  a.crt
//	  server.key
//	  signers.yaml
//	  archive/old.pem
//	  nested/c.pem
func createTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		".git/HEAD":       "ref: refs/heads/main",
		IgnoreFileName:    "archive/\n",
		"b.pem":           "b",
		"a.crt":           "a",
		"server.key":      "k",
		"signers.yaml":    "signers: []",
		"archive/old.pem": "old",
		"nested/c.pem":    "c",
	} {
		writeTestFile(t, filepath.Join(root, name), content)
	}
	return root
}

func TestWalker_Walk(t *testing.T) {
	t.Parallel()
	root := createTestTree(t)

	artifacts, err := NewWalker(root).Walk()
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	got := make(map[string]ArtifactType)
	var order []string
	for _, a := range artifacts {
		got[a.Path] = a.Type
		order = append(order, a.Path)
	}
	want := map[string]ArtifactType{
		IgnoreFileName: Unknown,
		"a.crt":        Certificate,
		"b.pem":        Certificate,
		"nested/c.pem": Certificate,
		"server.key":   PrivateKey,
		"signers.yaml": Manifest,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("artifacts = %v, want %v", got, want)
	}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("artifacts not sorted: %v", order)
			break
		}
	}
}

func TestWalker_ArtifactFields(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "leaf.pem"), "12345")

	artifacts, err := NewWalker(root).Walk()
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(artifacts))
	}
	a := artifacts[0]
	if a.Size != 5 || !filepath.IsAbs(a.AbsPath) || a.Path != "leaf.pem" {
		t.Errorf("artifact = %+v", a)
	}
}

func TestWalker_NonexistentRoot(t *testing.T) {
	t.Parallel()
	if _, err := NewWalker(filepath.Join(t.TempDir(), "missing")).Walk(); err == nil {
		t.Error("expected error for nonexistent root")
	}
}

func TestExpandChainPaths(t *testing.T) {
	t.Parallel()
	root := createTestTree(t)
	single := filepath.Join(t.TempDir(), "single.pem")
	missing := filepath.Join(root, "missing.pem")

	got, err := ExpandChainPaths([]string{single, root, missing})
	if err != nil {
		t.Fatalf("ExpandChainPaths: %v", err)
	}
	want := []string{
		single,
		filepath.Join(root, "a.crt"),
		filepath.Join(root, "b.pem"),
		filepath.Join(root, "nested", "c.pem"),
		missing,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandChainPaths = %v, want %v", got, want)
	}
}

func TestExpandChainPaths_EmptyDirectory(t *testing.T) {
	t.Parallel()
	if _, err := ExpandChainPaths([]string{t.TempDir()}); err == nil {
		t.Error("expected error for a directory without certificates")
	}
}
