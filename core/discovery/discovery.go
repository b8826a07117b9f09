// Package discovery finds certificate material under a directory tree.
//
// A Walker recursively walks a directory, classifies files as certificate
// bundles, signer manifests, trust stores or private keys, and returns a
// sorted inventory. Ignore patterns from .gitignore and .certguardignore
// are respected and the .git directory is always skipped.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ArtifactType identifies the category of a discovered file.
type ArtifactType string

const (
	// Certificate is a PEM certificate bundle (one chain per file).
	Certificate ArtifactType = "certificate"
	// Manifest is a signer manifest.
	Manifest ArtifactType = "manifest"
	// TrustStore is a certguard trust store file.
	TrustStore ArtifactType = "truststore"
	// PrivateKey is key material; it is reported but never checked.
	PrivateKey ArtifactType = "private_key"
	// Unknown represents files that do not match any known category.
	Unknown ArtifactType = "unknown"
)

// Artifact represents a single discovered file.
type Artifact struct {
	Path    string // relative to the walker root, slash-separated
	AbsPath string
	Type    ArtifactType
	Size    int64
}

// Classifier determines the ArtifactType of a file based on its path and
// metadata. Implementations return Unknown when they cannot classify the
// file so that later classifiers in a registry may attempt it.
type Classifier interface {
	Classify(path string, info os.FileInfo) ArtifactType
}

// ClassifierRegistry holds an ordered list of Classifiers. The first
// non-Unknown result wins.
type ClassifierRegistry struct {
	classifiers []Classifier
}

// NewClassifierRegistry creates an empty ClassifierRegistry.
func NewClassifierRegistry() *ClassifierRegistry {
	return &ClassifierRegistry{}
}

// Register appends a classifier to the registry.
func (r *ClassifierRegistry) Register(c Classifier) {
	r.classifiers = append(r.classifiers, c)
}

// Classify iterates through registered classifiers and returns the first
// non-Unknown result.
func (r *ClassifierRegistry) Classify(path string, info os.FileInfo) ArtifactType {
	for _, c := range r.classifiers {
		if t := c.Classify(path, info); t != Unknown {
			return t
		}
	}
	return Unknown
}

// DefaultClassifier classifies files by extension and well-known names.
type DefaultClassifier struct{}

var certificateExtensions = map[string]bool{
	".pem": true,
	".crt": true,
	".cer": true,
}

var keyExtensions = map[string]bool{
	".key": true,
	".p8":  true,
}

// Classify determines the ArtifactType of a file. Priority: PrivateKey >
// TrustStore > Manifest > Certificate > Unknown.
func (d *DefaultClassifier) Classify(path string, _ os.FileInfo) ArtifactType {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)

	switch {
	case keyExtensions[ext], strings.HasSuffix(name, "-key.pem"), strings.HasSuffix(name, ".key.pem"):
		return PrivateKey
	case name == "truststore.json", strings.HasSuffix(name, ".truststore.json"):
		return TrustStore
	case (ext == ".yaml" || ext == ".yml") && strings.Contains(name, "signers"):
		return Manifest
	case certificateExtensions[ext]:
		return Certificate
	}
	return Unknown
}

// Walker recursively discovers and classifies files under Root.
type Walker struct {
	Root           string
	Registry       *ClassifierRegistry
	IgnorePatterns []string // gitignore-style
}

// NewWalker creates a Walker rooted at root with the DefaultClassifier
// registered and the ignore files of root loaded. Missing ignore files
// mean no patterns.
func NewWalker(root string) *Walker {
	reg := NewClassifierRegistry()
	reg.Register(&DefaultClassifier{})

	patterns, _ := LoadIgnorePatterns(root)

	return &Walker{
		Root:           root,
		Registry:       reg,
		IgnorePatterns: patterns,
	}
}

// Walk traverses Root, classifies each regular file and returns the
// artifacts sorted by relative path. Ignored directories, .git included,
// are skipped entirely.
func (w *Walker) Walk() ([]Artifact, error) {
	absRoot, err := filepath.Abs(w.Root)
	if err != nil {
		return nil, err
	}
	ignore := CompileIgnore(w.IgnorePatterns)

	var artifacts []Artifact

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if ignore.Match(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		artifacts = append(artifacts, Artifact{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
			Type:    w.Registry.Classify(rel, info),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Path < artifacts[j].Path
	})

	return artifacts, nil
}

// ExpandChainPaths replaces every directory in paths with the certificate
// bundles found under it. Files are passed through unchanged and order is
// kept. A directory without certificates is an error.
func ExpandChainPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		artifacts, err := NewWalker(p).Walk()
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
		n := len(out)
		for _, a := range artifacts {
			if a.Type == Certificate {
				out = append(out, a.AbsPath)
			}
		}
		if len(out) == n {
			return nil, fmt.Errorf("%s: no certificate files found", p)
		}
	}
	return out, nil
}
