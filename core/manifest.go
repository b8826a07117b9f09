package core

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nox-hq/certguard/core/constraints"
	"github.com/nox-hq/certguard/core/trust"
	"gopkg.in/yaml.v3"
)

// SignerManifest describes the signers of one signed archive. Chain paths
// are PEM bundles, leaf first, relative to the manifest.
type SignerManifest struct {
	Location string       `yaml:"location"`
	Signers  []SignerSpec `yaml:"signers"`

	dir string
}

// SignerSpec is one signer entry of a manifest.
type SignerSpec struct {
	Chain     string         `yaml:"chain"`
	Timestamp *TimestampSpec `yaml:"timestamp"`
}

// TimestampSpec is a signer's timestamp.
type TimestampSpec struct {
	Time  time.Time `yaml:"time"`
	Chain string    `yaml:"chain"`
}

// LoadManifest reads a signer manifest. Location defaults to the manifest
// path.
func LoadManifest(path string) (*SignerManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m SignerManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(m.Signers) == 0 {
		return nil, errors.New("manifest lists no signers")
	}
	if m.Location == "" {
		m.Location = path
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Resolve reads every chain the manifest references.
func (m *SignerManifest) Resolve() ([]constraints.Signer, error) {
	signers := make([]constraints.Signer, 0, len(m.Signers))
	for i, spec := range m.Signers {
		if spec.Chain == "" {
			return nil, fmt.Errorf("signer %d: chain is required", i+1)
		}
		chain, err := readChain(m.path(spec.Chain))
		if err != nil {
			return nil, fmt.Errorf("signer %d: %w", i+1, err)
		}
		s := constraints.Signer{Chain: chain}
		if ts := spec.Timestamp; ts != nil {
			if ts.Time.IsZero() {
				return nil, fmt.Errorf("signer %d: timestamp time is required", i+1)
			}
			stamp := &constraints.Timestamp{Time: ts.Time}
			if ts.Chain != "" {
				if stamp.Chain, err = readChain(m.path(ts.Chain)); err != nil {
					return nil, fmt.Errorf("signer %d timestamp: %w", i+1, err)
				}
			}
			s.Timestamp = stamp
		}
		signers = append(signers, s)
	}
	return signers, nil
}

func (m *SignerManifest) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}

func readChain(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chain: %w", err)
	}
	certs, err := trust.ParseCertificatesPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return certs, nil
}
