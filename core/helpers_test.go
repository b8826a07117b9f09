package core

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nox-hq/certguard/core/trust"
)

// testChain returns [leaf, root] with keys on curve.
func testChain(t *testing.T, name string, curve elliptic.Curve) []*x509.Certificate {
	t.Helper()
	rootKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	leafKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	root := create(t, name+" Root", nil, &rootKey.PublicKey, rootKey)
	leaf := create(t, name+" Leaf", root, &leafKey.PublicKey, rootKey)
	return []*x509.Certificate{leaf, root}
}

func create(t *testing.T, cn string, parent *x509.Certificate, pub crypto.PublicKey, signer crypto.Signer) *x509.Certificate {
	t.Helper()
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  parent == nil,
	}
	if parent == nil {
		parent = tmpl
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	if err != nil {
		t.Fatalf("creating %s: %v", cn, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

// writeChain writes chain as a PEM bundle under dir and returns its path.
func writeChain(t *testing.T, dir, name string, chain []*x509.Certificate) string {
	t.Helper()
	var data []byte
	for _, c := range chain {
		data = append(data, trust.EncodeCertificatePEM(c)...)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolated returns options that keep a test away from the process-wide
// trust indices.
func isolated() []EngineOption {
	return []EngineOption{
		WithAnchorIndex(trust.NewAnchorIndex(nil)),
		WithUntrustedIndex(trust.NewUntrustedIndex(nil)),
	}
}
