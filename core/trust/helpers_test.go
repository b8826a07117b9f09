package trust

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

type testIdentity struct {
	cert *x509.Certificate
	key  crypto.Signer
}

// issue creates a certificate for cn. A nil parent makes it self-signed.
func issue(t *testing.T, cn string, parent *testIdentity) *testIdentity {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  parent == nil,
	}
	issuerCert, signer := tmpl, crypto.Signer(key)
	if parent != nil {
		issuerCert, signer = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, issuerCert, &key.PublicKey, signer)
	if err != nil {
		t.Fatalf("creating certificate %s: %v", cn, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing certificate %s: %v", cn, err)
	}
	return &testIdentity{cert: cert, key: key}
}

// chainOf returns [leaf, root] for a fresh root named cn.
func chainOf(t *testing.T, cn string) (leaf, root *testIdentity) {
	t.Helper()
	root = issue(t, cn+" Root", nil)
	leaf = issue(t, cn+" Leaf", root)
	return leaf, root
}

func staticLoader(entries ...AnchorEntry) Loader {
	return func() ([]AnchorEntry, error) { return entries, nil }
}
