package constraints

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

// testCert issues a certificate for cn signed by parent (self-signed when
// parent is nil) and returns it with its private key.
func testCert(t *testing.T, cn string, parent *x509.Certificate, parentKey crypto.Signer) (*x509.Certificate, crypto.Signer) {
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
	signer := crypto.Signer(key)
	issuer := tmpl
	if parent != nil {
		issuer = parent
		signer = parentKey
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, issuer, &key.PublicKey, signer)
	if err != nil {
		t.Fatalf("creating certificate %s: %v", cn, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing certificate %s: %v", cn, err)
	}
	return cert, key
}

// testChain returns a two-certificate chain [leaf, root].
func testChain(t *testing.T, name string) []*x509.Certificate {
	t.Helper()
	root, rootKey := testCert(t, name+" Root", nil, nil)
	leaf, _ := testCert(t, name+" Leaf", root, rootKey)
	return []*x509.Certificate{leaf, root}
}

// fakeAnchors reports a fixed set of issuers as anchored and counts calls.
type fakeAnchors struct {
	issuers map[string]bool
	calls   int
}

func newFakeAnchors(anchors ...*x509.Certificate) *fakeAnchors {
	f := &fakeAnchors{issuers: make(map[string]bool)}
	for _, a := range anchors {
		f.issuers[string(a.RawSubject)] = true
	}
	return f
}

func (f *fakeAnchors) IssuedByAnchor(cert *x509.Certificate) bool {
	f.calls++
	return f.issuers[string(cert.RawIssuer)]
}

// fixedParams is a Parameters stub for rule tests.
type fixedParams struct {
	keys     []crypto.PublicKey
	date     time.Time
	anchored bool
	variant  Variant
	suffix   string
}

func (p fixedParams) Keys() []crypto.PublicKey         { return p.keys }
func (p fixedParams) EffectiveDate() (time.Time, bool) { return p.date, !p.date.IsZero() }
func (p fixedParams) AnchoredToTrustedCA() bool        { return p.anchored }
func (p fixedParams) Variant() Variant                 { return p.variant }
func (p fixedParams) DiagnosticSuffix() string         { return p.suffix }

