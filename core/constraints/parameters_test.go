package constraints

import (
	"crypto/x509"
	"testing"
	"time"
)

func ts(t *testing.T, date string, chain []*x509.Certificate) *Timestamp {
	t.Helper()
	at, err := time.Parse(time.DateOnly, date)
	if err != nil {
		t.Fatal(err)
	}
	return &Timestamp{Time: at, Chain: chain}
}

func TestSignerParameters_LatestTimestamp(t *testing.T) {
	tsa := testChain(t, "TSA")
	signers := []Signer{
		{Chain: testChain(t, "A"), Timestamp: ts(t, "2020-03-01", tsa)},
		{Chain: testChain(t, "B"), Timestamp: ts(t, "2021-06-15", tsa)},
		{Chain: testChain(t, "C"), Timestamp: ts(t, "2019-01-01", tsa)},
	}
	p := NewSignerParameters(signers, nil)

	date, ok := p.EffectiveDate()
	if !ok {
		t.Fatal("expected an effective date when every signer is timestamped")
	}
	if want := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC); !date.Equal(want) {
		t.Errorf("EffectiveDate() = %v, want %v", date, want)
	}
}

func TestSignerParameters_OneUntimestampedSigner(t *testing.T) {
	tsa := testChain(t, "TSA")
	for i := 0; i < 3; i++ {
		signers := []Signer{
			{Chain: testChain(t, "A"), Timestamp: ts(t, "2020-03-01", tsa)},
			{Chain: testChain(t, "B"), Timestamp: ts(t, "2021-06-15", tsa)},
			{Chain: testChain(t, "C"), Timestamp: ts(t, "2022-01-01", tsa)},
		}
		signers[i].Timestamp = nil

		p := NewSignerParameters(signers, nil)
		if date, ok := p.EffectiveDate(); ok {
			t.Errorf("untimestamped signer at %d: EffectiveDate() = %v, want none", i, date)
		}
	}
}

func TestSignerParameters_NoSigners(t *testing.T) {
	p := NewSignerParameters(nil, newFakeAnchors())
	if _, ok := p.EffectiveDate(); ok {
		t.Error("no signers should have no effective date")
	}
	if len(p.Keys()) != 0 {
		t.Errorf("Keys() = %d, want 0", len(p.Keys()))
	}
	if p.AnchoredToTrustedCA() {
		t.Error("no signers should not be anchored")
	}
	if p.Variant() != VariantCodeSigning {
		t.Errorf("Variant() = %q, want %q", p.Variant(), VariantCodeSigning)
	}
}

func TestSignerParameters_KeysAreLeafAndTSAKeys(t *testing.T) {
	chain := testChain(t, "A")
	tsa := testChain(t, "TSA")
	signers := []Signer{
		{Chain: chain, Timestamp: ts(t, "2020-03-01", tsa)},
		{Chain: chain, Timestamp: ts(t, "2020-03-02", tsa)},
	}
	p := NewSignerParameters(signers, nil)

	keys := p.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() = %d keys, want 2 (duplicates removed)", len(keys))
	}
	if !chain[0].PublicKey.(equalKey).Equal(keys[0]) {
		t.Error("first key should be the signer leaf key")
	}
	if !tsa[0].PublicKey.(equalKey).Equal(keys[1]) {
		t.Error("second key should be the TSA leaf key")
	}
}

func TestSignerParameters_AnchoredIsCached(t *testing.T) {
	chain := testChain(t, "Trusted")
	anchors := newFakeAnchors(chain[len(chain)-1])

	p := NewSignerParameters([]Signer{{Chain: chain}}, anchors)
	if anchors.calls != 0 {
		t.Fatalf("anchor index consulted at construction (%d calls)", anchors.calls)
	}
	if !p.AnchoredToTrustedCA() {
		t.Fatal("expected chain to be anchored")
	}
	calls := anchors.calls
	for i := 0; i < 3; i++ {
		if !p.AnchoredToTrustedCA() {
			t.Fatal("verdict changed between calls")
		}
	}
	if anchors.calls != calls {
		t.Errorf("anchor index consulted again: %d calls, want %d", anchors.calls, calls)
	}
}

func TestSignerParameters_NegativeVerdictIsCached(t *testing.T) {
	anchors := newFakeAnchors()
	tsa := testChain(t, "TSA")
	signers := []Signer{
		{Chain: testChain(t, "A"), Timestamp: ts(t, "2020-03-01", tsa)},
		{Chain: testChain(t, "B")},
	}
	p := NewSignerParameters(signers, anchors)

	if p.AnchoredToTrustedCA() {
		t.Fatal("expected chains not to be anchored")
	}
	if anchors.calls != 3 {
		t.Fatalf("calls = %d, want 3 (one per distinct candidate)", anchors.calls)
	}
	if p.AnchoredToTrustedCA() {
		t.Fatal("verdict changed between calls")
	}
	if anchors.calls != 3 {
		t.Errorf("negative verdict recomputed: %d calls", anchors.calls)
	}
}

func TestSignerParameters_TSAChainCanAnchor(t *testing.T) {
	tsa := testChain(t, "TSA")
	anchors := newFakeAnchors(tsa[len(tsa)-1])
	p := NewSignerParameters([]Signer{
		{Chain: testChain(t, "Private"), Timestamp: ts(t, "2020-03-01", tsa)},
	}, anchors)
	if !p.AnchoredToTrustedCA() {
		t.Error("a trusted TSA chain should make the set anchored")
	}
}

func TestSignerParameters_DiagnosticSuffix(t *testing.T) {
	p := NewSignerParameters(nil, nil)
	if p.DiagnosticSuffix() != "" {
		t.Errorf("default suffix = %q, want empty", p.DiagnosticSuffix())
	}
	p.SetDiagnosticSuffix("META-INF/APP.SF", "CN=Signer")
	if want := " used with CN=Signer in META-INF/APP.SF"; p.DiagnosticSuffix() != want {
		t.Errorf("DiagnosticSuffix() = %q, want %q", p.DiagnosticSuffix(), want)
	}
}

func TestDiagnosticSuffix(t *testing.T) {
	tests := []struct {
		location, subject, want string
	}{
		{"", "", ""},
		{"app.jar", "", " used in app.jar"},
		{"", "CN=x", " used with CN=x"},
		{"app.jar", "CN=x", " used with CN=x in app.jar"},
	}
	for _, tt := range tests {
		if got := diagnosticSuffix(tt.location, tt.subject); got != tt.want {
			t.Errorf("diagnosticSuffix(%q, %q) = %q, want %q", tt.location, tt.subject, got, tt.want)
		}
	}
}

func TestChainParameters(t *testing.T) {
	chain := testChain(t, "Server")
	anchors := newFakeAnchors(chain[1])

	p := NewChainParameters(chain, VariantTLSServer, time.Time{}, anchors)
	if _, ok := p.EffectiveDate(); ok {
		t.Error("zero time should mean no effective date")
	}
	if len(p.Keys()) != 2 {
		t.Errorf("Keys() = %d, want 2", len(p.Keys()))
	}
	if p.Variant() != VariantTLSServer {
		t.Errorf("Variant() = %q", p.Variant())
	}
	if !p.AnchoredToTrustedCA() || !p.AnchoredToTrustedCA() {
		t.Error("expected anchored chain")
	}
	if anchors.calls != 1 {
		t.Errorf("calls = %d, want 1", anchors.calls)
	}

	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p = NewChainParameters(chain, VariantGeneric, at, nil)
	if d, ok := p.EffectiveDate(); !ok || !d.Equal(at) {
		t.Errorf("EffectiveDate() = %v, %v", d, ok)
	}
	if p.AnchoredToTrustedCA() {
		t.Error("nil anchors should never anchor")
	}
}

func TestParseVariant(t *testing.T) {
	tests := map[string]Variant{
		"tls_server":   VariantTLSServer,
		"server":       VariantTLSServer,
		"tls-client":   VariantTLSClient,
		"code_signing": VariantCodeSigning,
		"jar":          VariantCodeSigning,
		"tsa":          VariantTSAServer,
		"":             VariantGeneric,
		"unknown":      VariantGeneric,
	}
	for in, want := range tests {
		if got := ParseVariant(in); got != want {
			t.Errorf("ParseVariant(%q) = %q, want %q", in, got, want)
		}
	}
}
