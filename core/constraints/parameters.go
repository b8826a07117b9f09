package constraints

import (
	"crypto"
	"crypto/x509"
	"time"
)

// Variant names the validation context a policy rule may be limited to
// with a "usage" condition.
type Variant string

const (
	VariantGeneric     Variant = "generic"
	VariantCodeSigning Variant = "code signing"
	VariantTSAServer   Variant = "tsa server"
	VariantTLSServer   Variant = "tls server"
	VariantTLSClient   Variant = "tls client"
)

// ParseVariant maps a command-line spelling ("tls_server", "code-signing",
// ...) to a Variant. Unknown values map to VariantGeneric.
func ParseVariant(s string) Variant {
	switch s {
	case "code_signing", "code-signing", "code signing", "jar":
		return VariantCodeSigning
	case "tsa_server", "tsa-server", "tsa server", "tsa":
		return VariantTSAServer
	case "tls_server", "tls-server", "tls server", "server":
		return VariantTLSServer
	case "tls_client", "tls-client", "tls client", "client":
		return VariantTLSClient
	default:
		return VariantGeneric
	}
}

// Parameters is what a constraint check needs to know about the object
// being checked.
type Parameters interface {
	// Keys returns the public keys involved in the check.
	Keys() []crypto.PublicKey
	// EffectiveDate returns the date the check is made for. ok is false
	// when the check should use the current time.
	EffectiveDate() (date time.Time, ok bool)
	// AnchoredToTrustedCA reports whether a certificate in the checked
	// chains was issued by a trust anchor.
	AnchoredToTrustedCA() bool
	// Variant returns the validation context.
	Variant() Variant
	// DiagnosticSuffix is appended to violation messages.
	DiagnosticSuffix() string
}

// AnchorChecker answers whether a certificate's issuer is a trust anchor.
type AnchorChecker interface {
	IssuedByAnchor(cert *x509.Certificate) bool
}

// Timestamp is a signing timestamp together with the chain of the
// timestamping authority.
type Timestamp struct {
	Time  time.Time
	Chain []*x509.Certificate
}

// Signer is one signature over an archive: the signer chain (leaf first)
// and an optional timestamp.
type Signer struct {
	Chain     []*x509.Certificate
	Timestamp *Timestamp
}

type anchorVerdict uint8

const (
	verdictUnknown anchorVerdict = iota
	verdictAnchored
	verdictNotAnchored
)

// anchorCache computes the anchor verdict once and remembers it, including
// a negative answer.
type anchorCache struct {
	anchors    AnchorChecker
	candidates []*x509.Certificate
	verdict    anchorVerdict
}

func (c *anchorCache) anchored() bool {
	if c.verdict == verdictUnknown {
		c.verdict = verdictNotAnchored
		if c.anchors != nil {
			for _, cert := range c.candidates {
				if c.anchors.IssuedByAnchor(cert) {
					c.verdict = verdictAnchored
					break
				}
			}
		}
	}
	return c.verdict == verdictAnchored
}

func (c *anchorCache) addCandidate(cert *x509.Certificate) {
	for _, existing := range c.candidates {
		if existing.Equal(cert) {
			return
		}
	}
	c.candidates = append(c.candidates, cert)
}

// SignerParameters aggregates the signers of one archive. A value is used
// by a single goroutine for one verification and then discarded.
type SignerParameters struct {
	keys   []crypto.PublicKey
	date   time.Time
	dated  bool
	cache  anchorCache
	suffix string
}

// NewSignerParameters collects the keys and last chain certificates of
// every signer and timestamp. The effective date is the latest timestamp,
// but only when every signer is timestamped; one untimestamped signer makes
// the whole set untimestamped. anchors may be nil, in which case nothing is
// anchored.
func NewSignerParameters(signers []Signer, anchors AnchorChecker) *SignerParameters {
	p := &SignerParameters{cache: anchorCache{anchors: anchors}}

	var (
		latest time.Time
		dated  bool
		skip   bool
	)
	for _, s := range signers {
		p.addChain(s.Chain)
		if s.Timestamp == nil {
			latest, dated, skip = time.Time{}, false, true
			continue
		}
		p.addChain(s.Timestamp.Chain)
		if skip {
			continue
		}
		if !dated || s.Timestamp.Time.After(latest) {
			latest, dated = s.Timestamp.Time, true
		}
	}
	p.date, p.dated = latest, dated
	return p
}

func (p *SignerParameters) addChain(chain []*x509.Certificate) {
	if len(chain) == 0 {
		return
	}
	p.cache.addCandidate(chain[len(chain)-1])
	p.keys = appendKey(p.keys, chain[0].PublicKey)
}

// Keys implements Parameters.
func (p *SignerParameters) Keys() []crypto.PublicKey { return p.keys }

// EffectiveDate implements Parameters.
func (p *SignerParameters) EffectiveDate() (time.Time, bool) { return p.date, p.dated }

// AnchoredToTrustedCA implements Parameters. The anchor index is consulted
// on the first call only.
func (p *SignerParameters) AnchoredToTrustedCA() bool { return p.cache.anchored() }

// Variant implements Parameters.
func (p *SignerParameters) Variant() Variant { return VariantCodeSigning }

// SetDiagnosticSuffix records which archive entry and signer a check is
// about, for failure messages.
func (p *SignerParameters) SetDiagnosticSuffix(location, subject string) {
	p.suffix = diagnosticSuffix(location, subject)
}

// DiagnosticSuffix implements Parameters.
func (p *SignerParameters) DiagnosticSuffix() string { return p.suffix }

// ChainParameters describes a single certificate chain validated for a
// given variant at a given time.
type ChainParameters struct {
	keys    []crypto.PublicKey
	at      time.Time
	variant Variant
	cache   anchorCache
	suffix  string
}

// NewChainParameters returns parameters for chain (leaf first). A zero at
// means "now". Every certificate's key takes part in key checks, and the
// last certificate is the anchor candidate.
func NewChainParameters(chain []*x509.Certificate, variant Variant, at time.Time, anchors AnchorChecker) *ChainParameters {
	p := &ChainParameters{at: at, variant: variant, cache: anchorCache{anchors: anchors}}
	for _, c := range chain {
		p.keys = appendKey(p.keys, c.PublicKey)
	}
	if len(chain) > 0 {
		p.cache.addCandidate(chain[len(chain)-1])
	}
	return p
}

// Keys implements Parameters.
func (p *ChainParameters) Keys() []crypto.PublicKey { return p.keys }

// EffectiveDate implements Parameters.
func (p *ChainParameters) EffectiveDate() (time.Time, bool) { return p.at, !p.at.IsZero() }

// AnchoredToTrustedCA implements Parameters.
func (p *ChainParameters) AnchoredToTrustedCA() bool { return p.cache.anchored() }

// Variant implements Parameters.
func (p *ChainParameters) Variant() Variant { return p.variant }

// SetDiagnosticSuffix records the origin of the chain for failure messages.
func (p *ChainParameters) SetDiagnosticSuffix(location, subject string) {
	p.suffix = diagnosticSuffix(location, subject)
}

// DiagnosticSuffix implements Parameters.
func (p *ChainParameters) DiagnosticSuffix() string { return p.suffix }

type equalKey interface {
	Equal(crypto.PublicKey) bool
}

// appendKey appends k unless an equal key is already present.
func appendKey(keys []crypto.PublicKey, k crypto.PublicKey) []crypto.PublicKey {
	if k == nil {
		return keys
	}
	if ek, ok := k.(equalKey); ok {
		for _, existing := range keys {
			if ek.Equal(existing) {
				return keys
			}
		}
	}
	return append(keys, k)
}

func diagnosticSuffix(location, subject string) string {
	switch {
	case location == "" && subject == "":
		return ""
	case subject == "":
		return " used in " + location
	case location == "":
		return " used with " + subject
	default:
		return " used with " + subject + " in " + location
	}
}
