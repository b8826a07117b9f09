// Package trust classifies certificates and keys against the trust-anchor
// index, the certificate blocklist and the disabled and legacy algorithm
// policies.
package trust

import (
	"fmt"
	"strings"
	"time"
)

// Strength classifies an algorithm or key. Higher values are worse.
type Strength int

const (
	// StrengthAccepted means no policy restricts the algorithm.
	StrengthAccepted Strength = iota
	// StrengthWeak means the legacy policy flags the algorithm.
	StrengthWeak
	// StrengthDisabled means the disabled policy rejects the algorithm.
	StrengthDisabled
)

// String returns the human-readable name of the strength.
func (s Strength) String() string {
	switch s {
	case StrengthAccepted:
		return "accepted"
	case StrengthWeak:
		return "weak"
	case StrengthDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("Strength(%d)", int(s))
	}
}

// MarshalText encodes the strength by name.
func (s Strength) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strength name.
func (s *Strength) UnmarshalText(text []byte) error {
	v, err := ParseStrength(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStrength parses a strength name. Returns an error for unknown values.
func ParseStrength(s string) (Strength, error) {
	switch strings.ToLower(s) {
	case "accepted":
		return StrengthAccepted, nil
	case "weak":
		return StrengthWeak, nil
	case "disabled":
		return StrengthDisabled, nil
	default:
		return 0, fmt.Errorf("unknown strength: %q", s)
	}
}

// Verdict is the classification of one algorithm or key together with the
// policy message that produced it.
type Verdict struct {
	Strength Strength `json:"strength"`
	Reason   string   `json:"reason,omitempty"`
}

// TrustViolation describes a single failed check.
type TrustViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface for TrustViolation.
func (v TrustViolation) Error() string {
	return fmt.Sprintf("trust violation on %s: %s", v.Field, v.Message)
}

// CertReport is the outcome for one certificate of a chain.
type CertReport struct {
	Role               string  `json:"role"` // "chain", "signer" or "tsa"
	Subject            string  `json:"subject"`
	Issuer             string  `json:"issuer"`
	Fingerprint        string  `json:"fingerprint"` // SHA-256, upper-case hex
	SignatureAlgorithm string  `json:"signature_algorithm"`
	Signature          Verdict `json:"signature"`
	Key                string  `json:"key"`
	KeyVerdict         Verdict `json:"key_verdict"`
	Untrusted          bool    `json:"untrusted"`
	Anchor             bool    `json:"anchor"`
	IssuedByAnchor     bool    `json:"issued_by_anchor"`
}

// VerifyResult holds the outcome of a chain or signer verification.
type VerifyResult struct {
	Source        string           `json:"source,omitempty"`
	Variant       string           `json:"variant"`
	Certificates  []CertReport     `json:"certificates"`
	Anchored      bool             `json:"anchored"`
	Timestamped   bool             `json:"timestamped"`
	EffectiveDate time.Time        `json:"effective_date,omitzero"`
	Warnings      []TrustViolation `json:"warnings,omitempty"`
	Violations    []TrustViolation `json:"violations,omitempty"`
	VerifiedAt    time.Time        `json:"verified_at"`
}

// OK returns true if verification passed without any violations.
func (r VerifyResult) OK() bool {
	return len(r.Violations) == 0
}

// Worst returns the worst strength across all certificates.
func (r VerifyResult) Worst() Strength {
	worst := StrengthAccepted
	for _, c := range r.Certificates {
		worst = max(worst, c.Signature.Strength, c.KeyVerdict.Strength)
	}
	return worst
}
