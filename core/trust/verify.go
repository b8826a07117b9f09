package trust

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nox-hq/certguard/core/algorithm"
	"github.com/nox-hq/certguard/core/constraints"
)

// AnchorLookup is the part of AnchorIndex the Verifier needs.
type AnchorLookup interface {
	IsAnchor(cert *x509.Certificate) bool
	IssuedByAnchor(cert *x509.Certificate) bool
}

// Blocklist is the part of UntrustedIndex the Verifier needs.
type Blocklist interface {
	IsUntrusted(cert *x509.Certificate) bool
}

// Verifier orchestrates certificate verification: blocklist lookup, anchor
// membership, chain linkage and algorithm classification.
type Verifier struct {
	anchors   AnchorLookup
	untrusted Blocklist
	disabled  *constraints.Policy
	legacy    *constraints.Policy
	policy    TrustPolicy
	now       func() time.Time
	logger    *slog.Logger
}

// VerifierOption is a functional option for configuring a Verifier.
type VerifierOption func(*Verifier)

// WithAnchors sets the trust-anchor index.
func WithAnchors(a AnchorLookup) VerifierOption {
	return func(v *Verifier) { v.anchors = a }
}

// WithUntrusted sets the certificate blocklist.
func WithUntrusted(b Blocklist) VerifierOption {
	return func(v *Verifier) { v.untrusted = b }
}

// WithDisabledPolicy sets the policy whose rejections are violations.
func WithDisabledPolicy(p *constraints.Policy) VerifierOption {
	return func(v *Verifier) { v.disabled = p }
}

// WithLegacyPolicy sets the policy whose rejections mark algorithms weak.
func WithLegacyPolicy(p *constraints.Policy) VerifierOption {
	return func(v *Verifier) { v.legacy = p }
}

// WithTrustPolicy sets the trust policy for enforcement.
func WithTrustPolicy(p TrustPolicy) VerifierOption {
	return func(v *Verifier) { v.policy = p }
}

// WithClock sets the time source for VerifiedAt.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier creates a Verifier with the given options.
// Defaults: no anchors, no blocklist, no policies, DefaultTrustPolicy().
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		policy: DefaultTrustPolicy(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Classify returns the strength of an algorithm name. params may be nil.
// Only invalid input is returned as an error.
func (v *Verifier) Classify(alg string, params constraints.Parameters) (Verdict, error) {
	return v.classify(func(p *constraints.Policy) error { return p.Check(alg, params) })
}

// ClassifyKey returns the strength of a public key. params may be nil.
func (v *Verifier) ClassifyKey(key crypto.PublicKey, params constraints.Parameters) (Verdict, error) {
	return v.classify(func(p *constraints.Policy) error { return p.CheckKey(key, params) })
}

func (v *Verifier) classify(check func(*constraints.Policy) error) (Verdict, error) {
	for _, step := range []struct {
		policy   *constraints.Policy
		strength Strength
	}{
		{v.disabled, StrengthDisabled},
		{v.legacy, StrengthWeak},
	} {
		if step.policy == nil {
			continue
		}
		err := check(step.policy)
		if err == nil {
			continue
		}
		if !constraints.IsViolation(err) {
			return Verdict{}, err
		}
		return Verdict{Strength: step.strength, Reason: err.Error()}, nil
	}
	return Verdict{Strength: StrengthAccepted}, nil
}

// VerifyChain verifies a chain (leaf first) for variant at time at. A zero
// at means now. location names the chain's origin in messages.
func (v *Verifier) VerifyChain(chain []*x509.Certificate, variant constraints.Variant, at time.Time, location string) VerifyResult {
	result := VerifyResult{
		Source:     location,
		Variant:    string(variant),
		VerifiedAt: v.now(),
	}
	if len(chain) == 0 {
		result.Violations = append(result.Violations, TrustViolation{
			Field:   "chain",
			Message: "no certificates",
		})
		return result
	}

	params := constraints.NewChainParameters(chain, variant, at, v.anchorChecker())
	params.SetDiagnosticSuffix(location, chain[0].Subject.String())
	v.checkChain(&result, "chain", chain, params)

	result.Anchored = params.AnchoredToTrustedCA()
	result.EffectiveDate, result.Timestamped = params.EffectiveDate()
	result.Violations = append(result.Violations, v.policy.Enforce(result)...)
	v.logger.Debug("chain verified", "source", location, "certificates", len(chain),
		"violations", len(result.Violations))
	return result
}

// VerifySigners verifies every signer of one signed archive. The signers
// share one parameter set, so the timestamp and anchor rules see them as a
// whole.
func (v *Verifier) VerifySigners(signers []constraints.Signer, location string) VerifyResult {
	result := VerifyResult{
		Source:     location,
		Variant:    string(constraints.VariantCodeSigning),
		VerifiedAt: v.now(),
	}
	if len(signers) == 0 {
		result.Violations = append(result.Violations, TrustViolation{
			Field:   "signers",
			Message: "no signers",
		})
		return result
	}

	params := constraints.NewSignerParameters(signers, v.anchorChecker())
	for i, s := range signers {
		if len(s.Chain) == 0 {
			result.Violations = append(result.Violations, TrustViolation{
				Field:   "signers",
				Message: fmt.Sprintf("signer %d has no certificates", i+1),
			})
			continue
		}
		params.SetDiagnosticSuffix(location, s.Chain[0].Subject.String())
		v.checkChain(&result, "signer", s.Chain, params)
		if s.Timestamp != nil && len(s.Timestamp.Chain) > 0 {
			v.checkChain(&result, "tsa", s.Timestamp.Chain, params)
		}
	}

	result.Anchored = params.AnchoredToTrustedCA()
	result.EffectiveDate, result.Timestamped = params.EffectiveDate()
	result.Violations = append(result.Violations, v.policy.Enforce(result)...)
	return result
}

func (v *Verifier) checkChain(result *VerifyResult, role string, chain []*x509.Certificate, params constraints.Parameters) {
	for i, cert := range chain {
		var issuer *x509.Certificate
		if i+1 < len(chain) {
			issuer = chain[i+1]
		}
		rep := v.checkCert(result, cert, issuer, params)
		rep.Role = role
		result.Certificates = append(result.Certificates, rep)
	}
}

func (v *Verifier) checkCert(result *VerifyResult, cert, issuer *x509.Certificate, params constraints.Parameters) CertReport {
	rep := CertReport{
		Subject: cert.Subject.String(),
		Issuer:  cert.Issuer.String(),
		Key:     keyDescription(cert.PublicKey),
	}
	if fp, err := Fingerprint(cert, AnchorDigest); err == nil {
		rep.Fingerprint = fp
	}

	if v.untrusted != nil && v.untrusted.IsUntrusted(cert) {
		rep.Untrusted = true
		result.Violations = append(result.Violations, TrustViolation{
			Field:   "certificate",
			Message: fmt.Sprintf("%s is on the blocklist", rep.Subject),
		})
	}
	if v.anchors != nil {
		rep.Anchor = v.anchors.IsAnchor(cert)
		rep.IssuedByAnchor = v.anchors.IssuedByAnchor(cert)
	}

	rep.SignatureAlgorithm = algorithm.SignatureName(cert.SignatureAlgorithm)
	if rep.SignatureAlgorithm == "" {
		rep.SignatureAlgorithm = cert.SignatureAlgorithm.String()
	}
	// A self-signed root's own signature carries no trust.
	if !selfSigned(cert) || issuer != nil {
		verdict, err := v.Classify(rep.SignatureAlgorithm, params)
		v.record(result, "signature_algorithm", verdict, err)
		rep.Signature = verdict
	}

	verdict, err := v.ClassifyKey(cert.PublicKey, params)
	v.record(result, "key", verdict, err)
	rep.KeyVerdict = verdict

	if issuer != nil {
		if err := linkedTo(cert, issuer); err != nil {
			result.Violations = append(result.Violations, TrustViolation{
				Field:   "signature",
				Message: fmt.Sprintf("%s: %v", rep.Subject, err),
			})
		}
	}
	return rep
}

func (v *Verifier) record(result *VerifyResult, field string, verdict Verdict, err error) {
	switch {
	case err != nil:
		result.Violations = append(result.Violations, TrustViolation{Field: field, Message: err.Error()})
	case verdict.Strength == StrengthDisabled:
		result.Violations = append(result.Violations, TrustViolation{Field: field, Message: verdict.Reason})
	case verdict.Strength == StrengthWeak:
		result.Warnings = append(result.Warnings, TrustViolation{Field: field, Message: verdict.Reason})
	}
}

// anchorChecker avoids handing a typed nil to the parameter sets.
func (v *Verifier) anchorChecker() constraints.AnchorChecker {
	if v.anchors == nil {
		return nil
	}
	return v.anchors
}

// linkedTo checks that issuer's key produced cert's signature. Algorithms
// the x509 package refuses are left to the algorithm policies.
func linkedTo(cert, issuer *x509.Certificate) error {
	err := issuer.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature)
	var insecure x509.InsecureAlgorithmError
	if err == nil || errors.As(err, &insecure) {
		return nil
	}
	return fmt.Errorf("not signed by %s: %w", issuer.Subject.String(), err)
}

func selfSigned(cert *x509.Certificate) bool {
	return string(cert.RawIssuer) == string(cert.RawSubject)
}

func keyDescription(key crypto.PublicKey) string {
	name := algorithm.KeyName(key)
	if name == "" {
		return fmt.Sprintf("%T", key)
	}
	if curve := algorithm.CurveName(key); curve != "" {
		return fmt.Sprintf("%s %d bit (%s)", name, algorithm.KeySize(key), curve)
	}
	return fmt.Sprintf("%s %d bit", name, algorithm.KeySize(key))
}
