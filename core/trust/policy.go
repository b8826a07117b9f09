package trust

import (
	"fmt"
	"strings"
)

// TrustPolicy decides which findings beyond disabled algorithms and
// blocklisted certificates fail a verification.
type TrustPolicy struct {
	RejectWeak    bool // weak (legacy) algorithms and keys are violations, not warnings
	RequireAnchor bool // the chain must lead to a trust anchor
}

// DefaultTrustPolicy returns a policy that only reports weak algorithms as
// warnings and accepts private roots.
func DefaultTrustPolicy() TrustPolicy {
	return TrustPolicy{}
}

// StrictTrustPolicy returns a policy rejecting weak algorithms and chains
// that do not lead to a trust anchor.
func StrictTrustPolicy() TrustPolicy {
	return TrustPolicy{RejectWeak: true, RequireAnchor: true}
}

// ParseTrustPolicy returns the named policy: "default" or "strict".
func ParseTrustPolicy(name string) (TrustPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultTrustPolicy(), nil
	case "strict":
		return StrictTrustPolicy(), nil
	default:
		return TrustPolicy{}, fmt.Errorf("unknown trust policy: %q", name)
	}
}

// Enforce checks a verification result against the policy. It returns all
// violations found, not just the first.
func (p TrustPolicy) Enforce(result VerifyResult) []TrustViolation {
	var violations []TrustViolation

	if p.RejectWeak {
		for _, w := range result.Warnings {
			violations = append(violations, TrustViolation{
				Field:   w.Field,
				Message: w.Message + " (weak algorithms rejected by policy)",
			})
		}
	}

	if p.RequireAnchor && len(result.Certificates) > 0 && !result.Anchored && !anyAnchor(result) {
		violations = append(violations, TrustViolation{
			Field:   "anchor",
			Message: "chain does not lead to a trust anchor but policy requires it",
		})
	}

	return violations
}

func anyAnchor(result VerifyResult) bool {
	for _, c := range result.Certificates {
		if c.Anchor {
			return true
		}
	}
	return false
}
