package tui

import (
	"strings"

	"github.com/nox-hq/certguard/core/trust"
)

// strengthOrder defines the cycle order for the strength filter toggle.
var strengthOrder = []trust.Strength{
	trust.StrengthDisabled,
	trust.StrengthWeak,
	trust.StrengthAccepted,
}

// filterState tracks the active filter configuration.
type filterState struct {
	strengthIdx int    // -1 = all
	search      string // free-text search query
	searching   bool   // true when search input is active
}

func newFilterState() filterState {
	return filterState{strengthIdx: -1}
}

// cycleStrength advances the strength filter to the next level.
func (f *filterState) cycleStrength() {
	f.strengthIdx++
	if f.strengthIdx >= len(strengthOrder) {
		f.strengthIdx = -1
	}
}

// activeStrength returns the current strength filter, or "all".
func (f *filterState) activeStrength() string {
	if f.strengthIdx < 0 {
		return "all"
	}
	return strengthOrder[f.strengthIdx].String()
}

func (f *filterState) matches(it item) bool {
	if f.strengthIdx >= 0 && it.strength() != strengthOrder[f.strengthIdx] {
		return false
	}

	if f.search != "" {
		q := strings.ToLower(f.search)
		if !strings.Contains(strings.ToLower(it.cert.Subject), q) &&
			!strings.Contains(strings.ToLower(it.cert.Issuer), q) &&
			!strings.Contains(strings.ToLower(it.result.Source), q) &&
			!strings.Contains(strings.ToLower(it.cert.SignatureAlgorithm), q) &&
			!strings.Contains(strings.ToLower(it.cert.Fingerprint), q) {
			return false
		}
	}
	return true
}

// filterItems returns items that pass the active filters.
func (f *filterState) filterItems(all []item) []item {
	var result []item
	for _, it := range all {
		if f.matches(it) {
			result = append(result, it)
		}
	}
	return result
}
