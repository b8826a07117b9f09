// Package constraints evaluates algorithm names, keys and signer sets
// against disabled-algorithm security properties.
package constraints

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nox-hq/certguard/core/algorithm"
	"golang.org/x/text/cases"
)

// ErrInvalidArgument reports a caller error such as an empty algorithm name.
var ErrInvalidArgument = errors.New("invalid argument")

// Decomposer splits an algorithm name into element tokens.
type Decomposer interface {
	Decompose(name string) algorithm.Set
}

// PropertySource resolves security property values by name.
type PropertySource interface {
	Property(name string) (string, bool)
}

// MapSource is a PropertySource backed by a map.
type MapSource map[string]string

// Property implements PropertySource.
func (m MapSource) Property(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// AlgorithmSet is an immutable, case-insensitive set of algorithm names.
type AlgorithmSet struct {
	entries map[string]string // folded → as configured
}

// NewAlgorithmSet returns a set holding the given names. Blank names are
// skipped.
func NewAlgorithmSet(names ...string) *AlgorithmSet {
	s := &AlgorithmSet{entries: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s.entries[fold(n)] = n
	}
	return s
}

// ParseAlgorithms builds a set from a property value: surrounding
// whitespace and one pair of enclosing double quotes are removed, then the
// value is split on commas and each token trimmed. An empty value yields
// an empty set.
func ParseAlgorithms(value string) *AlgorithmSet {
	return NewAlgorithmSet(splitProperty(value)...)
}

// Contains reports whether name is in the set, ignoring case.
func (s *AlgorithmSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.entries[fold(name)]
	return ok
}

// Len returns the number of names in the set.
func (s *AlgorithmSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Names returns the configured spellings in sorted order.
func (s *AlgorithmSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.entries))
	for _, n := range s.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Permits reports whether name is allowed by the disabled set: it is not
// when name itself, or any element dec produces for it, is in the set.
// An empty name is a caller error. A nil dec uses algorithm.Decomposer.
func Permits(disabled *AlgorithmSet, name string, dec Decomposer) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, fmt.Errorf("%w: algorithm name is empty", ErrInvalidArgument)
	}
	if disabled.Len() == 0 {
		return true, nil
	}
	if disabled.Contains(name) {
		return false, nil
	}
	if dec == nil {
		dec = algorithm.Decomposer{}
	}
	for elem := range dec.Decompose(name) {
		if disabled.Contains(elem) {
			return false, nil
		}
	}
	return true, nil
}

// splitProperty applies the property value syntax and returns the trimmed,
// non-empty tokens.
func splitProperty(value string) []string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	if value == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(value, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// fold returns the caseless form used as the set key.
func fold(s string) string {
	return cases.Fold().String(s)
}
