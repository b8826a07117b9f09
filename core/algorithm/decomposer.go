// Package algorithm splits composite cryptographic algorithm names such as
// "SHA256withRSA" or "AES/GCM/NoPadding" into the element tokens that
// disabled-algorithm policies are matched against.
package algorithm

import (
	"sort"
	"strings"
)

// Set is a set of algorithm element tokens. Tokens keep the spelling they
// had in the decomposed name.
type Set map[string]struct{}

// NewSet returns a Set holding the given tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s.Add(t)
	}
	return s
}

// Add inserts tok into the set.
func (s Set) Add(tok string) {
	s[tok] = struct{}{}
}

// Has reports whether tok is in the set (exact spelling).
func (s Set) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Remove deletes tok from the set.
func (s Set) Remove(tok string) {
	delete(s, tok)
}

// Len returns the number of tokens.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the tokens in lexicographic order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// digestPairs lists the digest families whose hyphenated and unhyphenated
// spellings are treated as the same element.
var digestPairs = [...][2]string{
	{"SHA-1", "SHA1"},
	{"SHA-224", "SHA224"},
	{"SHA-256", "SHA256"},
	{"SHA-384", "SHA384"},
	{"SHA-512", "SHA512"},
}

// Decomposer splits algorithm names into element sets. The zero value is
// ready to use and safe for concurrent use.
type Decomposer struct{}

// Decompose returns the element set of name with both spellings of every
// SHA-1/224/256/384/512 digest present whenever either one is.
// An empty name yields an empty set.
func (Decomposer) Decompose(name string) Set {
	return Decompose(name)
}

// DecomposeOneHash is like Decompose but keeps only the unhyphenated
// spelling of each digest.
func (Decomposer) DecomposeOneHash(name string) Set {
	return DecomposeOneHash(name)
}

// Decompose is the package-level form of Decomposer.Decompose.
func Decompose(name string) Set {
	elements := split(name)
	for _, p := range digestPairs {
		hyphen, plain := p[0], p[1]
		switch {
		case elements.Has(hyphen) && !elements.Has(plain):
			elements.Add(plain)
		case elements.Has(plain) && !elements.Has(hyphen):
			elements.Add(hyphen)
		}
	}
	return elements
}

// DecomposeOneHash is the package-level form of Decomposer.DecomposeOneHash.
func DecomposeOneHash(name string) Set {
	elements := split(name)
	for _, p := range digestPairs {
		hyphen, plain := p[0], p[1]
		if elements.Has(hyphen) {
			elements.Add(plain)
			elements.Remove(hyphen)
		}
	}
	return elements
}

// AliasesOf returns the names that denote the same algorithm as name.
// Only DH and DiffieHellman are aliased; every other name maps to itself.
func AliasesOf(name string) []string {
	if strings.EqualFold(name, "DH") || strings.EqualFold(name, "DiffieHellman") {
		return []string{"DH", "DiffieHellman"}
	}
	return []string{name}
}

// HashName rewrites hyphenated SHA digest spellings inside name to their
// unhyphenated form, e.g. "SHA-256withRSA" becomes "SHA256withRSA".
func HashName(name string) string {
	lower := lowerASCII(name)
	var b strings.Builder
	for i := 0; i < len(name); {
		replaced := false
		for _, p := range digestPairs {
			h := lowerASCII(p[0])
			if strings.HasPrefix(lower[i:], h) {
				b.WriteString(name[i : i+3]) // keep the caller's "SHA" casing
				b.WriteString(name[i+4 : i+len(h)])
				i += len(h)
				replaced = true
				break
			}
		}
		if !replaced {
			b.WriteByte(name[i])
			i++
		}
	}
	return b.String()
}

// split performs the structural split: "/" first, then the connective words
// "with", "and" and "in". Empty fragments are dropped.
func split(name string) Set {
	elements := make(Set)
	for _, sub := range strings.Split(name, "/") {
		if sub == "" {
			continue
		}
		for _, tok := range splitConnectives(sub) {
			elements.Add(tok)
			if stem, ok := paddingStem(tok); ok {
				elements.Add(stem)
			}
		}
	}
	return elements
}

// splitConnectives scans s for the case-insensitive words "with", "and"
// and "in" and cuts s at each occurrence. An "in" directly preceded by
// "padd" is part of "padding" and is not a separator.
func splitConnectives(s string) []string {
	lower := lowerASCII(s)
	var (
		tokens []string
		start  int
	)
	for i := 0; i < len(s); {
		n := separatorAt(lower, i)
		if n == 0 {
			i++
			continue
		}
		if i > start {
			tokens = append(tokens, s[start:i])
		}
		i += n
		start = i
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// separatorAt returns the length of the separator word starting at i in
// the lower-cased string, or 0.
func separatorAt(lower string, i int) int {
	rest := lower[i:]
	switch {
	case strings.HasPrefix(rest, "with"):
		return 4
	case strings.HasPrefix(rest, "and"):
		return 3
	case strings.HasPrefix(rest, "in"):
		if i >= 4 && lower[i-4:i] == "padd" {
			return 0
		}
		return 2
	}
	return 0
}

// paddingStem returns the scheme name carried by a "<scheme>Padding" token,
// e.g. "MGF1" for "MGF1Padding". "NoPadding" has no scheme.
func paddingStem(tok string) (string, bool) {
	const suffix = "padding"
	if len(tok) <= len(suffix) || lowerASCII(tok[len(tok)-len(suffix):]) != suffix {
		return "", false
	}
	stem := tok[:len(tok)-len(suffix)]
	if strings.EqualFold(stem, "No") {
		return "", false
	}
	return stem, true
}

// lowerASCII lower-cases ASCII letters only, so byte offsets in the result
// line up with the input.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
