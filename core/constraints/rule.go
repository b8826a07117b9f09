package constraints

import (
	"crypto"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nox-hq/certguard/core/algorithm"
)

// rule restricts one algorithm. It rejects only when every condition holds.
type rule struct {
	algorithm string
	entry     string
	conds     []condition
}

// evaluation is the input a rule is checked against.
type evaluation struct {
	keys   []crypto.PublicKey
	params Parameters
	now    time.Time
}

// condition is one '&'-separated clause of a rule.
type condition interface {
	holds(r *rule, e *evaluation) bool
}

// violatedBy evaluates the conditions in order and stops at the first one
// that does not hold, so jdkCA lookups happen only when reached.
func (r *rule) violatedBy(e *evaluation) bool {
	for _, c := range r.conds {
		if !c.holds(r, e) {
			return false
		}
	}
	return true
}

var keySizePattern = regexp.MustCompile(`^(?i:keySize)\s*(<=|<|==|!=|>=|>)\s*(\d+)$`)

// parseRule parses "ALG cond1 & cond2 ...". The caller has already checked
// that entry contains a space.
func parseRule(entry string) (*rule, error) {
	space := strings.IndexByte(entry, ' ')
	r := &rule{
		algorithm: algorithm.HashName(entry[:space]),
		entry:     entry,
	}
	for _, part := range strings.Split(entry[space+1:], "&") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty constraint in %q", entry)
		}
		c, err := parseCondition(part)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", entry, err)
		}
		r.conds = append(r.conds, c)
	}
	return r, nil
}

func parseCondition(s string) (condition, error) {
	fields := strings.Fields(s)
	head := fold(fields[0])
	if strings.HasPrefix(head, "keysize") {
		head = "keysize"
	}
	switch head {
	case "keysize":
		m := keySizePattern.FindStringSubmatch(s)
		if m == nil {
			return nil, fmt.Errorf("malformed keySize condition %q", s)
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("keySize length %q: %w", m[2], err)
		}
		return keySizeCondition{op: m[1], bits: n}, nil

	case "jdkca":
		if len(fields) != 1 {
			return nil, fmt.Errorf("jdkCA takes no arguments: %q", s)
		}
		return jdkCACondition{}, nil

	case "denyafter":
		if len(fields) != 2 {
			return nil, fmt.Errorf("denyAfter needs one YYYY-MM-DD date: %q", s)
		}
		d, err := time.Parse(time.DateOnly, fields[1])
		if err != nil {
			return nil, fmt.Errorf("denyAfter date %q: %w", fields[1], err)
		}
		return denyAfterCondition{date: d.UTC()}, nil

	case "usage":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage needs at least one value: %q", s)
		}
		u := usageCondition{}
		for _, name := range fields[1:] {
			u.variants = append(u.variants, usageVariants[fold(name)]...)
		}
		return u, nil

	default:
		return nil, fmt.Errorf("unrecognized condition %q", s)
	}
}

// usageVariants maps folded usage names to the variants they cover. Other
// usage names are accepted and match no variant.
var usageVariants = map[string][]Variant{
	"tlsserver": {VariantTLSServer},
	"tlsclient": {VariantTLSClient},
	"signedjar": {VariantCodeSigning, VariantTSAServer},
}

// keySizeCondition holds when a key of the rule's algorithm has a size
// matching the comparison. Keys of unknown size never match; a zero size
// always does.
type keySizeCondition struct {
	op   string
	bits int
}

func (c keySizeCondition) holds(r *rule, e *evaluation) bool {
	for _, k := range e.keys {
		if !keyMatches(r.algorithm, k) {
			continue
		}
		size := algorithm.KeySize(k)
		switch {
		case size < 0:
			continue
		case size == 0:
			return true
		}
		if compare(size, c.op, c.bits) {
			return true
		}
	}
	return false
}

func compare(size int, op string, bits int) bool {
	switch op {
	case "<":
		return size < bits
	case "<=":
		return size <= bits
	case "==":
		return size == bits
	case "!=":
		return size != bits
	case ">=":
		return size >= bits
	case ">":
		return size > bits
	}
	return false
}

func keyMatches(alg string, k crypto.PublicKey) bool {
	name := algorithm.KeyName(k)
	if name == "" {
		return false
	}
	for _, a := range algorithm.AliasesOf(name) {
		if strings.EqualFold(a, alg) {
			return true
		}
	}
	return false
}

// jdkCACondition holds when the checked chains lead to a trust anchor.
type jdkCACondition struct{}

func (jdkCACondition) holds(_ *rule, e *evaluation) bool {
	return e.params != nil && e.params.AnchoredToTrustedCA()
}

// denyAfterCondition holds when the effective date is on or after date.
type denyAfterCondition struct {
	date time.Time
}

func (c denyAfterCondition) holds(_ *rule, e *evaluation) bool {
	at := e.now
	if e.params != nil {
		if d, ok := e.params.EffectiveDate(); ok {
			at = d
		}
	}
	return !c.date.After(at)
}

// usageCondition holds when the parameters' variant is one of variants.
type usageCondition struct {
	variants []Variant
}

func (c usageCondition) holds(_ *rule, e *evaluation) bool {
	if e.params == nil {
		return false
	}
	v := e.params.Variant()
	for _, want := range c.variants {
		if v == want {
			return true
		}
	}
	return false
}
