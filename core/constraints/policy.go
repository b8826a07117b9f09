package constraints

import (
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nox-hq/certguard/core/algorithm"
)

// Security property names understood by the engine.
const (
	PropertyCertPathDisabled = "jdk.certpath.disabledAlgorithms"
	PropertyJarDisabled      = "jdk.jar.disabledAlgorithms"
	PropertyTLSDisabled      = "jdk.tls.disabledAlgorithms"
	PropertyLegacy           = "jdk.security.legacyAlgorithms"
)

// Violation is returned when a check rejects an algorithm or key.
type Violation struct {
	Property   string // property the rejecting entry came from
	Algorithm  string // algorithm or key description that was rejected
	Constraint string // "disabled algorithm" or the rule entry
	Suffix     string // diagnostic suffix from the parameters
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("algorithm constraints check failed on %s: %s%s", v.Constraint, v.Algorithm, v.Suffix)
}

// IsViolation reports whether err is, or wraps, a *Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// Policy is a parsed disabled-algorithms property. It is immutable and safe
// for concurrent use.
type Policy struct {
	property string
	entries  []string
	disabled *AlgorithmSet
	rules    map[string][]*rule // folded algorithm → rules
	dec      algorithm.Decomposer
	now      func() time.Time
	logger   *slog.Logger
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithClock sets the time source used when parameters carry no date.
func WithClock(now func() time.Time) PolicyOption {
	return func(p *Policy) { p.now = now }
}

// WithPolicyLogger sets the logger for load diagnostics.
func WithPolicyLogger(l *slog.Logger) PolicyOption {
	return func(p *Policy) { p.logger = l }
}

// LoadPolicy reads property from src and parses it. "include NAME" entries
// are replaced by the entries of property NAME (one level); included
// entries are always plain names. A missing or empty property disables
// nothing. Malformed rules are an error.
func LoadPolicy(src PropertySource, property string, opts ...PolicyOption) (*Policy, error) {
	value, _ := src.Property(property)
	var entries []policyEntry
	for _, e := range splitProperty(value) {
		if name, ok := strings.CutPrefix(e, "include "); ok {
			inc, _ := src.Property(strings.TrimSpace(name))
			for _, n := range splitProperty(inc) {
				entries = append(entries, policyEntry{text: n, literal: true})
			}
			continue
		}
		entries = append(entries, policyEntry{text: e})
	}
	return newPolicy(property, entries, opts...)
}

// NewPolicy parses a property value directly. Include entries are not
// supported here.
func NewPolicy(property, value string, opts ...PolicyOption) (*Policy, error) {
	var entries []policyEntry
	for _, e := range splitProperty(value) {
		entries = append(entries, policyEntry{text: e})
	}
	return newPolicy(property, entries, opts...)
}

// policyEntry is one expanded property entry. Literal entries come from an
// include and are names even when they contain spaces.
type policyEntry struct {
	text    string
	literal bool
}

func newPolicy(property string, entries []policyEntry, opts ...PolicyOption) (*Policy, error) {
	p := &Policy{
		property: property,
		rules:    make(map[string][]*rule),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var (
		names []string
		rules int
	)
	for _, pe := range entries {
		e := pe.text
		p.entries = append(p.entries, e)
		if pe.literal || !strings.Contains(e, " ") {
			names = append(names, e)
			continue
		}
		if strings.HasPrefix(e, "include ") {
			return nil, fmt.Errorf("%s: include %q not resolvable without a property source", property, e)
		}
		r, err := parseRule(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", property, err)
		}
		key := fold(r.algorithm)
		p.rules[key] = append(p.rules[key], r)
		rules++
	}
	p.disabled = NewAlgorithmSet(names...)

	p.logger.Debug("algorithm policy loaded",
		"property", property, "disabled", p.disabled.Len(), "rules", rules)
	return p, nil
}

// Property returns the property name the policy was loaded from.
func (p *Policy) Property() string { return p.property }

// Entries returns the expanded property entries in configured order.
func (p *Policy) Entries() []string { return append([]string(nil), p.entries...) }

// Disabled returns the set of unconditionally disabled names.
func (p *Policy) Disabled() *AlgorithmSet { return p.disabled }

// PermitsAlgorithm reports whether name passes the name-only check.
func (p *Policy) PermitsAlgorithm(name string) (bool, error) {
	for _, alias := range algorithm.AliasesOf(name) {
		ok, err := Permits(p.disabled, alias, p.dec)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// Check checks name against the disabled names and then against the rules
// of name, its single-spelling elements and the algorithms of the keys in
// params. A nil params means a name-only check: rules are not consulted.
// It returns a *Violation on rejection.
func (p *Policy) Check(name string, params Parameters) error {
	ok, err := p.PermitsAlgorithm(name)
	if err != nil {
		return err
	}
	if !ok {
		return p.violation(name, "disabled algorithm", params)
	}
	if params == nil {
		return nil
	}

	e := p.evaluation(params)
	e.keys = params.Keys()

	candidates := algorithm.NewSet(algorithm.HashName(name))
	for elem := range algorithm.DecomposeOneHash(name) {
		candidates.Add(elem)
	}
	for _, k := range e.keys {
		if kn := algorithm.KeyName(k); kn != "" {
			for _, a := range algorithm.AliasesOf(kn) {
				candidates.Add(a)
			}
		}
	}
	for _, c := range candidates.Sorted() {
		if r := p.firstViolated(c, e); r != nil {
			return p.violation(name, r.entry, params)
		}
	}
	return nil
}

// CheckKey checks a public key: its algorithm name (and curve for EC keys)
// against the disabled names, then the rules for its algorithm. params may
// be nil.
func (p *Policy) CheckKey(key crypto.PublicKey, params Parameters) error {
	name := algorithm.KeyName(key)
	if name == "" {
		return fmt.Errorf("%w: unsupported public key type %T", ErrInvalidArgument, key)
	}
	desc := fmt.Sprintf("%s %d bit key", name, algorithm.KeySize(key))

	names := algorithm.AliasesOf(name)
	if curve := algorithm.CurveName(key); curve != "" {
		names = append(names, curve)
	}
	for _, n := range names {
		if p.disabled.Contains(n) {
			return p.violation(desc, "disabled algorithm", params)
		}
	}

	e := p.evaluation(params)
	e.keys = []crypto.PublicKey{key}
	for _, n := range algorithm.AliasesOf(name) {
		if r := p.firstViolated(n, e); r != nil {
			return p.violation(desc, r.entry, params)
		}
	}
	return nil
}

func (p *Policy) evaluation(params Parameters) *evaluation {
	return &evaluation{params: params, now: p.now()}
}

func (p *Policy) firstViolated(name string, e *evaluation) *rule {
	for _, r := range p.rules[fold(name)] {
		if r.violatedBy(e) {
			return r
		}
	}
	return nil
}

func (p *Policy) violation(alg, constraint string, params Parameters) *Violation {
	v := &Violation{Property: p.property, Algorithm: alg, Constraint: constraint}
	if params != nil {
		v.Suffix = params.DiagnosticSuffix()
	}
	return v
}
