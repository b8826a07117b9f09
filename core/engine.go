// Package core assembles configuration, security properties, algorithm
// policies and the trust indices into an Engine that checks algorithm
// names, certificate chains and signer sets.
package core

import (
	"context"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nox-hq/certguard/core/algorithm"
	"github.com/nox-hq/certguard/core/constraints"
	"github.com/nox-hq/certguard/core/trust"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Engine checks algorithms, chains and signer sets against one loaded
// configuration. It is safe for concurrent use.
type Engine struct {
	cfg         *Config
	props       constraints.PropertySource
	disabled    *constraints.Policy
	legacy      *constraints.Policy
	anchors     *trust.AnchorIndex
	untrusted   *trust.UntrustedIndex
	verifier    *trust.Verifier
	variant     constraints.Variant
	concurrency int
	logger      *slog.Logger
}

type engineOptions struct {
	logger    *slog.Logger
	now       func() time.Time
	anchors   *trust.AnchorIndex
	untrusted *trust.UntrustedIndex
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

// WithLogger sets the logger used by the engine and its indices.
func WithLogger(l *slog.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = l }
}

// WithClock sets the time source for policy dates and result stamps.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) { o.now = now }
}

// WithAnchorIndex replaces the trust-anchor index.
func WithAnchorIndex(a *trust.AnchorIndex) EngineOption {
	return func(o *engineOptions) { o.anchors = a }
}

// WithUntrustedIndex replaces the certificate blocklist.
func WithUntrustedIndex(u *trust.UntrustedIndex) EngineOption {
	return func(o *engineOptions) { o.untrusted = u }
}

// NewEngine builds an engine from cfg. A nil cfg means defaults. Indices
// not given as options come from the configured paths, or the
// process-wide defaults when no path is configured.
func NewEngine(cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	o := engineOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	props, err := cfg.PropertySource()
	if err != nil {
		return nil, err
	}

	policyOpts := []constraints.PolicyOption{
		constraints.WithClock(o.now),
		constraints.WithPolicyLogger(o.logger),
	}
	disabledProp := orDefault(cfg.Policy.Disabled, constraints.PropertyCertPathDisabled)
	disabled, err := constraints.LoadPolicy(props, disabledProp, policyOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading disabled algorithms: %w", err)
	}
	legacyProp := orDefault(cfg.Policy.Legacy, constraints.PropertyLegacy)
	legacy, err := constraints.LoadPolicy(props, legacyProp, policyOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading legacy algorithms: %w", err)
	}

	trustPolicy, err := trust.ParseTrustPolicy(cfg.Policy.Trust)
	if err != nil {
		return nil, err
	}

	anchors := o.anchors
	if anchors == nil {
		if cfg.TrustStore != "" {
			anchors = trust.NewAnchorIndex(trust.StoreFile(cfg.TrustStore), trust.WithIndexLogger(o.logger))
		} else {
			anchors = trust.DefaultAnchors()
		}
	}
	untrusted := o.untrusted
	if untrusted == nil {
		if cfg.Blocklist != "" {
			untrusted = trust.NewUntrustedIndex(trust.BlocklistFile(cfg.Blocklist), trust.WithIndexLogger(o.logger))
		} else {
			untrusted = trust.DefaultUntrusted()
		}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	e := &Engine{
		cfg:         cfg,
		props:       props,
		disabled:    disabled,
		legacy:      legacy,
		anchors:     anchors,
		untrusted:   untrusted,
		variant:     constraints.ParseVariant(cfg.Policy.Variant),
		concurrency: concurrency,
		logger:      o.logger,
	}
	e.verifier = trust.NewVerifier(
		trust.WithAnchors(anchors),
		trust.WithUntrusted(untrusted),
		trust.WithDisabledPolicy(disabled),
		trust.WithLegacyPolicy(legacy),
		trust.WithTrustPolicy(trustPolicy),
		trust.WithClock(o.now),
		trust.WithLogger(o.logger),
	)
	return e, nil
}

// LoadEngine reads .certguard.yaml from root and builds an engine.
func LoadEngine(root string, opts ...EngineOption) (*Engine, error) {
	cfg, err := LoadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewEngine(cfg, opts...)
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *Config { return e.cfg }

// Properties returns the layered property source.
func (e *Engine) Properties() constraints.PropertySource { return e.props }

// DisabledPolicy returns the policy whose rejections are violations.
func (e *Engine) DisabledPolicy() *constraints.Policy { return e.disabled }

// LegacyPolicy returns the policy whose rejections are warnings.
func (e *Engine) LegacyPolicy() *constraints.Policy { return e.legacy }

// Anchors returns the trust-anchor index.
func (e *Engine) Anchors() *trust.AnchorIndex { return e.anchors }

// Untrusted returns the certificate blocklist.
func (e *Engine) Untrusted() *trust.UntrustedIndex { return e.untrusted }

// Verifier returns the verifier the engine checks with.
func (e *Engine) Verifier() *trust.Verifier { return e.verifier }

// AlgorithmReport is the outcome of CheckAlgorithm.
type AlgorithmReport struct {
	Name     string         `json:"name"`
	Elements []string       `json:"elements"`
	Aliases  []string       `json:"aliases"`
	Strength trust.Strength `json:"strength"`
	Reason   string         `json:"reason,omitempty"`
}

// CheckAlgorithm decomposes name and classifies it without key or date
// context.
func (e *Engine) CheckAlgorithm(name string) (AlgorithmReport, error) {
	verdict, err := e.verifier.Classify(name, nil)
	if err != nil {
		return AlgorithmReport{}, err
	}
	return AlgorithmReport{
		Name:     name,
		Elements: algorithm.Decompose(name).Sorted(),
		Aliases:  algorithm.AliasesOf(name),
		Strength: verdict.Strength,
		Reason:   verdict.Reason,
	}, nil
}

// CheckChain verifies one chain. An empty variant uses the configured
// default.
func (e *Engine) CheckChain(chain []*x509.Certificate, variant constraints.Variant, at time.Time, location string) trust.VerifyResult {
	if variant == "" {
		variant = e.variant
	}
	return e.verifier.VerifyChain(chain, variant, at, location)
}

// CheckChainFiles reads and verifies PEM chain files concurrently. Results
// are returned in the order of paths. A file that cannot be read or parsed
// fails the whole call.
func (e *Engine) CheckChainFiles(ctx context.Context, paths []string, variant constraints.Variant) ([]trust.VerifyResult, error) {
	results := make([]trust.VerifyResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chain, err := readChain(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = e.CheckChain(chain, variant, time.Time{}, filepath.Base(path))
			results[i].Source = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("chain files checked", "files", len(paths), "concurrency", e.concurrency)
	return results, nil
}

// CheckSigners loads a signer manifest and verifies its signers as one
// set.
func (e *Engine) CheckSigners(manifestPath string) (trust.VerifyResult, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return trust.VerifyResult{}, err
	}
	signers, err := m.Resolve()
	if err != nil {
		return trust.VerifyResult{}, err
	}
	return e.verifier.VerifySigners(signers, m.Location), nil
}

// WatchedFiles returns the configuration-derived files whose change should
// trigger a re-check.
func (e *Engine) WatchedFiles(root string) []string {
	files := []string{filepath.Join(root, ConfigFileName)}
	for _, p := range []string{e.cfg.SecurityPropertiesFile, e.cfg.TrustStore, e.cfg.Blocklist} {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

