package trust

import (
	"crypto/x509"
	"sync"

	"github.com/magiconair/properties"
)

// BlocklistAlgorithmKey is the reserved blocklist key naming the digest.
const BlocklistAlgorithmKey = "Algorithm"

// BlocklistSource yields the blocklist properties.
type BlocklistSource func() (*properties.Properties, error)

// BlocklistFile returns a source reading a properties file at path.
func BlocklistFile(path string) BlocklistSource {
	return func() (*properties.Properties, error) {
		return properties.LoadFile(path, properties.UTF8)
	}
}

// BlocklistString returns a source parsing s as a properties document.
func BlocklistString(s string) BlocklistSource {
	return func() (*properties.Properties, error) {
		return properties.LoadString(s)
	}
}

// UntrustedIndex answers whether a certificate is on the blocklist. The
// blocklist is read on first use; without a blocklist or an Algorithm key
// the index reports nothing as untrusted. Safe for concurrent use.
type UntrustedIndex struct {
	once   sync.Once
	source BlocklistSource
	cfg    indexConfig

	alg     string
	blocked map[string]struct{}
}

// NewUntrustedIndex returns an index over the blocklist source yields.
func NewUntrustedIndex(source BlocklistSource, opts ...IndexOption) *UntrustedIndex {
	return &UntrustedIndex{source: source, cfg: newIndexConfig(opts)}
}

func (u *UntrustedIndex) init() {
	u.once.Do(func() {
		u.blocked = make(map[string]struct{})
		if u.source == nil {
			return
		}
		p, err := u.source()
		if err != nil {
			u.cfg.logger.Debug("blocklist unavailable", "error", err)
			return
		}
		alg, ok := p.Get(BlocklistAlgorithmKey)
		if !ok || alg == "" {
			u.cfg.logger.Debug("blocklist has no Algorithm key")
			return
		}
		for _, k := range p.Keys() {
			if k == BlocklistAlgorithmKey {
				continue
			}
			u.blocked[NormalizeFingerprint(k)] = struct{}{}
		}
		u.alg = alg
		u.cfg.logger.Debug("blocklist loaded", "algorithm", alg, "entries", len(u.blocked))
	})
}

// IsUntrusted reports whether cert is blocked. A certificate that cannot be
// fingerprinted under the configured digest is treated as blocked.
func (u *UntrustedIndex) IsUntrusted(cert *x509.Certificate) bool {
	u.init()
	if u.alg == "" {
		return false
	}
	fp, err := u.cfg.fingerprint(cert, u.alg)
	if err != nil {
		return true
	}
	_, ok := u.blocked[NormalizeFingerprint(fp)]
	return ok
}

// Algorithm returns the configured digest, or "" when the index is inert.
func (u *UntrustedIndex) Algorithm() string {
	u.init()
	return u.alg
}

// Len returns the number of blocked fingerprints.
func (u *UntrustedIndex) Len() int {
	u.init()
	return len(u.blocked)
}

var (
	defaultUntrustedOnce sync.Once
	defaultUntrusted     *UntrustedIndex
)

// DefaultUntrusted returns the process-wide index over DefaultBlocklistPath.
func DefaultUntrusted() *UntrustedIndex {
	defaultUntrustedOnce.Do(func() {
		defaultUntrusted = NewUntrustedIndex(BlocklistFile(DefaultBlocklistPath()))
	})
	return defaultUntrusted
}
