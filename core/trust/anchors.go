package trust

import (
	"crypto/x509"
	"sync"
)

// AnchorMarker is the alias substring that marks a trust-store entry as a
// JDK-controlled anchor.
const AnchorMarker = " [jdk"

// AnchorIndex answers trust-anchor membership questions. The trust store is
// read on first use; a failed load leaves the index empty. Safe for
// concurrent use.
type AnchorIndex struct {
	once sync.Once
	load Loader
	cfg  indexConfig

	fingerprints map[string]struct{}
	issuers      map[string]struct{} // anchor RawSubject
}

// NewAnchorIndex returns an index over the entries load yields.
func NewAnchorIndex(load Loader, opts ...IndexOption) *AnchorIndex {
	return &AnchorIndex{load: load, cfg: newIndexConfig(opts)}
}

func (a *AnchorIndex) init() {
	a.once.Do(func() {
		fingerprints := make(map[string]struct{})
		issuers := make(map[string]struct{})
		a.fingerprints, a.issuers = fingerprints, issuers

		if a.load == nil {
			return
		}
		entries, err := a.load()
		if err != nil {
			a.cfg.logger.Debug("trust store unavailable", "error", err)
			return
		}
		var skipped int
		for _, e := range entries {
			if e.Cert == nil || !(Entry{Alias: e.Alias}).IsJDKAnchor() {
				continue
			}
			fp, err := a.cfg.fingerprint(e.Cert, AnchorDigest)
			if err != nil {
				skipped++
				continue
			}
			fingerprints[fp] = struct{}{}
			issuers[string(e.Cert.RawSubject)] = struct{}{}
		}
		a.cfg.logger.Debug("trust anchors loaded",
			"anchors", len(fingerprints), "skipped", skipped)
	})
}

// IsAnchor reports whether cert is itself a trust anchor. A certificate
// that cannot be fingerprinted is not an anchor.
func (a *AnchorIndex) IsAnchor(cert *x509.Certificate) bool {
	a.init()
	if len(a.fingerprints) == 0 || cert == nil {
		return false
	}
	fp, err := a.cfg.fingerprint(cert, AnchorDigest)
	if err != nil {
		return false
	}
	_, ok := a.fingerprints[fp]
	return ok
}

// IssuedByAnchor reports whether cert's issuer name equals the subject of
// an anchor. This compares distinguished names only and proves nothing
// about the signature.
func (a *AnchorIndex) IssuedByAnchor(cert *x509.Certificate) bool {
	a.init()
	if cert == nil {
		return false
	}
	_, ok := a.issuers[string(cert.RawIssuer)]
	return ok
}

// Len returns the number of anchors.
func (a *AnchorIndex) Len() int {
	a.init()
	return len(a.fingerprints)
}

var (
	defaultAnchorsOnce sync.Once
	defaultAnchors     *AnchorIndex
)

// DefaultAnchors returns the process-wide index over DefaultTrustStorePath.
// The path is resolved on the first call.
func DefaultAnchors() *AnchorIndex {
	defaultAnchorsOnce.Do(func() {
		defaultAnchors = NewAnchorIndex(StoreFile(DefaultTrustStorePath()))
	})
	return defaultAnchors
}
