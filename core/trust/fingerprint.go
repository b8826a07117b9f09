package trust

import (
	"crypto/md5" //nolint:gosec // blocklists may still be keyed by MD5
	"crypto/sha1" //nolint:gosec // blocklists may still be keyed by SHA-1
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/nox-hq/certguard/core/algorithm"
)

// AnchorDigest is the digest used to fingerprint trust anchors.
const AnchorDigest = "SHA-256"

// FingerprintFunc computes the fingerprint of a certificate under a digest
// algorithm name.
type FingerprintFunc func(cert *x509.Certificate, alg string) (string, error)

var digests = map[string]func() hash.Hash{
	"MD5":    md5.New,
	"SHA1":   sha1.New,
	"SHA224": sha256.New224,
	"SHA256": sha256.New,
	"SHA384": sha512.New384,
	"SHA512": sha512.New,
}

// Fingerprint returns the upper-case hex digest of the certificate's DER
// encoding. alg accepts "SHA-256", "SHA256", "sha-256" and so on.
func Fingerprint(cert *x509.Certificate, alg string) (string, error) {
	if cert == nil || len(cert.Raw) == 0 {
		return "", errors.New("certificate has no encoded form")
	}
	newHash, ok := digests[strings.ToUpper(algorithm.HashName(strings.TrimSpace(alg)))]
	if !ok {
		return "", fmt.Errorf("unsupported digest algorithm: %q", alg)
	}
	h := newHash()
	h.Write(cert.Raw)
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

// NormalizeFingerprint strips colons and whitespace from a fingerprint and
// upper-cases it, so "ab:cd" and "ABCD" compare equal.
func NormalizeFingerprint(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		switch r {
		case ':', ' ', '\t':
			return -1
		}
		return r
	}, s))
}
