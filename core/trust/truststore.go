package trust

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv names the environment variable that overrides the state directory.
const HomeEnv = "CERTGUARD_HOME"

// Entry is one aliased certificate in the trust store.
type Entry struct {
	Alias          string `json:"alias"`
	CertificatePEM string `json:"certificate_pem"`
}

// Certificate parses the entry's PEM certificate.
func (e Entry) Certificate() (*x509.Certificate, error) {
	return parseCertificatePEM([]byte(e.CertificatePEM))
}

// IsJDKAnchor reports whether the alias carries the anchor marker.
func (e Entry) IsJDKAnchor() bool {
	return strings.Contains(e.Alias, AnchorMarker)
}

// Store holds the aliased certificates of a trust store.
type Store struct {
	Entries []Entry `json:"entries"`
}

// NewStore returns an empty trust store.
func NewStore() *Store {
	return &Store{}
}

// Add appends an entry. An existing alias is an error.
func (s *Store) Add(e Entry) error {
	if s.Find(e.Alias) != nil {
		return fmt.Errorf("alias %q already exists in trust store", e.Alias)
	}
	s.Entries = append(s.Entries, e)
	return nil
}

// Find returns the entry with the given alias, or nil if not found.
func (s *Store) Find(alias string) *Entry {
	for i := range s.Entries {
		if s.Entries[i].Alias == alias {
			return &s.Entries[i]
		}
	}
	return nil
}

// Remove deletes the entry with the given alias.
// Returns an error if the alias is not found.
func (s *Store) Remove(alias string) error {
	for i, e := range s.Entries {
		if e.Alias == alias {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("alias %q not found in trust store", alias)
}

// NewEntry creates an Entry from an alias and a PEM-encoded certificate.
// Only the first certificate block is kept.
func NewEntry(alias string, certPEM []byte) (Entry, error) {
	if strings.TrimSpace(alias) == "" {
		return Entry{}, errors.New("alias is empty")
	}
	cert, err := parseCertificatePEM(certPEM)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing certificate: %w", err)
	}
	return Entry{
		Alias:          alias,
		CertificatePEM: string(EncodeCertificatePEM(cert)),
	}, nil
}

// EncodeCertificatePEM encodes a certificate as a PEM block.
func EncodeCertificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

// ParseCertificatesPEM parses every CERTIFICATE block in data, in order.
// Other block types are skipped.
func ParseCertificatesPEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("certificate %d: %w", len(certs)+1, err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("no CERTIFICATE PEM block found")
	}
	return certs, nil
}

func parseCertificatePEM(data []byte) (*x509.Certificate, error) {
	certs, err := ParseCertificatesPEM(data)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// LoadTrustStore reads a trust store from a JSON file. If the file does not
// exist, it returns an empty store without error.
func LoadTrustStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewStore(), nil
		}
		return nil, err
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt trust store at %q: %w", path, err)
	}
	return &s, nil
}

// SaveTrustStore writes a trust store to a JSON file using atomic write
// (temp + rename). It creates parent directories as needed.
func SaveTrustStore(path string, s *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating trust store dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling trust store: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp trust store file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming trust store file: %w", err)
	}
	return nil
}

// AnchorEntry is an aliased certificate yielded by a Loader.
type AnchorEntry struct {
	Alias string
	Cert  *x509.Certificate
}

// Loader enumerates trust-store entries for the anchor index.
type Loader func() ([]AnchorEntry, error)

// StoreFile returns a Loader reading the JSON trust store at path. A
// certificate that fails to parse fails the whole load.
func StoreFile(path string) Loader {
	return func() ([]AnchorEntry, error) {
		s, err := LoadTrustStore(path)
		if err != nil {
			return nil, err
		}
		out := make([]AnchorEntry, 0, len(s.Entries))
		for _, e := range s.Entries {
			cert, err := e.Certificate()
			if err != nil {
				return nil, fmt.Errorf("trust store entry %q: %w", e.Alias, err)
			}
			out = append(out, AnchorEntry{Alias: e.Alias, Cert: cert})
		}
		return out, nil
	}
}

// Home returns the state directory: $CERTGUARD_HOME, or ~/.certguard.
func Home() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".certguard")
}

// DefaultTrustStorePath returns the default trust store location:
// <home>/security/cacerts.json
func DefaultTrustStorePath() string {
	return filepath.Join(Home(), "security", "cacerts.json")
}

// DefaultBlocklistPath returns the default blocklist location:
// <home>/security/blocked.certs
func DefaultBlocklistPath() string {
	return filepath.Join(Home(), "security", "blocked.certs")
}
