package core

import (
	"fmt"
	"strings"

	"github.com/magiconair/properties"
	"github.com/nox-hq/certguard/core/constraints"
)

// PropertyDisabledNamedCurves is the include target of the default
// certpath and jar properties.
const PropertyDisabledNamedCurves = "jdk.disabled.namedCurves"

// DefaultProperties are the built-in security property values, the last
// layer of every property lookup.
var DefaultProperties = map[string]string{
	constraints.PropertyCertPathDisabled: "MD2, MD5, SHA1 jdkCA & usage TLSServer, " +
		"RSA keySize < 1024, DSA keySize < 1024, EC keySize < 224, " +
		"include jdk.disabled.namedCurves, SHA1 usage SignedJAR & denyAfter 2019-01-01",
	constraints.PropertyJarDisabled: "MD2, MD5, RSA keySize < 1024, DSA keySize < 1024, " +
		"include jdk.disabled.namedCurves, SHA1 denyAfter 2019-01-01",
	constraints.PropertyTLSDisabled: "SSLv3, TLSv1, TLSv1.1, RC4, DES, MD5withRSA, " +
		"DH keySize < 1024, EC keySize < 224, 3DES_EDE_CBC, anon, NULL",
	constraints.PropertyLegacy: "SHA1, RSA keySize < 2048, DSA keySize < 2048, " +
		"DES, DESede, MD5, RC2, ARCFOUR",
	PropertyDisabledNamedCurves: "secp112r1, secp112r2, secp128r1, secp128r2, secp160k1, " +
		"secp160r1, secp160r2, secp192k1, secp192r1, secp224k1, secp224r1, secp256k1, " +
		"sect113r1, sect113r2, sect131r1, sect131r2, sect163k1, sect163r1, sect163r2, " +
		"sect193r1, sect193r2, sect233k1, sect233r1, sect239k1, sect283k1, sect283r1, " +
		"sect409k1, sect409r1, sect571k1, sect571r1, X9.62 c2tnb191v1, X9.62 c2tnb191v2, " +
		"X9.62 c2tnb191v3, X9.62 c2tnb239v1, X9.62 c2tnb239v2, X9.62 c2tnb239v3, " +
		"X9.62 c2tnb359v1, X9.62 c2tnb431r1, X9.62 prime192v2, X9.62 prime192v3, " +
		"X9.62 prime239v1, X9.62 prime239v2, X9.62 prime239v3, brainpoolP256r1, " +
		"brainpoolP320r1, brainpoolP384r1, brainpoolP512r1",
}

// Layers is a PropertySource that answers from the first layer defining a
// name.
type Layers []constraints.PropertySource

// Property implements constraints.PropertySource.
func (l Layers) Property(name string) (string, bool) {
	for _, src := range l {
		if src == nil {
			continue
		}
		if v, ok := src.Property(name); ok {
			return v, true
		}
	}
	return "", false
}

// FileSource is a PropertySource backed by a java.security style
// properties file.
type FileSource struct {
	path  string
	props *properties.Properties
}

// LoadPropertiesFile reads a properties file. Values are returned without
// ${...} expansion.
func LoadPropertiesFile(path string) (*FileSource, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("loading security properties %s: %w", path, err)
	}
	p.DisableExpansion = true
	return &FileSource{path: path, props: p}, nil
}

// Property implements constraints.PropertySource.
func (f *FileSource) Property(name string) (string, bool) {
	v, ok := f.props.Get(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Path returns the file the source was loaded from.
func (f *FileSource) Path() string { return f.path }

// PropertySource returns the layered lookup for cfg: the Properties map,
// then the security properties file when configured, then
// DefaultProperties.
func (c *Config) PropertySource() (constraints.PropertySource, error) {
	layers := Layers{constraints.MapSource(c.Properties)}
	if c.SecurityPropertiesFile != "" {
		fs, err := LoadPropertiesFile(c.SecurityPropertiesFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, fs)
	}
	return append(layers, constraints.MapSource(DefaultProperties)), nil
}
