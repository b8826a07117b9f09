package algorithm

import (
	"crypto"
	"crypto/dsa" //nolint:staticcheck // DSA keys still appear in legacy chains
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
)

// signatureNames maps x509 signature algorithms to the "<digest>with<key>"
// names policies are written against. RSA-PSS keeps its digest so digest
// constraints still apply to it.
var signatureNames = map[x509.SignatureAlgorithm]string{
	x509.MD2WithRSA:       "MD2withRSA",
	x509.MD5WithRSA:       "MD5withRSA",
	x509.SHA1WithRSA:      "SHA1withRSA",
	x509.SHA256WithRSA:    "SHA256withRSA",
	x509.SHA384WithRSA:    "SHA384withRSA",
	x509.SHA512WithRSA:    "SHA512withRSA",
	x509.DSAWithSHA1:      "SHA1withDSA",
	x509.DSAWithSHA256:    "SHA256withDSA",
	x509.ECDSAWithSHA1:    "SHA1withECDSA",
	x509.ECDSAWithSHA256:  "SHA256withECDSA",
	x509.ECDSAWithSHA384:  "SHA384withECDSA",
	x509.ECDSAWithSHA512:  "SHA512withECDSA",
	x509.SHA256WithRSAPSS: "SHA256withRSASSA-PSS",
	x509.SHA384WithRSAPSS: "SHA384withRSASSA-PSS",
	x509.SHA512WithRSAPSS: "SHA512withRSASSA-PSS",
	x509.PureEd25519:      "Ed25519",
}

// SignatureName returns the policy name of an x509 signature algorithm, or
// the empty string when it is unknown.
func SignatureName(alg x509.SignatureAlgorithm) string {
	return signatureNames[alg]
}

// KeyName returns the algorithm name of a public key: "RSA", "EC", "DSA" or
// "Ed25519". Unknown key types return "".
func KeyName(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RSA"
	case *ecdsa.PublicKey:
		return "EC"
	case *dsa.PublicKey:
		return "DSA"
	case ed25519.PublicKey:
		return "Ed25519"
	default:
		return ""
	}
}

// KeySize returns the size in bits of a public key, or -1 if it cannot be
// determined.
func KeySize(pub crypto.PublicKey) int {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		if k.N == nil {
			return -1
		}
		return k.N.BitLen()
	case *ecdsa.PublicKey:
		if k.Curve == nil {
			return -1
		}
		return k.Curve.Params().BitSize
	case *dsa.PublicKey:
		if k.P == nil {
			return -1
		}
		return k.P.BitLen()
	case ed25519.PublicKey:
		return 255
	default:
		return -1
	}
}

// CurveName returns the SEC 2 name of an EC key's curve ("secp256r1", ...),
// or "" for other keys and unknown curves.
func CurveName(pub crypto.PublicKey) string {
	k, ok := pub.(*ecdsa.PublicKey)
	if !ok || k.Curve == nil {
		return ""
	}
	switch k.Curve.Params().Name {
	case "P-224":
		return "secp224r1"
	case "P-256":
		return "secp256r1"
	case "P-384":
		return "secp384r1"
	case "P-521":
		return "secp521r1"
	default:
		return ""
	}
}
