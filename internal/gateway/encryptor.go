package gateway

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	// ErrBadKeyMaterial is returned when the configured public key cannot be parsed.
	ErrBadKeyMaterial = errors.New("bad public key material")

	// ErrEncryptionFailed is returned when the secret cannot be encrypted,
	// e.g. it exceeds the size limit derived from the key modulus.
	ErrEncryptionFailed = errors.New("credential encryption failed")
)

// EncryptCredential wraps the shared API secret with RSA-OAEP (SHA-256) under
// the gateway's public key and returns it base64-encoded, so the secret is
// never transmitted in clear form.
//
// OAEP padding is randomized: two calls with identical inputs produce
// different ciphertexts. Callers must request a fresh token per attempt and
// never cache or compare tokens.
func EncryptCredential(secret, publicKeyPEM []byte) (string, error) {
	pub, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return "", err
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, secret, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// parsePublicKey parses a PEM-encoded RSA public key in PKIX or PKCS#1 form.
func parsePublicKey(publicKeyPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: not PEM encoded", ErrBadKeyMaterial)
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrBadKeyMaterial)
		}
		return pub, nil
	}

	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKeyMaterial, err)
	}

	return pub, nil
}
