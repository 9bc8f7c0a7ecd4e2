package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// MinRSABits is the smallest modulus accepted for generation and loading.
const MinRSABits = 2048

var (
	ErrNoPEMBlock    = errors.New("cryptox: no PEM block found")
	ErrNotRSAKey     = errors.New("cryptox: key is not RSA")
	ErrRSAKeyTooWeak = fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
)

// GenerateRSAKey generates a new RSA private key with the specified bit size.
// Common bit sizes are 2048, 3072, or 4096 bits.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	if bits < MinRSABits {
		return nil, ErrRSAKeyTooWeak
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate RSA key: %w", err)
	}
	return privateKey, nil
}

// EncodeRSAPrivateKeyPEM encodes the key as a PKCS8 "PRIVATE KEY" block.
func EncodeRSAPrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncodeRSAPublicKeyPEM encodes the key as a PKIX "PUBLIC KEY" block.
func EncodeRSAPublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParseRSAPrivateKeyPEM accepts PKCS8 and PKCS1 encodings.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse PKCS1 private key: %w", err)
		}
		key = k
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse PKCS8 private key: %w", err)
		}
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrNotRSAKey
		}
		key = rk
	default:
		return nil, fmt.Errorf("cryptox: unexpected PEM block %q", block.Type)
	}

	if key.N.BitLen() < MinRSABits {
		return nil, ErrRSAKeyTooWeak
	}
	return key, nil
}

// ParseRSAPublicKeyPEM accepts PKIX and PKCS1 encodings.
func ParseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	var key *rsa.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse PKIX public key: %w", err)
		}
		rk, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, ErrNotRSAKey
		}
		key = rk
	case "RSA PUBLIC KEY":
		k, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse PKCS1 public key: %w", err)
		}
		key = k
	default:
		return nil, fmt.Errorf("cryptox: unexpected PEM block %q", block.Type)
	}

	if key.N.BitLen() < MinRSABits {
		return nil, ErrRSAKeyTooWeak
	}
	return key, nil
}
