package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
)

// AlgorithmRS256 is the only signing algorithm issued and accepted.
const AlgorithmRS256 = "RS256"

// KeyManager wires loaded key material into a signer (issuer side only),
// a KeySet for JWKS publishing and a verifier.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	signer Signer
}

// KeyManagerOptions configures the KeyManager for a specific use case.
type KeyManagerOptions struct {
	// KID is the key id placed in token headers and the JWKS.
	KID string

	// PrivateKey is nil on verify-only services.
	PrivateKey *rsa.PrivateKey

	// PublicKey is required. When PrivateKey is set it must be its public half.
	PublicKey *rsa.PublicKey

	Verify VerifyOptions
}

// NewKeyManager builds a KeyManager from already loaded key material.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.KID == "" {
		return nil, errors.New("jwtx: KID is required")
	}
	if opts.PublicKey == nil {
		return nil, errors.New("jwtx: PublicKey is required")
	}
	if opts.PrivateKey != nil && !opts.PrivateKey.PublicKey.Equal(opts.PublicKey) {
		return nil, errors.New("jwtx: private and public key do not form a pair")
	}

	keyset := NewKeySet()
	if err := keyset.AddPublicKey(opts.KID, opts.PublicKey); err != nil {
		return nil, fmt.Errorf("jwtx: add public key: %w", err)
	}

	km := &KeyManager{
		Verifier: NewVerifierRS256(keyset, opts.Verify),
		KeySet:   keyset,
	}
	if opts.PrivateKey != nil {
		km.signer = NewSignerRS256FromKey(opts.KID, opts.PrivateKey)
	}
	return km, nil
}

// NewEphemeralKeyManager generates an in-memory RSA key and builds a signing
// KeyManager around it. Tokens die with the process; meant for tests and
// local development.
func NewEphemeralKeyManager(kid string, bits int, verify VerifyOptions) (*KeyManager, error) {
	if bits == 0 {
		bits = cryptox.MinRSABits
	}
	key, err := cryptox.GenerateRSAKey(bits)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}
	return NewKeyManager(KeyManagerOptions{
		KID:        kid,
		PrivateKey: key,
		PublicKey:  &key.PublicKey,
		Verify:     verify,
	})
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km != nil && km.KeySet.IsReady()
}

// CanSign reports whether a private key was supplied.
func (km *KeyManager) CanSign() bool {
	return km != nil && km.signer != nil
}

// GetSigner returns the signer, or nil on verify-only services.
func (km *KeyManager) GetSigner() Signer {
	return km.signer
}
