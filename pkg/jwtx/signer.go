package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
	Validate() error
}

// RS256Signer implements the Signer interface using RSA SHA-256.
type RS256Signer struct {
	kid string
	key *rsa.PrivateKey
}

// NewSignerRS256 creates an RS256 signer from PEM bytes (PKCS1 or PKCS8).
func NewSignerRS256(kid string, pemKey []byte) (*RS256Signer, error) {
	key, err := cryptox.ParseRSAPrivateKeyPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}
	return NewSignerRS256FromKey(kid, key), nil
}

// NewSignerRS256FromKey wraps an already parsed private key.
func NewSignerRS256FromKey(kid string, key *rsa.PrivateKey) *RS256Signer {
	return &RS256Signer{kid: kid, key: key}
}

func (s *RS256Signer) Alg() string { return jwt.SigningMethodRS256.Alg() }
func (s *RS256Signer) KID() string { return s.kid }

// Sign takes your claims and turns them into a signed JWT string.
func (s *RS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicJWK returns a JWK for inclusion in a JWKS.
func (s *RS256Signer) PublicJWK() JWK {
	return NewRSAJWK(s.kid, "sig", s.Alg(), &s.key.PublicKey)
}

// Validate does a quick sanity check to make sure we actually have keys.
func (s *RS256Signer) Validate() error {
	if s.key == nil {
		return errors.New("jwtx: nil RSA key")
	}
	return s.key.Validate()
}
