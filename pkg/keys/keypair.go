package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
)

// DefaultKeySize is used when no size is configured.
const DefaultKeySize = 4096

// AlgorithmRSA is the only key algorithm supported.
const AlgorithmRSA = "RSA"

var (
	ErrUninitialized = errors.New("keys: key material not loaded")
	ErrNoPrivateKey  = errors.New("keys: private key not available")
	ErrSelfTest      = errors.New("keys: self-test failed")
)

// selfTestPayload is signed and verified before a key pair is trusted.
var selfTestPayload = []byte("tokentrust key self-test")

// KeyPair is an RSA key pair together with its PEM encodings. Private and
// PrivatePEM are empty for verify-only material.
type KeyPair struct {
	Algorithm   string
	Bits        int
	GeneratedAt time.Time

	PrivatePEM []byte
	PublicPEM  []byte

	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Generate creates a new RSA key pair and its PEM encodings
// (PKCS8 private, PKIX public).
func Generate(bits int) (*KeyPair, error) {
	if bits == 0 {
		bits = DefaultKeySize
	}

	priv, err := cryptox.GenerateRSAKey(bits)
	if err != nil {
		return nil, err
	}

	privPEM, err := cryptox.EncodeRSAPrivateKeyPEM(priv)
	if err != nil {
		return nil, err
	}
	pubPEM, err := cryptox.EncodeRSAPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		Algorithm:   AlgorithmRSA,
		Bits:        bits,
		GeneratedAt: time.Now().UTC(),
		PrivatePEM:  privPEM,
		PublicPEM:   pubPEM,
		Private:     priv,
		Public:      &priv.PublicKey,
	}, nil
}

// CanSign reports whether the private half is present.
func (kp *KeyPair) CanSign() bool {
	return kp != nil && kp.Private != nil
}

// SelfTest signs a fixed payload with the private half and verifies it with
// the public half. Verify-only pairs only get a structural check.
func (kp *KeyPair) SelfTest() error {
	if kp == nil || kp.Public == nil {
		return fmt.Errorf("%w: no public key", ErrSelfTest)
	}
	if kp.Public.N.BitLen() < cryptox.MinRSABits {
		return fmt.Errorf("%w: public key is %d bits", ErrSelfTest, kp.Public.N.BitLen())
	}
	if kp.Private == nil {
		return nil
	}

	digest := sha256.Sum256(selfTestPayload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, kp.Private, crypto.SHA256, digest[:])
	if err != nil {
		return fmt.Errorf("%w: sign: %w", ErrSelfTest, err)
	}
	if err := rsa.VerifyPKCS1v15(kp.Public, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("%w: verify: %w", ErrSelfTest, err)
	}
	return nil
}
