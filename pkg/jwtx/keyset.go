package jwtx

import (
	"crypto/rsa"
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the public verification keys in memory. It's thread-safe, so
// the issuer (for JWKS publishing) and verifiers can share one.
type KeySet struct {
	mu  sync.RWMutex
	jks JWKS
	pub map[string]*rsa.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		pub: make(map[string]*rsa.PublicKey),
	}
}

// AddSigner registers a Signer's public JWK into the KeySet.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddPublicKey registers a bare RSA public key under kid.
func (k *KeySet) AddPublicKey(kid string, pub *rsa.PublicKey) error {
	if pub == nil {
		return errors.New("jwtx: nil public key")
	}
	return k.AddJWK(NewRSAJWK(kid, "sig", AlgorithmRS256, pub))
}

// AddJWK adds a JWK to the KeySet and parses it into a usable crypto key.
// A kid that is already present is replaced.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := j.RSAPublicKey()
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.pub[j.Kid]; exists {
		keys := k.jks.Keys[:0]
		for _, existing := range k.jks.Keys {
			if existing.Kid != j.Kid {
				keys = append(keys, existing)
			}
		}
		k.jks.Keys = keys
	}
	k.pub[j.Kid] = key
	k.jks.Keys = append(k.jks.Keys, j)
	return nil
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// Only returns the key when the set holds exactly one.
func (k *KeySet) Only() (*rsa.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if len(k.pub) != 1 {
		return nil, ErrNoKey
	}
	for _, pk := range k.pub {
		return pk, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a snapshot of the KeySet's JWKS for HTTP serving.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := JWKS{Keys: make([]JWK, len(k.jks.Keys))}
	copy(out.Keys, k.jks.Keys)
	return out
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
