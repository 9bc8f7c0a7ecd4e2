package keys

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
)

// Source names the PEM files to load. Issuers set both; verifiers set only
// PublicKeyFile. If only PrivateKeyFile is set the public half is derived.
type Source struct {
	PrivateKeyFile string
	PublicKeyFile  string
}

// LoadError reports which file could not be turned into usable key material.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("keys: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Provider loads key material once at startup.
type Provider struct {
	src    Source
	logger *slog.Logger
}

// NewProvider returns a Provider for src. A nil logger uses slog.Default.
func NewProvider(src Source, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{src: src, logger: logger}
}

// Load reads, parses and self-tests the configured files. Any error here
// should stop the process; material is never partially trusted.
func (p *Provider) Load() (*Material, error) {
	if p.src.PrivateKeyFile == "" && p.src.PublicKeyFile == "" {
		return nil, &LoadError{Path: "", Err: fmt.Errorf("no key files configured")}
	}

	kp := &KeyPair{Algorithm: AlgorithmRSA}

	if p.src.PrivateKeyFile != "" {
		data, err := os.ReadFile(p.src.PrivateKeyFile)
		if err != nil {
			return nil, &LoadError{Path: p.src.PrivateKeyFile, Err: err}
		}
		priv, err := cryptox.ParseRSAPrivateKeyPEM(data)
		if err != nil {
			return nil, &LoadError{Path: p.src.PrivateKeyFile, Err: err}
		}
		kp.Private = priv
		kp.PrivatePEM = data
		kp.Public = &priv.PublicKey
	}

	if p.src.PublicKeyFile != "" {
		data, err := os.ReadFile(p.src.PublicKeyFile)
		if err != nil {
			return nil, &LoadError{Path: p.src.PublicKeyFile, Err: err}
		}
		pub, err := cryptox.ParseRSAPublicKeyPEM(data)
		if err != nil {
			return nil, &LoadError{Path: p.src.PublicKeyFile, Err: err}
		}
		kp.Public = pub
		kp.PublicPEM = data
	} else {
		pubPEM, err := cryptox.EncodeRSAPublicKeyPEM(kp.Public)
		if err != nil {
			return nil, &LoadError{Path: p.src.PrivateKeyFile, Err: err}
		}
		kp.PublicPEM = pubPEM
	}

	kp.Bits = kp.Public.N.BitLen()
	if info, err := os.Stat(p.src.PublicKeyFile); err == nil {
		kp.GeneratedAt = info.ModTime().UTC()
	}

	m, err := NewMaterial(kp)
	if err != nil {
		return nil, &LoadError{Path: p.src.PublicKeyFile, Err: err}
	}

	p.logger.Info("key material loaded",
		"algorithm", kp.Algorithm,
		"bits", kp.Bits,
		"can_sign", kp.CanSign(),
		"public_key_file", p.src.PublicKeyFile,
	)
	return m, nil
}

// Material is self-tested key material. It is never mutated after
// construction and is passed explicitly to whoever needs it.
type Material struct {
	pair     *KeyPair
	loadedAt time.Time
}

// NewMaterial runs the self-test and wraps the pair.
func NewMaterial(kp *KeyPair) (*Material, error) {
	if err := kp.SelfTest(); err != nil {
		return nil, err
	}
	return &Material{pair: kp, loadedAt: time.Now().UTC()}, nil
}

// PrivateKey returns the signing key.
func (m *Material) PrivateKey() (*rsa.PrivateKey, error) {
	if m == nil || m.pair == nil {
		return nil, ErrUninitialized
	}
	if m.pair.Private == nil {
		return nil, ErrNoPrivateKey
	}
	return m.pair.Private, nil
}

// PublicKey returns the verification key.
func (m *Material) PublicKey() (*rsa.PublicKey, error) {
	if m == nil || m.pair == nil {
		return nil, ErrUninitialized
	}
	return m.pair.Public, nil
}

// CanSign reports whether the private half was loaded.
func (m *Material) CanSign() bool {
	return m != nil && m.pair.CanSign()
}

// Bits is the modulus size, or zero when uninitialized.
func (m *Material) Bits() int {
	if m == nil || m.pair == nil {
		return 0
	}
	return m.pair.Bits
}

// LoadedAt is when the material passed its self-test.
func (m *Material) LoadedAt() time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.loadedAt
}
