package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tokentrust/internal/config"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/keys"
)

// InitAuthKeys loads the signing key pair from disk, self-tests it and
// builds the KeyManager used by the issuer and its validator. The process
// must not serve requests if this fails.
func InitAuthKeys(kc config.Keys, tc config.Token, logger *slog.Logger) (*jwtx.KeyManager, error) {
	material, err := keys.NewProvider(keys.Source{
		PrivateKeyFile: kc.PrivateKeyFile,
		PublicKeyFile:  kc.PublicKeyFile,
	}, logger).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	if !material.CanSign() {
		return nil, fmt.Errorf("failed to load signing keys: %s has no private half", kc.PrivateKeyFile)
	}

	priv, err := material.PrivateKey()
	if err != nil {
		return nil, err
	}
	pub, err := material.PublicKey()
	if err != nil {
		return nil, err
	}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		KID:        kc.KID,
		PrivateKey: priv,
		PublicKey:  pub,
		Verify: jwtx.VerifyOptions{
			Issuer:   tc.Issuer,
			Audience: tc.Audience,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("signing keys loaded",
		"kid", kc.KID,
		"bits", material.Bits(),
		"issuer", tc.Issuer,
		"audience", tc.Audience,
	)
	return km, nil
}
