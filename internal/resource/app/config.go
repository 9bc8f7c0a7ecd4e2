package app

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokentrust/internal/config"
)

// Config for the verifying resource service. It never holds a private key.
type Config struct {
	Token      config.Token      // Expected issuer and audience; lifetimes unused
	Keys       config.Keys       // Public key PEM and kid
	Revocation config.Revocation // Same store the issuer writes to
	Logging    config.Logging    // slogx settings
	HTTP       config.HTTP       // Listener (default port: 8081)
	Metrics    config.Metrics    // Prometheus exporter
}

func LoadConfig() Config {
	config.LoadDotEnv()

	keys := config.LoadKeys()
	keys.PrivateKeyFile = ""

	return Config{
		Token:      config.LoadToken(),
		Keys:       keys,
		Revocation: config.LoadRevocation(),
		Logging:    config.LoadLogging(),
		HTTP:       config.LoadHTTP(8081),
		Metrics:    config.LoadMetrics(),
	}
}

func (c Config) Validate() error {
	var errs []error
	for name, err := range map[string]error{
		"token":      c.Token.Validate(),
		"keys":       c.Keys.Validate(false),
		"revocation": c.Revocation.Validate(),
		"logging":    c.Logging.Validate(),
		"http":       c.HTTP.Validate(),
	} {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
