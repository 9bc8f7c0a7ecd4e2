package app

import (
	"errors"
	"fmt"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"

	"github.com/aussiebroadwan/tokentrust/internal/config"
)

type Config struct {
	Token      config.Token      // Claims and default lifetimes
	Keys       config.Keys       // Signing key pair on disk
	Revocation config.Revocation // Shared live-token store
	Logging    config.Logging    // slogx settings
	HTTP       config.HTTP       // Listener (default port: 8080)
	Metrics    config.Metrics    // Prometheus exporter

	DatabaseFile  string // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile    string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	BootstrapFile string // Optional: YAML seed of users and clients applied at startup
}

// LoadConfig reads the issuer configuration from the environment, after
// loading the nearest .env file.
func LoadConfig() Config {
	config.LoadDotEnv()

	return Config{
		Token:         config.LoadToken(),
		Keys:          config.LoadKeys(),
		Revocation:    config.LoadRevocation(),
		Logging:       config.LoadLogging(),
		HTTP:          config.LoadHTTP(8080),
		Metrics:       config.LoadMetrics(),
		DatabaseFile:  env.GetString("AUTH_DATABASE_FILE", "./auth.db"),
		PepperFile:    env.GetString("AUTH_PEPPER_FILE", "./pepper"),
		BootstrapFile: env.GetString("AUTH_BOOTSTRAP_FILE", ""),
	}
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	var errs []error
	for name, err := range map[string]error{
		"token":      c.Token.Validate(),
		"keys":       c.Keys.Validate(true),
		"revocation": c.Revocation.Validate(),
		"logging":    c.Logging.Validate(),
		"http":       c.HTTP.Validate(),
	} {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if err := validation.ValidateStruct(&c,
		validation.Field(&c.DatabaseFile, validation.Required),
		validation.Field(&c.PepperFile, validation.Required),
	); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
