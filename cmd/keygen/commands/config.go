// Package commands implements the keygen subcommands.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	validation "github.com/jellydator/validation"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
	"github.com/aussiebroadwan/tokentrust/pkg/keys"
)

// DefaultConfigFile is read when --config is not given.
const DefaultConfigFile = "keygen.yaml"

// Config mirrors keygen.yaml.
type Config struct {
	KeySize      int          `yaml:"key_size"`
	Output       keys.Output  `yaml:"output"`
	Distribution Distribution `yaml:"distribution"`
}

type Distribution struct {
	Enabled *bool         `yaml:"enabled"` // default: true
	Targets []keys.Target `yaml:"targets"`
}

// IsEnabled treats an absent flag as enabled.
func (d Distribution) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

func defaultConfig() Config {
	return Config{
		KeySize: keys.DefaultKeySize,
		Output:  keys.DefaultOutput(),
	}
}

// LoadConfig reads path over the defaults. A missing file is only an error
// when required is set, i.e. the user named it explicitly.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	def := keys.DefaultOutput()
	if cfg.Output.BasePath == "" {
		cfg.Output.BasePath = def.BasePath
	}
	if cfg.Output.PrivateKeyFilename == "" {
		cfg.Output.PrivateKeyFilename = def.PrivateKeyFilename
	}
	if cfg.Output.PublicKeyFilename == "" {
		cfg.Output.PublicKeyFilename = def.PublicKeyFilename
	}
	if cfg.KeySize == 0 {
		cfg.KeySize = keys.DefaultKeySize
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.KeySize, validation.Min(cryptox.MinRSABits).
			Error(fmt.Sprintf("key_size must be at least %d", cryptox.MinRSABits))),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Output,
		validation.Field(&c.Output.BasePath, validation.Required),
		validation.Field(&c.Output.PrivateKeyFilename, validation.Required),
		validation.Field(&c.Output.PublicKeyFilename, validation.Required),
	); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	for i, t := range c.Distribution.Targets {
		if err := validation.ValidateStruct(&t,
			validation.Field(&t.Module, validation.Required),
			validation.Field(&t.KeyType, validation.Required, validation.In(keys.KeyTypePrivate, keys.KeyTypePublic)),
			validation.Field(&t.Destination, validation.Required),
		); err != nil {
			return fmt.Errorf("distribution.targets[%d]: %w", i, err)
		}
	}
	return nil
}
