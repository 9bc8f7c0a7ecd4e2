// Command keygen generates the RSA signing key pair and distributes each
// half to the services that need it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/aussiebroadwan/tokentrust/cmd/keygen/commands"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

var version = "v0.1.0"

func main() {
	cmd := &cli.Command{
		Name:    "keygen",
		Usage:   "Generate and distribute token signing keys",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   commands.DefaultConfigFile,
				Usage:   "Path to keygen YAML configuration",
			},
			&cli.IntFlag{
				Name:  "key-size",
				Usage: "RSA modulus size in bits (overrides key_size)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for generated keys (overrides output.base_path)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a new key pair and run the self-test",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "distribute",
						Aliases: []string{"d"},
						Usage:   "Distribute the new keys to all configured targets",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return commands.RunGenerate(ctx, cfg, cmd.Bool("distribute"), os.Stdout, logger(cmd))
				},
			},
			{
				Name:  "distribute",
				Usage: "Copy existing keys to all configured targets",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return commands.RunDistribute(ctx, cfg, os.Stdout, logger(cmd))
				},
			},
			{
				Name:  "clean",
				Usage: "Remove distributed keys from all configured targets",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return commands.RunClean(ctx, cfg, os.Stdout, logger(cmd))
				},
			},
			{
				Name:  "verify",
				Usage: "Load the generated keys and run the sign/verify self-test",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return commands.RunVerify(ctx, cfg, os.Stdout, logger(cmd))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (commands.Config, error) {
	cfg, err := commands.LoadConfig(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return commands.Config{}, err
	}
	if n := cmd.Int("key-size"); n != 0 {
		cfg.KeySize = int(n)
	}
	if dir := cmd.String("output"); dir != "" {
		cfg.Output.BasePath = dir
	}
	return cfg, nil
}

func logger(cmd *cli.Command) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "keygen",
		Version: version,
		Env:     "cli",
		Level:   cmd.String("log-level"),
		Format:  "text",
		Writer:  os.Stderr,
	})
}
