package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aussiebroadwan/tokentrust/pkg/keys"
)

// ErrDistributionFailed is returned when at least one target failed, so
// the process exits non-zero.
var ErrDistributionFailed = errors.New("key distribution failed")

// RunGenerate creates a fresh key pair, self-tests it and writes both
// halves under the output directory. With distribute set it then copies
// them to the configured targets.
func RunGenerate(ctx context.Context, cfg Config, distribute bool, out io.Writer, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("generating key pair", "bits", cfg.KeySize)
	kp, err := keys.Generate(cfg.KeySize)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := kp.SelfTest(); err != nil {
		return err
	}
	if err := keys.Write(kp, cfg.Output); err != nil {
		return err
	}

	logger.Info("key pair written",
		"private_key", cfg.Output.Path(keys.KeyTypePrivate),
		"public_key", cfg.Output.Path(keys.KeyTypePublic),
	)
	fmt.Fprintf(out, "private key: %s\npublic key:  %s\n",
		cfg.Output.Path(keys.KeyTypePrivate), cfg.Output.Path(keys.KeyTypePublic))

	if !distribute {
		return nil
	}
	return RunDistribute(ctx, cfg, out, logger)
}

// RunDistribute copies existing key files to every target. Every target is
// attempted; the error reports how many failed.
func RunDistribute(ctx context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	d := keys.NewDistributor(cfg.Output, logger)
	d.Enabled = cfg.Distribution.IsEnabled()

	report := d.Distribute(ctx, cfg.Distribution.Targets)
	printReport(out, "distributed", report)
	if !report.OK() {
		return fmt.Errorf("%w: %d of %d targets", ErrDistributionFailed, report.Failed, len(report.Results))
	}
	return nil
}

// RunClean removes distributed copies from every target.
func RunClean(ctx context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	report := keys.NewDistributor(cfg.Output, logger).Clean(ctx, cfg.Distribution.Targets)
	printReport(out, "removed", report)
	if !report.OK() {
		return fmt.Errorf("clean failed for %d of %d targets", report.Failed, len(report.Results))
	}
	return nil
}

// RunVerify loads the generated pair the same way the services do and
// runs the sign/verify self-test.
func RunVerify(_ context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	m, err := keys.NewProvider(keys.Source{
		PrivateKeyFile: cfg.Output.Path(keys.KeyTypePrivate),
		PublicKeyFile:  cfg.Output.Path(keys.KeyTypePublic),
	}, logger).Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ok: %d-bit RSA key pair passed self-test\n", m.Bits())
	return nil
}

func printReport(out io.Writer, verb string, r keys.Report) {
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(out, "FAIL %-20s %s: %v\n", res.Target.Module, res.Target.KeyType, res.Err)
			continue
		}
		fmt.Fprintf(out, "ok   %-20s %s -> %s\n", res.Target.Module, res.Target.KeyType, res.Path)
	}
	fmt.Fprintf(out, "%s %d, failed %d\n", verb, r.Succeeded, r.Failed)
}
