package keys

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// KeyType selects which half of the pair a target receives.
type KeyType string

const (
	KeyTypePrivate KeyType = "private"
	KeyTypePublic  KeyType = "public"
)

const (
	DefaultBasePath           = "./generated-keys"
	DefaultPrivateKeyFilename = "private_key.pem"
	DefaultPublicKeyFilename  = "public_key.pem"
)

// Output is where the generator writes the pair.
type Output struct {
	BasePath           string `yaml:"base_path"`
	PrivateKeyFilename string `yaml:"private_key_filename"`
	PublicKeyFilename  string `yaml:"public_key_filename"`
}

// DefaultOutput returns the stock output layout.
func DefaultOutput() Output {
	return Output{
		BasePath:           DefaultBasePath,
		PrivateKeyFilename: DefaultPrivateKeyFilename,
		PublicKeyFilename:  DefaultPublicKeyFilename,
	}
}

// Filename returns the file name used for kt, or "" for unknown types.
func (o Output) Filename(kt KeyType) string {
	switch kt {
	case KeyTypePrivate:
		return o.PrivateKeyFilename
	case KeyTypePublic:
		return o.PublicKeyFilename
	default:
		return ""
	}
}

// Path returns the generated file for kt.
func (o Output) Path(kt KeyType) string {
	return filepath.Join(o.BasePath, o.Filename(kt))
}

// Target is one dependent service's trust-material location.
type Target struct {
	Module      string  `yaml:"module"`
	KeyType     KeyType `yaml:"key_type"`
	Destination string  `yaml:"destination"`
}

// Write stores both PEM halves under out.BasePath. The private key file is
// 0600 and the public key file 0644.
func Write(kp *KeyPair, out Output) error {
	if !kp.CanSign() || len(kp.PublicPEM) == 0 {
		return errors.New("keys: write requires a full key pair")
	}
	if err := os.MkdirAll(out.BasePath, 0750); err != nil {
		return fmt.Errorf("keys: create output dir: %w", err)
	}
	if err := writeFileAtomic(out.Path(KeyTypePrivate), kp.PrivatePEM, 0600); err != nil {
		return fmt.Errorf("keys: write private key: %w", err)
	}
	if err := writeFileAtomic(out.Path(KeyTypePublic), kp.PublicPEM, 0644); err != nil {
		return fmt.Errorf("keys: write public key: %w", err)
	}
	return nil
}

// Result is the outcome for a single target.
type Result struct {
	Target Target
	Path   string
	Err    error
}

// Report aggregates a distribution or clean run.
type Report struct {
	Succeeded int
	Failed    int
	Results   []Result
}

// OK is true when no target failed.
func (r Report) OK() bool { return r.Failed == 0 }

func (r *Report) add(res Result) {
	if res.Err != nil {
		r.Failed++
	} else {
		r.Succeeded++
	}
	r.Results = append(r.Results, res)
}

// Distributor copies generated key files to their targets.
type Distributor struct {
	Output  Output
	Enabled bool
	Logger  *slog.Logger
}

// NewDistributor returns an enabled Distributor. A nil logger uses slog.Default.
func NewDistributor(out Output, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{Output: out, Enabled: true, Logger: logger}
}

// Distribute copies the requested half to each target. A failing target is
// logged and counted; the remaining targets are still attempted.
func (d *Distributor) Distribute(ctx context.Context, targets []Target) Report {
	var report Report
	if !d.Enabled {
		d.Logger.Warn("key distribution is disabled")
		return report
	}
	if len(targets) == 0 {
		d.Logger.Warn("no distribution targets configured")
		return report
	}

	for _, t := range targets {
		res := Result{Target: t}
		if err := ctx.Err(); err != nil {
			res.Err = err
		} else {
			res.Path, res.Err = d.copyTo(t)
		}
		report.add(res)

		if res.Err != nil {
			d.Logger.Error("failed to distribute key",
				"module", t.Module,
				"key_type", t.KeyType,
				"destination", t.Destination,
				"err", res.Err,
			)
			continue
		}
		d.Logger.Info("key distributed",
			"module", t.Module,
			"key_type", t.KeyType,
			"path", res.Path,
		)
	}

	d.Logger.Info("key distribution finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report
}

// Clean removes previously distributed files. Files that are already gone
// count as success.
func (d *Distributor) Clean(ctx context.Context, targets []Target) Report {
	var report Report
	for _, t := range targets {
		res := Result{Target: t}
		if err := ctx.Err(); err != nil {
			res.Err = err
			report.add(res)
			continue
		}

		name := d.Output.Filename(t.KeyType)
		if name == "" {
			res.Err = fmt.Errorf("keys: unknown key type %q", t.KeyType)
		} else {
			res.Path = filepath.Join(t.Destination, name)
			if err := os.Remove(res.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				res.Err = err
			}
		}
		report.add(res)

		if res.Err != nil {
			d.Logger.Error("failed to clean distributed key", "module", t.Module, "path", res.Path, "err", res.Err)
		} else {
			d.Logger.Info("distributed key removed", "module", t.Module, "path", res.Path)
		}
	}
	return report
}

func (d *Distributor) copyTo(t Target) (string, error) {
	name := d.Output.Filename(t.KeyType)
	if name == "" {
		return "", fmt.Errorf("keys: unknown key type %q", t.KeyType)
	}
	if t.Destination == "" {
		return "", errors.New("keys: empty destination")
	}

	data, err := os.ReadFile(d.Output.Path(t.KeyType))
	if err != nil {
		return "", fmt.Errorf("keys: read source: %w", err)
	}

	if err := os.MkdirAll(t.Destination, 0750); err != nil {
		return "", fmt.Errorf("keys: create destination: %w", err)
	}

	perm := fs.FileMode(0644)
	if t.KeyType == KeyTypePrivate {
		perm = 0600
	}

	dst := filepath.Join(t.Destination, name)
	if err := writeFileAtomic(dst, data, perm); err != nil {
		return dst, fmt.Errorf("keys: copy: %w", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return dst, fmt.Errorf("keys: verify copy: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() != int64(len(data)) {
		return dst, fmt.Errorf("keys: verify copy: unexpected file at %s", dst)
	}
	return dst, nil
}

// writeFileAtomic replaces path with data via a temp file in the same dir.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
