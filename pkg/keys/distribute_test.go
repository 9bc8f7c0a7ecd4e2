package keys_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tokentrust/pkg/keys"
	"github.com/stretchr/testify/require"
)

func writeGenerated(t *testing.T) (keys.Output, *keys.KeyPair) {
	t.Helper()
	kp := generate(t)
	out := keys.DefaultOutput()
	out.BasePath = filepath.Join(t.TempDir(), "generated-keys")
	require.NoError(t, keys.Write(kp, out))
	return out, kp
}

func TestDistribute_CopiesEachHalf(t *testing.T) {
	out, kp := writeGenerated(t)
	root := t.TempDir()

	targets := []keys.Target{
		{Module: "auth-service", KeyType: keys.KeyTypePrivate, Destination: filepath.Join(root, "auth", "keys")},
		{Module: "auth-service", KeyType: keys.KeyTypePublic, Destination: filepath.Join(root, "auth", "keys")},
		{Module: "resource-service", KeyType: keys.KeyTypePublic, Destination: filepath.Join(root, "resource", "keys")},
	}

	report := keys.NewDistributor(out, nil).Distribute(context.Background(), targets)
	require.True(t, report.OK())
	require.Equal(t, 3, report.Succeeded)
	require.Len(t, report.Results, 3)

	priv, err := os.ReadFile(filepath.Join(root, "auth", "keys", keys.DefaultPrivateKeyFilename))
	require.NoError(t, err)
	require.Equal(t, kp.PrivatePEM, priv)

	info, err := os.Stat(filepath.Join(root, "auth", "keys", keys.DefaultPrivateKeyFilename))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	pub, err := os.ReadFile(filepath.Join(root, "resource", "keys", keys.DefaultPublicKeyFilename))
	require.NoError(t, err)
	require.Equal(t, kp.PublicPEM, pub)

	// The verifier side never receives the private half.
	_, err = os.Stat(filepath.Join(root, "resource", "keys", keys.DefaultPrivateKeyFilename))
	require.True(t, os.IsNotExist(err))
}

func TestDistribute_ReplacesExisting(t *testing.T) {
	out, kp := writeGenerated(t)
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, keys.DefaultPublicKeyFilename), []byte("stale"), 0644))

	report := keys.NewDistributor(out, nil).Distribute(context.Background(), []keys.Target{
		{Module: "resource-service", KeyType: keys.KeyTypePublic, Destination: dest},
	})
	require.True(t, report.OK())

	pub, err := os.ReadFile(filepath.Join(dest, keys.DefaultPublicKeyFilename))
	require.NoError(t, err)
	require.Equal(t, kp.PublicPEM, pub)
}

func TestDistribute_PartialFailureContinues(t *testing.T) {
	out, _ := writeGenerated(t)
	root := t.TempDir()

	// A regular file where a directory is expected makes MkdirAll fail.
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	targets := []keys.Target{
		{Module: "a", KeyType: keys.KeyTypePublic, Destination: filepath.Join(root, "a")},
		{Module: "broken", KeyType: keys.KeyTypePublic, Destination: filepath.Join(blocker, "sub")},
		{Module: "unknown", KeyType: "symmetric", Destination: filepath.Join(root, "u")},
		{Module: "c", KeyType: keys.KeyTypePrivate, Destination: filepath.Join(root, "c")},
	}

	report := keys.NewDistributor(out, logger).Distribute(context.Background(), targets)
	require.False(t, report.OK())
	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 2, report.Failed)
	require.Error(t, report.Results[1].Err)
	require.Error(t, report.Results[2].Err)

	_, err := os.Stat(filepath.Join(root, "c", keys.DefaultPrivateKeyFilename))
	require.NoError(t, err, "targets after a failure are still attempted")
	require.Contains(t, logs.String(), "failed to distribute key")
}

func TestDistribute_DisabledOrEmpty(t *testing.T) {
	out, _ := writeGenerated(t)

	d := keys.NewDistributor(out, nil)
	report := d.Distribute(context.Background(), nil)
	require.Zero(t, report.Succeeded+report.Failed)

	d.Enabled = false
	report = d.Distribute(context.Background(), []keys.Target{
		{Module: "a", KeyType: keys.KeyTypePublic, Destination: t.TempDir()},
	})
	require.Zero(t, report.Succeeded+report.Failed)
}

func TestDistribute_MissingSourceFails(t *testing.T) {
	out := keys.DefaultOutput()
	out.BasePath = t.TempDir()

	report := keys.NewDistributor(out, nil).Distribute(context.Background(), []keys.Target{
		{Module: "a", KeyType: keys.KeyTypePublic, Destination: t.TempDir()},
	})
	require.Equal(t, 1, report.Failed)
}

func TestDistribute_CancelledContext(t *testing.T) {
	out, _ := writeGenerated(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := keys.NewDistributor(out, nil).Distribute(ctx, []keys.Target{
		{Module: "a", KeyType: keys.KeyTypePublic, Destination: t.TempDir()},
	})
	require.Equal(t, 1, report.Failed)
	require.ErrorIs(t, report.Results[0].Err, context.Canceled)
}

func TestClean_RemovesDistributedFiles(t *testing.T) {
	out, _ := writeGenerated(t)
	dest := t.TempDir()
	targets := []keys.Target{
		{Module: "a", KeyType: keys.KeyTypePublic, Destination: dest},
		{Module: "b", KeyType: keys.KeyTypePrivate, Destination: filepath.Join(dest, "never-created")},
	}

	d := keys.NewDistributor(out, nil)
	require.Equal(t, 1, d.Distribute(context.Background(), targets[:1]).Succeeded)

	report := d.Clean(context.Background(), targets)
	require.True(t, report.OK())
	require.Equal(t, 2, report.Succeeded)

	_, err := os.Stat(filepath.Join(dest, keys.DefaultPublicKeyFilename))
	require.True(t, os.IsNotExist(err))
}
