package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T) {
				tok := LoadToken()
				assert.Equal(t, "auth-server", tok.Issuer)
				assert.Equal(t, []string{"resource-server"}, tok.Audience)
				assert.Equal(t, time.Hour, tok.AccessTTL)
				assert.Equal(t, 7*24*time.Hour, tok.RefreshTTL)

				rev := LoadRevocation()
				assert.Equal(t, DriverSQLite, rev.Driver)
				assert.Equal(t, "./revocation.db", rev.SQLiteFile)
				assert.Equal(t, "localhost:6379", rev.RedisAddr)
				assert.Equal(t, 3*time.Second, rev.RedisTimeout)
				assert.Equal(t, 10*time.Minute, rev.SweepInterval)

				keys := LoadKeys()
				assert.Equal(t, "./keys/private_key.pem", keys.PrivateKeyFile)
				assert.Equal(t, "tokentrust-rsa-1", keys.KID)

				assert.Equal(t, 8081, LoadHTTP(8081).Port)
				assert.Equal(t, 10*time.Second, LoadHTTP(8080).ShutdownGracePeriod)
				assert.True(t, LoadMetrics().Enabled)
				assert.Equal(t, "tokentrust", LoadMetrics().Namespace)
				assert.Equal(t, "json", LoadLogging().Format)
			},
		},
		{
			name: "custom token settings",
			envVars: map[string]string{
				"TOKEN_ISSUER":                   "https://auth.example.com",
				"TOKEN_AUDIENCE":                 "api, billing ,",
				"TOKEN_ACCESS_VALIDITY_SECONDS":  "60",
				"TOKEN_REFRESH_VALIDITY_SECONDS": "120",
			},
			validate: func(t *testing.T) {
				tok := LoadToken()
				assert.Equal(t, "https://auth.example.com", tok.Issuer)
				assert.Equal(t, []string{"api", "billing"}, tok.Audience)
				assert.Equal(t, time.Minute, tok.AccessTTL)
				assert.Equal(t, 2*time.Minute, tok.RefreshTTL)
			},
		},
		{
			name: "custom revocation settings",
			envVars: map[string]string{
				"REVOCATION_DRIVER":                 "REDIS",
				"REDIS_ADDR":                        "redis:6379",
				"REDIS_DB":                          "2",
				"REVOCATION_SWEEP_INTERVAL_MINUTES": "1",
			},
			validate: func(t *testing.T) {
				rev := LoadRevocation()
				assert.Equal(t, DriverRedis, rev.Driver)
				assert.Equal(t, "redis:6379", rev.RedisAddr)
				assert.Equal(t, 2, rev.RedisDB)
				assert.Equal(t, time.Minute, rev.SweepInterval)
				require.NoError(t, rev.Validate())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.validate(t)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		require.NoError(t, Token{Issuer: "a", Audience: []string{"b"}, AccessTTL: time.Hour, RefreshTTL: time.Hour}.Validate())
		require.Error(t, Token{Audience: []string{"b"}, AccessTTL: time.Hour, RefreshTTL: time.Hour}.Validate())
		require.Error(t, Token{Issuer: "a", AccessTTL: time.Hour, RefreshTTL: time.Hour}.Validate())
		require.Error(t, Token{Issuer: "a", Audience: []string{"b"}, RefreshTTL: time.Hour}.Validate())
		require.Error(t, Token{Issuer: "a", Audience: []string{"b"}, AccessTTL: time.Hour}.Validate())
		require.Error(t, Token{Issuer: "a", Audience: []string{"b"}, AccessTTL: time.Hour, RefreshTTL: time.Millisecond}.Validate())
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, Keys{PrivateKeyFile: "p", KID: "k"}.Validate(true))
		require.Error(t, Keys{PublicKeyFile: "p", KID: "k"}.Validate(true))
		require.NoError(t, Keys{PublicKeyFile: "p", KID: "k"}.Validate(false))
		require.Error(t, Keys{PublicKeyFile: "p"}.Validate(false))
	})

	t.Run("revocation", func(t *testing.T) {
		ok := Revocation{Driver: DriverMemory, SweepInterval: time.Minute}
		require.NoError(t, ok.Validate())

		bad := Revocation{Driver: "postgres", SweepInterval: time.Minute}
		require.Error(t, bad.Validate())

		noFile := Revocation{Driver: DriverSQLite, SweepInterval: time.Minute}
		require.Error(t, noFile.Validate())

		noAddr := Revocation{Driver: DriverRedis, SweepInterval: time.Minute}
		require.Error(t, noAddr.Validate())
	})

	t.Run("logging and http", func(t *testing.T) {
		require.NoError(t, Logging{Level: "debug", Format: "text"}.Validate())
		require.Error(t, Logging{Level: "trace", Format: "json"}.Validate())
		require.NoError(t, HTTP{Port: 8080}.Validate())
		require.Error(t, HTTP{Port: 70000}.Validate())
	})
}

func TestLoadDotEnv(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("TOKENTRUST_DOTENV_PROBE=found\n"), 0o600))

	t.Chdir(nested)
	t.Setenv("TOKENTRUST_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("TOKENTRUST_DOTENV_PROBE"))

	LoadDotEnv()
	assert.Equal(t, "found", os.Getenv("TOKENTRUST_DOTENV_PROBE"))
}
