package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := LoadConfig()

	require.Equal(t, "auth-server", cfg.Token.Issuer)
	require.Equal(t, []string{"resource-server"}, cfg.Token.Audience)
	require.Equal(t, time.Hour, cfg.Token.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.Token.RefreshTTL)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, config.DriverSQLite, cfg.Revocation.Driver)
	require.Equal(t, "./auth.db", cfg.DatabaseFile)
	require.Empty(t, cfg.BootstrapFile)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_ACCESS_VALIDITY_SECONDS", "60")
	t.Setenv("REVOCATION_DRIVER", "Redis")
	t.Setenv("AUTH_BOOTSTRAP_FILE", "/etc/tokentrust/seed.yaml")

	cfg := LoadConfig()

	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, time.Minute, cfg.Token.AccessTTL)
	require.Equal(t, config.DriverRedis, cfg.Revocation.Driver)
	require.Equal(t, "/etc/tokentrust/seed.yaml", cfg.BootstrapFile)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate_ReportsEverySection(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REVOCATION_DRIVER", "etcd")
	t.Setenv("LOG_FORMAT", "xml")

	err := LoadConfig().Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "revocation")
	require.Contains(t, err.Error(), "logging")
}
