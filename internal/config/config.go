// Package config loads the settings shared by the issuer and resource
// binaries from environment variables and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
	validation "github.com/jellydator/validation"
)

// Revocation store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Token holds the claims and lifetimes stamped on every issued token.
type Token struct {
	Issuer     string        // Issuer claim (default: auth-server)
	Audience   []string      // Audience claim, comma separated in env (default: resource-server)
	AccessTTL  time.Duration // Default access token validity (default: 1h)
	RefreshTTL time.Duration // Default refresh token validity (default: 7d)
}

// Keys points at the PEM files backing the signing key pair.
type Keys struct {
	PrivateKeyFile string // Private key PEM, empty on verify-only binaries
	PublicKeyFile  string // Public key PEM, derived from the private key when empty
	KID            string // Key id placed in the JWT header and JWKS
}

// Revocation selects and configures the active-token store.
type Revocation struct {
	Driver        string        // sqlite, redis or memory (default: sqlite)
	SQLiteFile    string        // sqlite database file (default: ./revocation.db)
	RedisAddr     string        // host:port (default: localhost:6379)
	RedisPassword string        // Optional
	RedisDB       int           // Logical database (default: 0)
	RedisTimeout  time.Duration // Dial/read/write timeout (default: 3s)
	SweepInterval time.Duration // Purge interval for lapsed entries (default: 10m)
}

// Logging controls slogx output.
type Logging struct {
	Env    string // dev, staging, prod, test (default: dev)
	Level  string // debug, info, warn, error (default: info)
	Format string // json, text (default: json)
}

// HTTP configures the listener and its shutdown.
type HTTP struct {
	Port                int           // Listen port
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// Metrics toggles the OpenTelemetry Prometheus exporter.
type Metrics struct {
	Enabled   bool   // Serve /metrics (default: true)
	Namespace string // Metric name prefix (default: tokentrust)
}

// LoadToken reads the TOKEN_* variables.
func LoadToken() Token {
	return Token{
		Issuer:     env.GetString("TOKEN_ISSUER", "auth-server"),
		Audience:   splitList(env.GetString("TOKEN_AUDIENCE", "resource-server")),
		AccessTTL:  env.GetDuration("TOKEN_ACCESS_VALIDITY_SECONDS", 3600, time.Second),
		RefreshTTL: env.GetDuration("TOKEN_REFRESH_VALIDITY_SECONDS", 604800, time.Second),
	}
}

// LoadKeys reads the KEYS_* variables.
func LoadKeys() Keys {
	return Keys{
		PrivateKeyFile: env.GetString("KEYS_PRIVATE_KEY_FILE", "./keys/private_key.pem"),
		PublicKeyFile:  env.GetString("KEYS_PUBLIC_KEY_FILE", "./keys/public_key.pem"),
		KID:            env.GetString("KEYS_KID", "tokentrust-rsa-1"),
	}
}

// LoadRevocation reads the REVOCATION_* and REDIS_* variables.
func LoadRevocation() Revocation {
	return Revocation{
		Driver:        strings.ToLower(env.GetString("REVOCATION_DRIVER", DriverSQLite)),
		SQLiteFile:    env.GetString("REVOCATION_SQLITE_FILE", "./revocation.db"),
		RedisAddr:     env.GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.GetString("REDIS_PASSWORD", ""),
		RedisDB:       env.GetInt("REDIS_DB", 0),
		RedisTimeout:  env.GetDuration("REDIS_TIMEOUT_SECONDS", 3, time.Second),
		SweepInterval: env.GetDuration("REVOCATION_SWEEP_INTERVAL_MINUTES", 10, time.Minute),
	}
}

// LoadLogging reads ENV, LOG_LEVEL and LOG_FORMAT.
func LoadLogging() Logging {
	return Logging{
		Env:    env.GetString("ENV", "dev"),
		Level:  env.GetString("LOG_LEVEL", "info"),
		Format: env.GetString("LOG_FORMAT", "json"),
	}
}

// LoadHTTP reads PORT and SHUTDOWN_GRACE_PERIOD_SECONDS using defaultPort
// when PORT is unset.
func LoadHTTP(defaultPort int) HTTP {
	return HTTP{
		Port:                env.GetInt("PORT", defaultPort),
		ShutdownGracePeriod: env.GetDuration("SHUTDOWN_GRACE_PERIOD_SECONDS", 10, time.Second),
	}
}

// LoadMetrics reads METRICS_ENABLED and METRICS_NAMESPACE.
func LoadMetrics() Metrics {
	return Metrics{
		Enabled:   env.GetBool("METRICS_ENABLED", true),
		Namespace: env.GetString("METRICS_NAMESPACE", "tokentrust"),
	}
}

// Validate checks the token settings.
func (t Token) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Issuer, validation.Required.Error("issuer is required")),
		validation.Field(&t.Audience, validation.Required.Error("at least one audience is required")),
		validation.Field(&t.AccessTTL, validation.Required.Error("access validity must be positive"), validation.Min(time.Second).Error("access validity must be positive")),
		validation.Field(&t.RefreshTTL, validation.Required.Error("refresh validity must be positive"), validation.Min(time.Second).Error("refresh validity must be positive")),
	)
}

// Validate checks the key settings. Signing binaries must set requirePrivate.
func (k Keys) Validate(requirePrivate bool) error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.PrivateKeyFile, validation.When(requirePrivate, validation.Required.Error("private key file is required"))),
		validation.Field(&k.PublicKeyFile, validation.When(!requirePrivate, validation.Required.Error("public key file is required"))),
		validation.Field(&k.KID, validation.Required.Error("key id is required")),
	)
}

// Validate checks the revocation settings for the selected driver.
func (r Revocation) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Driver, validation.Required, validation.In(DriverSQLite, DriverRedis, DriverMemory).
			Error("driver must be one of sqlite, redis, memory")),
		validation.Field(&r.SQLiteFile, validation.When(r.Driver == DriverSQLite, validation.Required)),
		validation.Field(&r.RedisAddr, validation.When(r.Driver == DriverRedis, validation.Required)),
		validation.Field(&r.RedisDB, validation.Min(0)),
		validation.Field(&r.SweepInterval, validation.Min(time.Second)),
	)
}

// Validate checks the logging settings.
func (l Logging) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("json", "text")),
	)
}

// Validate checks the listener settings.
func (h HTTP) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&h.ShutdownGracePeriod, validation.Min(time.Duration(0))),
	)
}

// LoadDotEnv searches for a .env file from the current directory up to the
// filesystem root and loads the first one found. Variables already present
// in the environment win.
func LoadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
