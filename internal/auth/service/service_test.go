package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/service"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/memory"
	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
	"github.com/aussiebroadwan/tokentrust/pkg/idx"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "auth-server"
	testKID    = "test-kid"
)

var testAudience = []string{"resource-server"}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type fixture struct {
	store  *sqlite.Store
	revoke *memory.Store
	km     *jwtx.KeyManager
	auth   *service.Authenticator
	issuer *service.Issuer
	tokens *service.TokenService
	valid  *guard.Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	km, err := jwtx.NewEphemeralKeyManager(testKID, 2048, jwtx.VerifyOptions{
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	require.NoError(t, err)

	rev := memory.New()
	auth := &service.Authenticator{Store: s}
	issuer := &service.Issuer{
		KeyManager:  km,
		Revocations: rev,
		Issuer:      testIssuer,
		Audience:    testAudience,
		AccessTTL:   time.Hour,
		RefreshTTL:  7 * 24 * time.Hour,
	}
	v := guard.NewValidator(km.Verifier, rev)

	return &fixture{
		store:  s,
		revoke: rev,
		km:     km,
		auth:   auth,
		issuer: issuer,
		valid:  v,
		tokens: &service.TokenService{
			Authenticator: auth,
			Issuer:        issuer,
			Validator:     v,
			Verifier:      km.Verifier,
			Revocations:   rev,
			Users:         s.Users(),
		},
	}
}

func (f *fixture) addUser(t *testing.T, username, password string, mutate func(*domain.User)) domain.User {
	t.Helper()
	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		Name:         username,
		PasswordHash: hash,
		Roles:        []string{"USER"},
		Enabled:      true,
	}
	if mutate != nil {
		mutate(&u)
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func (f *fixture) addClient(t *testing.T, id, secret string, mutate func(*domain.Client)) domain.Client {
	t.Helper()
	hash, err := cryptox.HashPassword(secret)
	require.NoError(t, err)

	c := domain.Client{
		ID:         id,
		Name:       id,
		SecretHash: hash,
		GrantTypes: []domain.GrantType{domain.GrantClientCredentials, domain.GrantPassword, domain.GrantRefreshToken},
		Scopes:     []string{"read", "write"},
		Enabled:    true,
	}
	if mutate != nil {
		mutate(&c)
	}
	require.NoError(t, f.store.Clients().CreateClient(context.Background(), c))
	return c
}
