package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/service"
	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/memory"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestExchange_ClientCredentialsDefaultsToClientScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addClient(t, "svc-a", "s3cret", nil)

	pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantClientCredentials,
		ClientID:     "svc-a",
		ClientSecret: "s3cret",
	})
	require.NoError(t, err)
	require.Equal(t, "read write", pair.Scope)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Empty(t, pair.RefreshToken)
	require.Equal(t, time.Hour, pair.ExpiresIn)

	p, err := f.valid.Validate(ctx, pair.AccessToken, jwtx.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "svc-a", p.Subject)
	require.Equal(t, []string{"read", "write"}, p.Scopes)
}

func TestExchange_ClientCredentialsScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addClient(t, "svc-a", "s3cret", func(c *domain.Client) {
		c.Scopes = []string{"read", "write", "delete"}
		c.AccessTokenValidity = 5 * time.Minute
	})

	tests := []struct {
		name    string
		scope   string
		want    string
		wantErr error
	}{
		{"subset keeps request order", "write read", "write read", nil},
		{"duplicates collapse", "read read", "read", nil},
		{"outside allowance", "read admin", "", errs.ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
				GrantType:    domain.GrantClientCredentials,
				ClientID:     "svc-a",
				ClientSecret: "s3cret",
				Scope:        tt.scope,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, pair.Scope)
			require.Equal(t, 5*time.Minute, pair.ExpiresIn)
		})
	}
}

func TestExchange_ClientGrantNotAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addClient(t, "web", "s3cret", func(c *domain.Client) {
		c.GrantTypes = []domain.GrantType{domain.GrantPassword}
	})

	_, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantClientCredentials,
		ClientID:     "web",
		ClientSecret: "s3cret",
	})
	require.ErrorIs(t, err, errs.ErrUnauthorizedGrant)
	require.Zero(t, f.revoke.Len())
}

func TestExchange_PasswordIssueThenValidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "correct horse", func(u *domain.User) {
		u.Roles = []string{"USER", "ROLE_ADMIN"}
	})

	pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "alice",
		Password:  "correct horse",
		Scope:     "read write",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "read write", pair.Scope)
	require.Equal(t, 2, f.revoke.Len())

	p, err := f.valid.Validate(ctx, pair.AccessToken, jwtx.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "alice", p.Subject)
	require.Equal(t, "alice@example.com", p.Email)
	require.True(t, p.IsAdmin)
	require.Contains(t, p.Permissions, "read:own")
	require.Contains(t, p.Permissions, "admin:users")

	rp, err := f.valid.Validate(ctx, pair.RefreshToken, jwtx.TokenTypeRefresh)
	require.NoError(t, err)
	require.Equal(t, "alice", rp.Subject)
	require.Empty(t, rp.Roles)
}

func TestExchange_PasswordWithClient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "correct horse", nil)
	f.addClient(t, "web", "s3cret", func(c *domain.Client) {
		c.GrantTypes = []domain.GrantType{domain.GrantPassword}
		c.AccessTokenValidity = 10 * time.Minute
	})

	pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantPassword,
		ClientID:     "web",
		ClientSecret: "s3cret",
		Username:     "alice",
		Password:     "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "read write", pair.Scope)
	require.Equal(t, 10*time.Minute, pair.ExpiresIn)

	_, err = f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantPassword,
		ClientID:     "web",
		ClientSecret: "wrong",
		Username:     "alice",
		Password:     "correct horse",
	})
	require.ErrorIs(t, err, errs.ErrInvalidClientSecret)
}

func TestExchange_LockedOrDisabledNeverIssued(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "locked", "pw", func(u *domain.User) { u.Locked = true })
	f.addUser(t, "disabled", "pw", func(u *domain.User) { u.Enabled = false })

	for _, username := range []string{"locked", "disabled"} {
		for _, password := range []string{"pw", "wrong", "x"} {
			_, err := f.tokens.Exchange(ctx, service.TokenRequest{
				GrantType: domain.GrantPassword,
				Username:  username,
				Password:  password,
			})
			require.Error(t, err, "%s/%s", username, password)
			require.Equal(t, errs.KindAuthentication, errs.KindOf(err))
		}
	}
	require.Zero(t, f.revoke.Len())
}

func TestExchange_UserWithoutRoleCannotReceiveToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "norole", "pw", func(u *domain.User) { u.Roles = nil })

	_, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "norole",
		Password:  "pw",
	})
	require.ErrorIs(t, err, errs.ErrUserNotAuthorizedForToken)
}

func TestExchange_MissingFieldsFailBeforeStoreAccess(t *testing.T) {
	// A nil store panics on first use, so any lookup would fail the test.
	tokens := &service.TokenService{Authenticator: &service.Authenticator{}}

	tests := []struct {
		name  string
		req   service.TokenRequest
		field string
	}{
		{"client credentials without id", service.TokenRequest{GrantType: domain.GrantClientCredentials, ClientSecret: "s"}, "client_id"},
		{"client credentials without secret", service.TokenRequest{GrantType: domain.GrantClientCredentials, ClientID: "c"}, "client_secret"},
		{"password without username", service.TokenRequest{GrantType: domain.GrantPassword, Password: "p"}, "username"},
		{"password without password", service.TokenRequest{GrantType: domain.GrantPassword, Username: "u"}, "password"},
		{"refresh without token", service.TokenRequest{GrantType: domain.GrantRefreshToken}, "refresh_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Exchange(context.Background(), tt.req)
			require.ErrorIs(t, err, errs.ErrMissingRequiredField)
			require.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestExchange_UnsupportedGrant(t *testing.T) {
	tokens := &service.TokenService{}
	_, err := tokens.Exchange(context.Background(), service.TokenRequest{
		GrantType: domain.ParseGrantType("authorization_code"),
	})
	require.ErrorIs(t, err, errs.ErrUnsupportedGrantType)
}

func TestExchange_RefreshRotates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "pw", nil)

	first, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "alice",
		Password:  "pw",
	})
	require.NoError(t, err)

	second, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantRefreshToken,
		RefreshToken: first.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	p, err := f.valid.Validate(ctx, second.AccessToken, jwtx.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, "alice", p.Subject)

	// The presented refresh token is retired on use.
	_, err = f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantRefreshToken,
		RefreshToken: first.RefreshToken,
	})
	require.ErrorIs(t, err, errs.ErrTokenRevoked)
}

func TestExchange_RefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "pw", nil)

	pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "alice",
		Password:  "pw",
	})
	require.NoError(t, err)

	_, err = f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantRefreshToken,
		RefreshToken: pair.AccessToken,
	})
	require.ErrorIs(t, err, errs.ErrWrongTokenType)
}

func TestExchange_RefreshRecomputesEligibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.addUser(t, "alice", "pw", nil)

	pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "alice",
		Password:  "pw",
	})
	require.NoError(t, err)

	require.NoError(t, f.store.Users().SetUserStatus(ctx, u.ID, true, true))

	_, err = f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType:    domain.GrantRefreshToken,
		RefreshToken: pair.RefreshToken,
	})
	require.ErrorIs(t, err, errs.ErrUserNotAuthorizedForToken)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "pw", nil)

	pair, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "alice",
		Password:  "pw",
	})
	require.NoError(t, err)

	require.NoError(t, f.tokens.Revoke(ctx, pair.AccessToken))
	_, err = f.valid.Validate(ctx, pair.AccessToken, jwtx.TokenTypeAccess)
	require.ErrorIs(t, err, errs.ErrTokenRevoked)

	// Repeat revocations and garbage still succeed.
	require.NoError(t, f.tokens.Revoke(ctx, pair.AccessToken))
	require.NoError(t, f.tokens.Revoke(ctx, "not-a-jwt"))
	require.NoError(t, f.tokens.Revoke(ctx, ""))
}

func TestRevoke_ExpiredTokenAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.addUser(t, "alice", "pw", nil)

	f.issuer.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := f.issuer.IssueAccessToken(ctx, u, service.IssueOptions{TTL: time.Hour})
	require.NoError(t, err)

	// The memory store still holds the entry because it was written with a
	// one hour TTL relative to the real clock.
	live, err := f.revoke.Exists(ctx, tok.ID)
	require.NoError(t, err)
	require.True(t, live)

	require.NoError(t, f.tokens.Revoke(ctx, tok.Raw))

	live, err = f.revoke.Exists(ctx, tok.ID)
	require.NoError(t, err)
	require.False(t, live)
}

func TestIssuer_StoreFailureReturnsNoToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.addUser(t, "alice", "pw", nil)

	f.issuer.Revocations = failingStore{memory.New()}
	tok, err := f.issuer.IssueAccessToken(ctx, u, service.IssueOptions{})
	require.ErrorIs(t, err, errs.ErrRevocationStore)
	require.Empty(t, tok.Raw)
}

type failingStore struct{ *memory.Store }

func (failingStore) Put(context.Context, string, string, time.Duration) error {
	return context.DeadlineExceeded
}

// gatedLiveness holds every Exists caller until n of them have seen the
// entry, so concurrent refreshes all pass validation before any rotates.
type gatedLiveness struct {
	inner guard.LivenessChecker
	wg    sync.WaitGroup
}

func newGatedLiveness(inner guard.LivenessChecker, n int) *gatedLiveness {
	g := &gatedLiveness{inner: inner}
	g.wg.Add(n)
	return g
}

func (g *gatedLiveness) Exists(ctx context.Context, tokenID string) (bool, error) {
	ok, err := g.inner.Exists(ctx, tokenID)
	g.wg.Done()
	g.wg.Wait()
	return ok, err
}

func TestExchange_ConcurrentRefreshRotatesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "pw", nil)

	first, err := f.tokens.Exchange(ctx, service.TokenRequest{
		GrantType: domain.GrantPassword,
		Username:  "alice",
		Password:  "pw",
	})
	require.NoError(t, err)

	const callers = 2
	f.tokens.Validator = guard.NewValidator(f.km.Verifier, newGatedLiveness(f.revoke, callers))

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = f.tokens.Exchange(ctx, service.TokenRequest{
				GrantType:    domain.GrantRefreshToken,
				RefreshToken: first.RefreshToken,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, errs.ErrTokenRevoked)
	}
	require.Equal(t, 1, succeeded)
}
