package service

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// Token is a signed JWT together with the facts the caller needs about it.
type Token struct {
	Raw       string
	ID        string // jti
	Type      jwtx.TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn is the token's full validity window.
func (t Token) ExpiresIn() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}

// IssueOptions tunes a single issuance. Zero TTL means the issuer default.
type IssueOptions struct {
	Scope string
	TTL   time.Duration
}

// Issuer signs tokens and registers each one as live. A token whose
// registration fails is never handed out.
type Issuer struct {
	KeyManager  *jwtx.KeyManager
	Revocations revocation.Store

	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time
}

func (s *Issuer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssueAccessToken mints an access token enriched with the user's
// profile, roles, permissions and admin flag.
func (s *Issuer) IssueAccessToken(ctx context.Context, u domain.User, opts IssueOptions) (Token, error) {
	if !u.CanReceiveToken() {
		return Token{}, errs.ErrUserNotAuthorizedForToken
	}

	claims := jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject:     u.Username,
		Email:       u.Email,
		Name:        u.Name,
		Roles:       u.Roles,
		Scope:       opts.Scope,
		Permissions: u.Permissions(),
		IsAdmin:     u.IsAdmin(),
	}, ttlOr(opts.TTL, s.AccessTTL), s.Issuer, s.Audience, s.now())

	return s.sign(ctx, claims)
}

// IssueRefreshToken mints a refresh token carrying only the subject.
func (s *Issuer) IssueRefreshToken(ctx context.Context, u domain.User, opts IssueOptions) (Token, error) {
	if !u.CanReceiveToken() {
		return Token{}, errs.ErrUserNotAuthorizedForToken
	}

	claims := jwtx.NewRefreshClaims(u.Username, ttlOr(opts.TTL, s.RefreshTTL), s.Issuer, s.Audience, s.now())
	return s.sign(ctx, claims)
}

// IssueClientToken mints an access token whose subject is the client.
func (s *Issuer) IssueClientToken(ctx context.Context, c domain.Client, scope []string) (Token, error) {
	claims := jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject: c.ID,
		Name:    c.Name,
		Scope:   strings.Join(scope, " "),
	}, c.AccessTTL(s.AccessTTL), s.Issuer, s.Audience, s.now())

	return s.sign(ctx, claims)
}

func (s *Issuer) sign(ctx context.Context, claims jwtx.Claims) (Token, error) {
	l := slogx.FromContext(ctx)

	if !s.KeyManager.CanSign() {
		return Token{}, errs.ErrKeyMaterial.WithMessage("no signing key loaded")
	}

	raw, err := s.KeyManager.GetSigner().Sign(claims)
	if err != nil {
		l.Error("failed to sign token", "token_type", claims.TokenType, "err", err)
		return Token{}, errs.ErrKeyMaterial.Wrap(err)
	}

	ttl := claims.TTL(claims.IssuedAt.Time)
	if err := s.Revocations.Put(ctx, claims.ID, claims.Subject, ttl); err != nil {
		l.Error("failed to register token", "jti", claims.ID, "err", err)
		return Token{}, errs.ErrRevocationStore.Wrap(err)
	}

	return Token{
		Raw:       raw,
		ID:        claims.ID,
		Type:      claims.TokenType,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func ttlOr(ttl, def time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return def
}
