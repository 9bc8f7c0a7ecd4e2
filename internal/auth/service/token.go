package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/internal/metrics"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// TokenRequest is a token endpoint call after the grant type has been
// parsed. Fields not used by the grant are ignored.
type TokenRequest struct {
	GrantType    domain.GrantType
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scope        string
	RefreshToken string
}

// TokenService dispatches token requests by grant type and owns revocation.
type TokenService struct {
	Authenticator *Authenticator
	Issuer        *Issuer
	Validator     *guard.Validator
	Verifier      jwtx.Verifier
	Revocations   revocation.Store
	Users         store.Users
	Metrics       metrics.TokenMetrics
}

func (s *TokenService) metrics() metrics.TokenMetrics {
	if s.Metrics == nil {
		return metrics.NoOp{}
	}
	return s.Metrics
}

// Exchange runs the grant named by req.GrantType. Required fields are
// checked before any credential or store lookup.
func (s *TokenService) Exchange(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	start := time.Now()

	pair, err := s.exchange(ctx, req)

	status, reason := metrics.StatusSuccess, ""
	if err != nil {
		status, reason = metrics.StatusError, errs.As(err).Code
	}
	op := "issue"
	if req.GrantType == domain.GrantRefreshToken {
		op = "refresh"
	}
	s.metrics().RecordOperation(ctx, op, req.GrantType.String(), status, reason)
	s.metrics().RecordDuration(ctx, op, time.Since(start), status)

	return pair, err
}

func (s *TokenService) exchange(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	switch req.GrantType {
	case domain.GrantClientCredentials:
		return s.exchangeClientCredentials(ctx, req)
	case domain.GrantPassword:
		return s.exchangePassword(ctx, req)
	case domain.GrantRefreshToken:
		return s.exchangeRefreshToken(ctx, req)
	default:
		return nil, errs.ErrUnsupportedGrantType
	}
}

// exchangeClientCredentials issues an access token whose subject is the
// client. No refresh token is issued; the client can always
// re-authenticate.
func (s *TokenService) exchangeClientCredentials(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	if err := requireFields("client_id", req.ClientID, "client_secret", req.ClientSecret); err != nil {
		return nil, err
	}

	c, err := s.Authenticator.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !c.AllowsGrant(domain.GrantClientCredentials) {
		return nil, errs.ErrUnauthorizedGrant
	}

	scope := c.Scopes
	if requested := splitScope(req.Scope); len(requested) > 0 {
		scope = intersectScopes(requested, c.Scopes)
		if len(scope) != len(dedupe(requested)) {
			slogx.FromContext(ctx).Info("client requested scope outside its allowance",
				slog.String("client_id", c.ID),
				slog.String("scope", req.Scope),
			)
			return nil, errs.ErrInvalidScope
		}
	}

	access, err := s.Issuer.IssueClientToken(ctx, c, scope)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken: access.Raw,
		TokenType:   "Bearer",
		ExpiresIn:   access.ExpiresIn(),
		Scope:       strings.Join(scope, " "),
		IssuedAt:    access.IssuedAt,
	}, nil
}

// exchangePassword authenticates the user and, when a client id is given,
// the client as well.
func (s *TokenService) exchangePassword(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	if err := requireFields("username", req.Username, "password", req.Password); err != nil {
		return nil, err
	}

	client, err := s.optionalClient(ctx, req, domain.GrantPassword)
	if err != nil {
		return nil, err
	}

	u, err := s.Authenticator.AuthenticateUser(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	scope := strings.Join(splitScope(req.Scope), " ")
	if scope == "" && client != nil {
		scope = client.ScopeString()
	}

	return s.issuePair(ctx, u, client, scope)
}

// exchangeRefreshToken validates the presented refresh token including its
// liveness, rotates it and issues a fresh pair. Permissions are recomputed
// from the user's current roles.
func (s *TokenService) exchangeRefreshToken(ctx context.Context, req TokenRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if err := requireFields("refresh_token", req.RefreshToken); err != nil {
		return nil, err
	}

	client, err := s.optionalClient(ctx, req, domain.GrantRefreshToken)
	if err != nil {
		return nil, err
	}

	p, err := s.Validator.Validate(ctx, req.RefreshToken, jwtx.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	u, err := s.Users.GetUserByUsername(ctx, p.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("refresh token subject no longer exists", "subject", p.Subject)
			return nil, errs.ErrUserNotFound
		}
		return nil, errs.ErrInternal.Wrap(err)
	}
	if !u.CanReceiveToken() {
		l.Info("refresh refused for ineligible user", "user_id", u.ID)
		return nil, errs.ErrUserNotAuthorizedForToken
	}

	// Delete is the rotation point: of two concurrent refreshes with the
	// same token only one sees the entry go away.
	existed, err := s.Revocations.Delete(ctx, p.TokenID)
	if err != nil {
		l.Error("failed to retire refresh token", "jti", p.TokenID, "err", err)
		return nil, errs.ErrRevocationStore.Wrap(err)
	}
	if !existed {
		l.Info("refresh token already rotated", "jti", p.TokenID)
		return nil, errs.ErrTokenRevoked
	}

	scope := strings.Join(splitScope(req.Scope), " ")
	if scope == "" && client != nil {
		scope = client.ScopeString()
	}

	return s.issuePair(ctx, u, client, scope)
}

// Revoke removes the token's liveness entry. Only the signature is checked,
// so expired tokens can still be revoked. Invalid tokens and tokens that
// were never live are not errors; only a store failure is reported.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	start := time.Now()
	l := slogx.FromContext(ctx)

	err := func() error {
		claims, err := s.Verifier.VerifySignature(raw)
		if err != nil {
			l.Debug("ignoring revocation of unverifiable token", "err", err)
			return nil
		}
		if claims.ID == "" {
			return nil
		}

		existed, err := s.Revocations.Delete(ctx, claims.ID)
		if err != nil {
			l.Error("failed to revoke token", "jti", claims.ID, "err", err)
			return errs.ErrRevocationStore.Wrap(err)
		}
		l.Info("token revoked", "jti", claims.ID, "subject", claims.Subject, "existed", existed)
		return nil
	}()

	status, reason := metrics.StatusSuccess, ""
	if err != nil {
		status, reason = metrics.StatusError, errs.As(err).Code
	}
	s.metrics().RecordOperation(ctx, "revoke", "", status, reason)
	s.metrics().RecordDuration(ctx, "revoke", time.Since(start), status)

	return err
}

// optionalClient authenticates the client when the request names one.
func (s *TokenService) optionalClient(ctx context.Context, req TokenRequest, grant domain.GrantType) (*domain.Client, error) {
	if req.ClientID == "" {
		return nil, nil
	}

	c, err := s.Authenticator.AuthenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !c.AllowsGrant(grant) {
		return nil, errs.ErrUnauthorizedGrant
	}
	return &c, nil
}

func (s *TokenService) issuePair(ctx context.Context, u domain.User, client *domain.Client, scope string) (*domain.TokenPair, error) {
	accessOpts := IssueOptions{Scope: scope}
	refreshOpts := IssueOptions{}
	if client != nil {
		accessOpts.TTL = client.AccessTTL(0)
		refreshOpts.TTL = client.RefreshTTL(0)
	}

	access, err := s.Issuer.IssueAccessToken(ctx, u, accessOpts)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Issuer.IssueRefreshToken(ctx, u, refreshOpts)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access.Raw,
		RefreshToken: refresh.Raw,
		TokenType:    "Bearer",
		ExpiresIn:    access.ExpiresIn(),
		Scope:        scope,
		IssuedAt:     access.IssuedAt,
	}, nil
}

// requireFields takes name/value pairs and reports the first empty value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return errs.MissingField(pairs[i])
		}
	}
	return nil
}

func splitScope(scope string) []string {
	return dedupe(strings.Fields(scope))
}

func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
