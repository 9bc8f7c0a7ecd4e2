package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/pkg/cryptox"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// Authenticator checks principals against stored credentials. Account
// status is always checked before the secret, so a locked or disabled
// account fails the same way whether or not the password was right.
type Authenticator struct {
	Store store.Store
}

// AuthenticateUser returns the user for a matching username and password.
func (a *Authenticator) AuthenticateUser(ctx context.Context, username, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	u, err := a.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, errs.ErrUserNotFound
		}
		l.Error("user lookup failed", "username", username, "err", err)
		return domain.User{}, errs.ErrInternal.Wrap(err)
	}

	switch {
	case u.Locked:
		l.Info("authentication refused for locked account", "user_id", u.ID)
		return domain.User{}, errs.ErrAccountLocked
	case !u.Enabled:
		l.Info("authentication refused for disabled account", "user_id", u.ID)
		return domain.User{}, errs.ErrAccountDisabled
	}

	if err := checkSecret(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("password mismatch", "user_id", u.ID)
			return domain.User{}, errs.ErrInvalidCredentials
		}
		l.Error("password verification failed", "user_id", u.ID, "err", err)
		return domain.User{}, errs.ErrInternal.Wrap(err)
	}

	return u, nil
}

// AuthenticateClient returns the client for a matching id and secret.
// Clients without a stored secret can never authenticate this way.
func (a *Authenticator) AuthenticateClient(ctx context.Context, clientID, secret string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	c, err := a.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, errs.ErrClientNotFound
		}
		l.Error("client lookup failed", "client_id", clientID, "err", err)
		return domain.Client{}, errs.ErrInternal.Wrap(err)
	}

	if !c.Enabled {
		l.Info("authentication refused for disabled client", "client_id", c.ID)
		return domain.Client{}, errs.ErrClientDisabled
	}

	if c.SecretHash == "" {
		l.Warn("client has no secret configured", "client_id", c.ID)
		return domain.Client{}, errs.ErrInvalidClientSecret
	}

	if err := checkSecret(secret, c.SecretHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("client secret mismatch", "client_id", c.ID)
			return domain.Client{}, errs.ErrInvalidClientSecret
		}
		l.Error("client secret verification failed", "client_id", c.ID, "err", err)
		return domain.Client{}, errs.ErrInternal.Wrap(err)
	}

	return c, nil
}

// checkSecret treats an empty presented secret as a mismatch without
// running the hash.
func checkSecret(presented, encoded string) error {
	if presented == "" {
		return cryptox.ErrPasswordMismatch
	}
	return cryptox.VerifyPassword(presented, encoded)
}
