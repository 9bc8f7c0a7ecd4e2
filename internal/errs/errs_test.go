package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", errs.ErrTokenExpired.Wrap(errors.New("exp in the past")))

	require.ErrorIs(t, wrapped, errs.ErrTokenExpired)
	require.NotErrorIs(t, wrapped, errs.ErrTokenRevoked)
	require.Equal(t, errs.KindToken, errs.KindOf(wrapped))
	require.Contains(t, wrapped.Error(), "TOKEN-002")
}

func TestMissingField(t *testing.T) {
	err := errs.MissingField("username")

	require.ErrorIs(t, err, errs.ErrMissingRequiredField)
	require.Equal(t, "missing required field: username", err.Message)
	require.Equal(t, "invalid_request", err.OAuthCode())
	require.Equal(t, http.StatusBadRequest, err.Status)
}

func TestAsUnclassifiedIsSystem(t *testing.T) {
	cause := errors.New("disk on fire")
	e := errs.As(cause)

	require.Equal(t, errs.KindSystem, e.Kind)
	require.ErrorIs(t, e, cause)
	require.Equal(t, "server_error", e.OAuthCode())
	require.NotContains(t, e.PublicMessage(), "disk")
	require.Nil(t, errs.As(nil))
	require.Equal(t, errs.KindUnknown, errs.KindOf(nil))
}

func TestOAuthCodes(t *testing.T) {
	tests := []struct {
		err    *errs.Error
		code   string
		status int
	}{
		{errs.ErrInvalidCredentials, "invalid_grant", http.StatusUnauthorized},
		{errs.ErrAccountLocked, "invalid_grant", http.StatusUnauthorized},
		{errs.ErrUserNotAuthorizedForToken, "access_denied", http.StatusForbidden},
		{errs.ErrTokenRevoked, "invalid_token", http.StatusUnauthorized},
		{errs.ErrClientDisabled, "invalid_client", http.StatusUnauthorized},
		{errs.ErrUnsupportedGrantType, "unsupported_grant_type", http.StatusBadRequest},
		{errs.ErrUnauthorizedGrant, "unauthorized_client", http.StatusBadRequest},
		{errs.ErrInvalidScope, "invalid_scope", http.StatusBadRequest},
		{errs.ErrRevocationStore, "temporarily_unavailable", http.StatusServiceUnavailable},
		{errs.ErrKeyMaterial, "server_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			require.Equal(t, tt.code, tt.err.OAuthCode())
			require.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "validation", errs.KindValidation.String())
	require.Equal(t, "system", errs.ErrInternal.Kind.String())
}
