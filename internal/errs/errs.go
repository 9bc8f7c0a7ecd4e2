// Package errs is the error taxonomy shared by the issuer and verifiers.
// Every failure that reaches a caller is an *Error with a Kind and a stable
// code; the HTTP layer derives the status and OAuth2 error string from it.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by who is at fault and how they are reported.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindToken
	KindClient
	KindValidation
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindToken:
		return "token"
	case KindClient:
		return "client"
	case KindValidation:
		return "validation"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Sentinels below are compared with
// errors.Is; wrapped instances keep matching their sentinel by code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func newErr(kind Kind, code string, status int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: msg}
}

var (
	ErrInvalidCredentials        = newErr(KindAuthentication, "AUTH-001", http.StatusUnauthorized, "invalid credentials")
	ErrUserNotFound              = newErr(KindAuthentication, "AUTH-002", http.StatusUnauthorized, "user not found")
	ErrAccountDisabled           = newErr(KindAuthentication, "AUTH-003", http.StatusUnauthorized, "account disabled")
	ErrAccountLocked             = newErr(KindAuthentication, "AUTH-004", http.StatusUnauthorized, "account locked")
	ErrUserNotAuthorizedForToken = newErr(KindAuthentication, "AUTH-005", http.StatusForbidden, "user not authorized to receive tokens")

	ErrInvalidSignature = newErr(KindToken, "TOKEN-001", http.StatusUnauthorized, "invalid token signature")
	ErrTokenExpired     = newErr(KindToken, "TOKEN-002", http.StatusUnauthorized, "token expired")
	ErrTokenRevoked     = newErr(KindToken, "TOKEN-003", http.StatusUnauthorized, "token revoked or unknown")
	ErrMalformedToken   = newErr(KindToken, "TOKEN-004", http.StatusUnauthorized, "malformed token")
	ErrWrongTokenType   = newErr(KindToken, "TOKEN-005", http.StatusUnauthorized, "wrong token type")

	ErrClientNotFound       = newErr(KindClient, "CLIENT-001", http.StatusUnauthorized, "client not found")
	ErrClientDisabled       = newErr(KindClient, "CLIENT-002", http.StatusUnauthorized, "client disabled")
	ErrInvalidClientSecret  = newErr(KindClient, "CLIENT-003", http.StatusUnauthorized, "invalid client secret")
	ErrUnsupportedGrantType = newErr(KindClient, "CLIENT-004", http.StatusBadRequest, "unsupported grant type")
	ErrUnauthorizedGrant    = newErr(KindClient, "CLIENT-005", http.StatusBadRequest, "grant type not allowed for client")

	ErrMissingRequiredField = newErr(KindValidation, "VALIDATION-002", http.StatusBadRequest, "missing required field")
	ErrInvalidScope         = newErr(KindValidation, "VALIDATION-003", http.StatusBadRequest, "invalid scope")

	ErrKeyMaterial     = newErr(KindSystem, "SYSTEM-001", http.StatusInternalServerError, "key material unavailable")
	ErrRevocationStore = newErr(KindSystem, "SYSTEM-002", http.StatusServiceUnavailable, "revocation store unavailable")
	ErrInternal        = newErr(KindSystem, "SYSTEM-003", http.StatusInternalServerError, "internal error")
)

// MissingField reports which required field was absent.
func MissingField(name string) *Error {
	return ErrMissingRequiredField.WithMessage("missing required field: %s", name)
}

// As extracts the *Error from err. Unclassified errors become ErrInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}

// KindOf classifies err; unclassified errors are KindSystem.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	return As(err).Kind
}

// OAuthCode is the RFC 6749 / RFC 6750 error string for e.
func (e *Error) OAuthCode() string {
	switch e.Code {
	case ErrUnsupportedGrantType.Code:
		return "unsupported_grant_type"
	case ErrUnauthorizedGrant.Code:
		return "unauthorized_client"
	case ErrInvalidScope.Code:
		return "invalid_scope"
	case ErrRevocationStore.Code:
		return "temporarily_unavailable"
	case ErrUserNotAuthorizedForToken.Code:
		return "access_denied"
	}

	switch e.Kind {
	case KindAuthentication:
		return "invalid_grant"
	case KindToken:
		return "invalid_token"
	case KindClient:
		return "invalid_client"
	case KindValidation:
		return "invalid_request"
	default:
		return "server_error"
	}
}

// PublicMessage hides details of system errors from callers.
func (e *Error) PublicMessage() string {
	if e.Kind == KindSystem {
		return "the server encountered an internal error"
	}
	return e.Message
}
