package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
	"github.com/aussiebroadwan/tokentrust/internal/auth/service"
	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues RS256 access tokens, and refresh tokens for the password and refresh_token grants.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(password, client_credentials, refresh_token)
//	@Param			client_id		formData	string					false	"Client identifier (required for client_credentials)"
//	@Param			client_secret	formData	string					false	"Client secret (required for client_credentials)"
//	@Param			username		formData	string					false	"Username (required for password)"
//	@Param			password		formData	string					false	"Password (required for password)"
//	@Param			refresh_token	formData	string					false	"Refresh token (required for refresh_token)"
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, scope, issued_at"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description, code"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description, code"
//	@Failure		403				{object}	authsdk.ErrorResponse	"error, error_description, code"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description, code"
//	@Failure		503				{object}	authsdk.ErrorResponse	"error, error_description, code"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	req := service.TokenRequest{
		GrantType:    domain.ParseGrantType(r.PostForm.Get("grant_type")),
		ClientID:     strings.TrimSpace(r.PostForm.Get("client_id")),
		ClientSecret: r.PostForm.Get("client_secret"),
		Username:     strings.TrimSpace(r.PostForm.Get("username")),
		Password:     r.PostForm.Get("password"),
		Scope:        strings.TrimSpace(r.PostForm.Get("scope")),
		RefreshToken: strings.TrimSpace(r.PostForm.Get("refresh_token")),
	}

	// 3. Client credentials may arrive by HTTP Basic instead of the body
	if id, secret, ok := r.BasicAuth(); ok && req.ClientID == "" {
		req.ClientID = id
		req.ClientSecret = secret
	}

	// 4. Run the grant
	pair, err := h.TokenService.Exchange(ctx, req)
	if err != nil {
		if errs.KindOf(err) == errs.KindSystem {
			log.Error("token request failed", "grant_type", req.GrantType.String(), "err", err)
		} else {
			log.Info("token request rejected", "grant_type", req.GrantType.String(), "err", err)
		}
		writeTokenError(w, req.GrantType, err)
		return
	}

	response := authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
		IssuedAt:     pair.IssuedAt.Unix(),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

// writeTokenError answers a failed grant. A bad refresh token is an
// invalid_grant per RFC 6749 section 5.2, not an invalid_token.
func writeTokenError(w http.ResponseWriter, grant domain.GrantType, err error) {
	oe := authsdk.FromError(err)
	if grant == domain.GrantRefreshToken && errs.KindOf(err) == errs.KindToken {
		oe.StatusCode = http.StatusBadRequest
		oe.Code = authsdk.ErrorCodeInvalidGrant
	}
	if oe.Code == authsdk.ErrorCodeInvalidClient {
		w.Header().Set("WWW-Authenticate", `Basic realm="tokentrust"`)
	}
	oe.WriteError(w)
}
