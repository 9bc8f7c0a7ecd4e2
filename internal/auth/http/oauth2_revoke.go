package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokentrust/internal/auth/service"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
)

// RevokeHandler serves POST /v1/oauth2/revoke following RFC 7009. Access and
// refresh tokens are both revocable. Invalid, expired and unknown tokens
// answer 200 OK so the endpoint cannot be used to probe for live tokens.
type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Removes the liveness entry of an access or refresh token. Expired and unknown tokens are accepted and answered with 200.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token	formData	string	true	"The token to revoke"
//	@Success		200		"Token revoked (or was already invalid)"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		503		{object}	authsdk.ErrorResponse	"error, error_description, code"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Header			200		{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	token := strings.TrimSpace(r.PostForm.Get("token"))
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Only a store outage is reported; the service has already logged it
	if err := h.TokenService.Revoke(ctx, token); err != nil {
		authsdk.FromError(err).WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
