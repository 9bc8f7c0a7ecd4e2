package http

import (
	"net/http"

	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
)

// MeHandler echoes the principal the token resolved to.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFromContext(r.Context())

	httpx.WriteJSON(w, http.StatusOK, authsdk.PrincipalResponse{
		Subject:     p.Subject,
		Email:       p.Email,
		Name:        p.Name,
		Roles:       p.Roles,
		Scopes:      p.Scopes,
		Permissions: p.Permissions,
		IsAdmin:     p.IsAdmin,
		TokenID:     p.TokenID,
		ExpiresAt:   p.ExpiresAt,
	})
}
