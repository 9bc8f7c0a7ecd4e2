package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// Authorizer is satisfied by *guard.Enforcer.
type Authorizer interface {
	Authorize(p *guard.Principal, required string) guard.Decision
}

// RequirePermission lets the request through only when the enforcer
// permits the principal for scope. Must run after AuthnMiddleware.
func RequirePermission(a Authorizer, scope string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFromContext(r.Context())

			if a.Authorize(p, scope) == guard.Deny {
				slogx.FromContext(r.Context()).Info("authorization denied", "scope", scope)
				writeBearerScopeError(w, scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for bearer insufficient_scope.
func writeBearerScopeError(w http.ResponseWriter, scope string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
	authsdk.ErrInsufficientScope.WriteError(w)
}
