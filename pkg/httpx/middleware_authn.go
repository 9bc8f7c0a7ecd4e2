package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// TokenValidator is satisfied by *guard.Validator.
type TokenValidator interface {
	Validate(ctx context.Context, raw string, want jwtx.TokenType) (*guard.Principal, error)
}

// AuthnMiddleware requires a live access token in the Authorization header
// and stores the resulting principal in the request context.
func AuthnMiddleware(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, errs.ErrMalformedToken.WithMessage("missing bearer token"))
				return
			}

			p, err := v.Validate(ctx, raw, jwtx.TokenTypeAccess)
			if err != nil {
				e := errs.As(err)
				if e.Kind == errs.KindSystem {
					log.Error("token validation unavailable", "err", err)
				} else {
					log.Warn("token rejected", "code", e.Code, "err", err)
				}
				writeBearerError(w, e)
				return
			}

			ctx = slogx.With(ctx, "sub", p.Subject)
			next.ServeHTTP(w, r.WithContext(contextWithPrincipal(ctx, p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// writeBearerError answers RFC 6750 style. System failures are not the
// caller's fault and carry no invalid_token challenge.
func writeBearerError(w http.ResponseWriter, e *errs.Error) {
	oe := authsdk.FromError(e)
	if e.Kind != errs.KindSystem {
		w.Header().Set("WWW-Authenticate",
			`Bearer error="`+oe.Code+`", error_description="`+oe.Description+`"`)
	}
	oe.WriteError(w)
}
