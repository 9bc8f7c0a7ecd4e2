package httpx

import (
	"context"

	"github.com/aussiebroadwan/tokentrust/internal/guard"
)

type principalKey struct{}

func contextWithPrincipal(ctx context.Context, p *guard.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by AuthnMiddleware.
func PrincipalFromContext(ctx context.Context) (*guard.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*guard.Principal)
	return p, ok && p != nil
}
