// Package http serves the demo resource API. Every /v1 route requires a
// live access token and a permit from the guard Enforcer.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/guard"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/resource/store"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// ResourceStore is satisfied by *store.Memory.
type ResourceStore interface {
	List(ctx context.Context) ([]store.Resource, error)
	Create(ctx context.Context, name, owner string) (store.Resource, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context) (store.Summary, error)
}

type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	validator httpx.TokenValidator
	enforcer  httpx.Authorizer
	resources ResourceStore

	keys         *jwtx.KeySet
	revocations  revocation.Store
	buildVersion string
	startTime    time.Time

	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(
	validator httpx.TokenValidator,
	enforcer httpx.Authorizer,
	resources ResourceStore,
	keys *jwtx.KeySet,
	revocations revocation.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	if enforcer == nil {
		enforcer = guard.NewEnforcer(nil)
	}
	return &Router{
		Mux:          http.NewServeMux(),
		middlewares:  []httpx.Middleware{slogx.HTTPMiddleware(logger)},
		validator:    validator,
		enforcer:     enforcer,
		resources:    resources,
		keys:         keys,
		revocations:  revocations,
		buildVersion: buildVersion,
		startTime:    time.Now(),
	}
}

// Use appends a middleware closer to the mux than the request logger.
func (r *Router) Use(mw httpx.Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	h := &ResourceHandler{Store: r.resources}

	r.Mux.Handle("GET /v1/me", r.secured(http.HandlerFunc(MeHandler), guard.ScopeRead))
	r.Mux.Handle("GET /v1/resources", r.secured(http.HandlerFunc(h.HandleList), guard.ScopeRead))
	r.Mux.Handle("POST /v1/resources", r.secured(http.HandlerFunc(h.HandleCreate), guard.ScopeWrite))
	r.Mux.Handle("DELETE /v1/resources/{id}", r.secured(http.HandlerFunc(h.HandleDelete), guard.ScopeDelete))
	r.Mux.Handle("GET /v1/admin/summary", r.secured(http.HandlerFunc(h.HandleSummary), guard.ScopeAdmin))

	r.Mux.Handle("GET /livez",
		httpx.Chain(httpx.LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.revocations, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}

// secured validates the bearer token, then enforces scope, then limits by
// subject.
func (r *Router) secured(h http.Handler, scope string) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.validator),
		httpx.RequirePermission(r.enforcer, scope),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
}
