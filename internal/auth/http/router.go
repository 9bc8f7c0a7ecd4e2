package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/auth/service"
	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"

	_ "github.com/aussiebroadwan/tokentrust/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	revocations revocation.Store

	TokenService *service.TokenService

	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	revocations revocation.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		revocations:  revocations,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// Use appends a middleware. Middlewares added later sit closer to the mux,
// so request metrics see the matched route pattern.
func (r *Router) Use(mw httpx.Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TokenTrust Issuer API
//	@version		0.1.0
//	@description	OAuth2 style token endpoint issuing RS256 signed JWT access and refresh tokens.
//	@description
//	@description				Tokens can be verified offline using the JWKS endpoint; liveness is checked against the shared revocation store.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tokentrust
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /token - strict rate limit by IP (covers all grant types)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /revoke - moderate rate limit
	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(httpx.LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.revocations, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}
