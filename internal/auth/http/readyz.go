package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/auth/store"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe reporting the user store, the revocation store and the signing keys
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	revocations revocation.Store,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())
		checks := &authsdk.HealthChecks{
			Database:   "ok",
			Revocation: "ok",
			Keys:       "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := st.Ping(r.Context()); err != nil {
			log.Warn("readiness: database ping failed", "err", err)
			checks.Database = "error: unreachable"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check the shared revocation store
		if err := revocations.Ping(r.Context()); err != nil {
			log.Warn("readiness: revocation store ping failed", "err", err)
			checks.Revocation = "error: unreachable"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check that verification keys are loaded
		if !keys.IsReady() {
			checks.Keys = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
