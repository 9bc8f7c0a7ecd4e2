package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/httpx"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// ReadyzHandler reports not ready until the verification key is loaded and
// the revocation store answers; without either no token can be accepted.
func ReadyzHandler(startTime time.Time, version string, revocations revocation.Store, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Revocation: "ok", Keys: "ok"}
		status, code := "ok", http.StatusOK

		if err := revocations.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Warn("readiness: revocation store ping failed", "err", err)
			checks.Revocation = "error: unreachable"
			status, code = "degraded", http.StatusServiceUnavailable
		}
		if !keys.IsReady() {
			checks.Keys = "error: no keys loaded"
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
