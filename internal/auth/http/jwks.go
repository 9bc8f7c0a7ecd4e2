package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/tokentrust/pkg/authsdk"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
)

// JWKSHandler publishes the RSA verification key so resource services can
// check signatures without sharing a key file.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify JWTs.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
