package authsdk

import (
	"context"
	"errors"
	"net/http"
)

// ErrEmptyKeySet is returned when the issuer publishes no verification keys.
var ErrEmptyKeySet = errors.New("authsdk: issuer published an empty key set")

// GetJWKS fetches the issuer's public signing keys so a resource service can
// verify access tokens without sharing the private key.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}
	if len(jwks.Keys) == 0 {
		return nil, ErrEmptyKeySet
	}
	return &jwks, nil
}
