package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the tokentrust issuer. ResourceURL is only
// needed for Session calls against the resource service.
type SDKClient struct {
	BaseURL     string
	ResourceURL string
	HTTPClient  *http.Client
}

// NewSDKClient creates a new issuer client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithPassword creates a session using the password grant.
// clientID and clientSecret may be empty.
func (c *SDKClient) AuthenticateWithPassword(
	ctx context.Context,
	clientID, clientSecret, username, password string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.PasswordGrant(ctx, clientID, clientSecret, username, password, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, clientID, clientSecret, tokenResp), nil
}

// AuthenticateWithClientCredentials creates a session using the client
// credentials grant. The session cannot refresh and must be recreated once
// the access token expires.
func (c *SDKClient) AuthenticateWithClientCredentials(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.ClientCredentialsGrant(ctx, clientID, clientSecret, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, clientID, clientSecret, tokenResp), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken, scope string, expiresIn int) *Session {
	return newSession(c, "", "", &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Scope:        scope,
		ExpiresIn:    expiresIn,
	})
}
