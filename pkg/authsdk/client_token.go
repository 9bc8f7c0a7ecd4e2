package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// PasswordGrant requests an access and refresh token for a user.
func (c *SDKClient) PasswordGrant(
	ctx context.Context,
	clientID, clientSecret, username, password string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	setClient(data, clientID, clientSecret)
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant exchanges a refresh token for a new pair. The presented
// refresh token is retired by the server.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	clientID, clientSecret, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	setClient(data, clientID, clientSecret)

	return c.requestToken(ctx, data)
}

// ClientCredentialsGrant requests an access token for the client itself.
//
// Note: This grant does NOT return a refresh token, clients can
// re-authenticate anytime.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// RevokeToken revokes an access or refresh token. The server answers 200
// for unknown and invalid tokens too.
func (c *SDKClient) RevokeToken(ctx context.Context, token string) error {
	data := url.Values{"token": {token}}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/oauth2/revoke",
		strings.NewReader(data.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil, http.StatusOK)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/oauth2/token",
		strings.NewReader(data.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

func setClient(data url.Values, clientID, clientSecret string) {
	if clientID != "" {
		data.Set("client_id", clientID)
	}
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}
}
