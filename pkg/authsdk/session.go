package authsdk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNoRefreshToken is returned when an expired session cannot refresh.
var ErrNoRefreshToken = errors.New("access token expired and no refresh token available")

// expiryBuffer refreshes slightly before the server would reject the token.
const expiryBuffer = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	clientID     string
	clientSecret string
	expiresAt    time.Time
	scopes       map[string]bool
}

func newSession(client *SDKClient, clientID, clientSecret string, tokenResp *TokenResponse) *Session {
	s := &Session{client: client, clientID: clientID, clientSecret: clientSecret}
	s.apply(tokenResp)
	return s
}

func (s *Session) apply(tokenResp *TokenResponse) {
	s.accessToken = tokenResp.AccessToken
	s.refreshToken = tokenResp.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - expiryBuffer)
	s.scopes = parseScopes(tokenResp.Scope)
}

// Revoke revokes both tokens held by the session.
func (s *Session) Revoke(ctx context.Context) error {
	s.mu.RLock()
	access, refresh := s.accessToken, s.refreshToken
	s.mu.RUnlock()

	if err := s.client.RevokeToken(ctx, access); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if refresh == "" {
		return nil
	}
	if err := s.client.RevokeToken(ctx, refresh); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Refresh forces a refresh grant regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func parseScopes(scopeStr string) map[string]bool {
	parts := strings.Fields(scopeStr)
	scopes := make(map[string]bool, len(parts))
	for _, scope := range parts {
		scopes[scope] = true
	}
	return scopes
}

// getValidToken returns a valid access token, refreshing it if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}

	tokenResp, err := s.client.RefreshGrant(ctx, s.clientID, s.clientSecret, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	s.apply(tokenResp)
	return nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// HasScope returns true if the session has the specified scope.
func (s *Session) HasScope(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scopes[scope]
}
