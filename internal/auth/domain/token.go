package domain

import "time"

// TokenPair is what the token endpoint returns. RefreshToken is empty for
// grants that do not issue one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // always "Bearer"
	ExpiresIn    time.Duration
	Scope        string // space-delimited
	IssuedAt     time.Time
}
