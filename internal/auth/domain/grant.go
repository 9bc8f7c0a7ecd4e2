package domain

import "strings"

// GrantType is the closed set of token request kinds. Anything unknown
// parses to GrantUnsupported, which is terminal.
type GrantType string

const (
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client_credentials"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantUnsupported       GrantType = ""
)

// ParseGrantType matches case-insensitively.
func ParseGrantType(s string) GrantType {
	switch g := GrantType(strings.ToLower(strings.TrimSpace(s))); g {
	case GrantPassword, GrantClientCredentials, GrantRefreshToken:
		return g
	default:
		return GrantUnsupported
	}
}

func (g GrantType) String() string {
	if g == GrantUnsupported {
		return "unsupported"
	}
	return string(g)
}
