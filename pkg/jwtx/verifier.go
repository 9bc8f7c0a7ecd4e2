package jwtx

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)

	// VerifySignature checks only structure and signature. Expiry and
	// audience are ignored so an expired token can still be identified,
	// which is what revocation needs.
	VerifySignature(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/iat.
	Leeway time.Duration

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrTokenType    = errors.New("jwtx: wrong token type")
)

// RS256Verifier validates JWTs signed using RS256.
type RS256Verifier struct {
	keys *KeySet
	opts VerifyOptions
}

// NewVerifierRS256 creates a verifier using a KeySet of RSA public keys.
func NewVerifierRS256(keys *KeySet, opts VerifyOptions) *RS256Verifier {
	return &RS256Verifier{keys: keys, opts: opts}
}

// Verify validates signature first, then exp/iss/aud, and returns the claims.
func (v *RS256Verifier) Verify(tokenStr string) (Claims, error) {
	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.opts.Leeway),
	}
	if v.opts.Now != nil {
		popts = append(popts, jwt.WithTimeFunc(v.opts.Now))
	}

	claims, err := v.parse(tokenStr, popts...)
	if err != nil {
		return Claims{}, err
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	// jwt.WithAudience only takes one value; we accept any of several.
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

// VerifySignature implements Verifier.
func (v *RS256Verifier) VerifySignature(tokenStr string) (Claims, error) {
	claims, err := v.parse(tokenStr,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

func (v *RS256Verifier) parse(tokenStr string, popts ...jwt.ParserOption) (*Claims, error) {
	parser := jwt.NewParser(popts...)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, v.keyFunc)
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}
	return claims, nil
}

func (v *RS256Verifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)

	var (
		pub *rsa.PublicKey
		err error
	)
	if kid == "" {
		// Tokens without a kid are accepted only when there is a single key.
		pub, err = v.keys.Only()
	} else {
		pub, err = v.keys.Get(kid)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownKID, kid, err)
	}
	return pub, nil
}

// mapParseError collapses golang-jwt's joined errors into our sentinels.
// The parser checks the signature before any claim, so a forged expired
// token reports ErrInvalidSig rather than ErrExpired.
func mapParseError(err error) error {
	var sentinel error
	switch {
	case errors.Is(err, ErrUnknownKID):
		sentinel = ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenMalformed):
		sentinel = ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		sentinel = ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		sentinel = ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenExpired):
		sentinel = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		sentinel = ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		sentinel = ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		sentinel = ErrAudience
	default:
		sentinel = ErrInvalidClaim
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
