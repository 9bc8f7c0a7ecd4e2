package guard

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/errs"
	"github.com/aussiebroadwan/tokentrust/internal/metrics"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
	"github.com/aussiebroadwan/tokentrust/pkg/slogx"
)

// LivenessChecker is the slice of revocation.Store the validator needs.
type LivenessChecker interface {
	Exists(ctx context.Context, tokenID string) (bool, error)
}

// Validator checks a token in a fixed order and stops at the first failure:
// structure and signature, expiry, token type, then liveness in the
// revocation store. The store is never consulted for a token that failed
// an earlier step.
type Validator struct {
	verifier jwtx.Verifier
	live     LivenessChecker
	metrics  metrics.TokenMetrics
}

type ValidatorOption func(*Validator)

// WithMetrics records each validation outcome.
func WithMetrics(m metrics.TokenMetrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

func NewValidator(verifier jwtx.Verifier, live LivenessChecker, opts ...ValidatorOption) *Validator {
	v := &Validator{verifier: verifier, live: live, metrics: metrics.NoOp{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the principal for a live token of type want, or a
// *errs.Error describing the first failed step.
func (v *Validator) Validate(ctx context.Context, raw string, want jwtx.TokenType) (*Principal, error) {
	start := time.Now()
	p, err := v.validate(ctx, raw, want)

	status, reason := metrics.StatusSuccess, ""
	if err != nil {
		status, reason = metrics.StatusError, errs.As(err).Code
	}
	v.metrics.RecordOperation(ctx, "validate", string(want), status, reason)
	v.metrics.RecordDuration(ctx, "validate", time.Since(start), status)

	return p, err
}

func (v *Validator) validate(ctx context.Context, raw string, want jwtx.TokenType) (*Principal, error) {
	if raw == "" {
		return nil, errs.ErrMalformedToken.WithMessage("empty token")
	}

	claims, err := v.verifier.Verify(raw)
	if err != nil {
		return nil, ClassifyVerifyError(err)
	}

	if err := claims.ValidateTokenType(want); err != nil {
		return nil, errs.ErrWrongTokenType.
			WithMessage("expected %s token, got %q", want, claims.TokenType).
			Wrap(err)
	}

	if claims.ID == "" {
		return nil, errs.ErrTokenRevoked.WithMessage("token has no identifier")
	}

	live, err := v.live.Exists(ctx, claims.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("revocation store lookup failed", "jti", claims.ID, "err", err)
		return nil, errs.ErrRevocationStore.Wrap(err)
	}
	if !live {
		return nil, errs.ErrTokenRevoked
	}

	return principalFromClaims(claims), nil
}

// ClassifyVerifyError maps jwtx verification failures onto the token error
// taxonomy. Issuer, audience and other claim failures are reported as
// signature-class errors so callers learn nothing about which claim failed.
func ClassifyVerifyError(err error) *errs.Error {
	switch {
	case errors.Is(err, jwtx.ErrMalformed):
		return errs.ErrMalformedToken.Wrap(err)
	case errors.Is(err, jwtx.ErrExpired):
		return errs.ErrTokenExpired.Wrap(err)
	case errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrAlgMismatch),
		errors.Is(err, jwtx.ErrUnknownKID):
		return errs.ErrInvalidSignature.Wrap(err)
	default:
		return errs.ErrInvalidSignature.WithMessage("invalid token claims").Wrap(err)
	}
}
