package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/tokentrust/internal/errs"
)

// OAuth2 error codes (RFC 6749 section 5.2, RFC 6750 section 3.1).
const (
	ErrorCodeInvalidRequest         = "invalid_request"
	ErrorCodeInvalidClient          = "invalid_client"
	ErrorCodeInvalidGrant           = "invalid_grant"
	ErrorCodeUnauthorizedClient     = "unauthorized_client"
	ErrorCodeUnsupportedGrantType   = "unsupported_grant_type"
	ErrorCodeInvalidScope           = "invalid_scope"
	ErrorCodeServerError            = "server_error"
	ErrorCodeInvalidToken           = "invalid_token"
	ErrorCodeTemporarilyUnavailable = "temporarily_unavailable"
	ErrorCodeInsufficientScope      = "insufficient_scope"
	ErrorCodeAccessDenied           = "access_denied"
)

// OAuth2Error is both the error the services write and the error the SDK
// returns for any non-2xx answer.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`

	// ErrorCode is the service error code, e.g. "TOKEN-003". Empty for
	// protocol errors raised before any domain logic ran.
	ErrorCode string `json:"code,omitempty"`
}

func (e *OAuth2Error) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.ErrorCode, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as an uncacheable JSON body.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
		Code:             e.ErrorCode,
	})
}

// NewOAuth2Error builds an error for cases not covered by errs.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: statusCode, Code: code, Description: description}
}

// Protocol errors raised by the HTTP layer before a request reaches the
// services.
var (
	ErrInvalidRequest     = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "the request is malformed or missing required parameters")
	ErrInvalidContentType = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "content-type must be application/x-www-form-urlencoded")
	ErrInvalidFormBody    = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid form body")
	ErrInsufficientScope  = NewOAuth2Error(http.StatusForbidden, ErrorCodeInsufficientScope, "the access token does not have the required scopes")
	ErrServerError        = NewOAuth2Error(http.StatusInternalServerError, ErrorCodeServerError, "internal server error")
)

// FromError maps a classified service error onto the OAuth2 wire format.
// Unclassified errors become server_error and never leak their message.
func FromError(err error) *OAuth2Error {
	e := errs.As(err)
	if e == nil {
		return nil
	}
	return &OAuth2Error{
		StatusCode:  e.Status,
		Code:        e.OAuthCode(),
		Description: e.PublicMessage(),
		ErrorCode:   e.Code,
	}
}

// parseErrorResponse turns a non-2xx response into an *OAuth2Error. Bodies
// that are not OAuth2 errors fall back to server_error with the status
// text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			ErrorCode:   errResp.Code,
		}
	}

	return NewOAuth2Error(resp.StatusCode, ErrorCodeServerError,
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
}
