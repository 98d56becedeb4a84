package oidc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrNilParameter          = errors.New("nil parameter")
	ErrInvalidCACert         = errors.New("invalid CA certificate")
	ErrIDGeneratorFailed     = errors.New("id generation failed")
	ErrDiscoveryFailed       = errors.New("provider discovery failed")
	ErrCallbackParse         = errors.New("unable to parse callback response")
	ErrNetworkFailure        = errors.New("network failure")
	ErrTokenExchangeFailed   = errors.New("token exchange failed")
	ErrUserInfoFailed        = errors.New("user info request failed")
	ErrRevocationCheckFailed = errors.New("revocation check failed")
	ErrExpiredRequest        = errors.New("authorization request is expired")
	ErrResponseStateMismatch = errors.New("response state and request state are not equal")
	ErrInvalidNonce          = errors.New("invalid nonce")
	ErrInvalidAudience       = errors.New("invalid audience")
	ErrMissingEndpoint       = errors.New("provider metadata is missing a required endpoint")
)

// TokenExchangeError is returned by Provider.Exchange when the provider's
// token endpoint responds with a non-success status.  It carries the
// provider's status code and raw response body, and matches
// ErrTokenExchangeFailed via errors.Is.
type TokenExchangeError struct {
	// StatusCode is the HTTP status returned by the token endpoint
	StatusCode int

	// Body is the raw response body returned by the token endpoint
	Body []byte

	wrapped error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: provider returned %d: %s", e.StatusCode, string(e.Body))
}

func (e *TokenExchangeError) Unwrap() error {
	return ErrTokenExchangeFailed
}
