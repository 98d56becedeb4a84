package oidc

import (
	"fmt"
	"net/url"
)

// AuthorizationResponse is the provider's answer to an authorization
// request, parsed from the callback's query parameters.  It is transient and
// consumed exactly once by Provider.Exchange.
type AuthorizationResponse struct {
	// Code is the single-use authorization code to exchange for tokens
	Code string

	// State is the state parameter returned unmodified by the provider
	State string
}

// ParseAuthorizationResponse parses the query parameters of an inbound
// authorization callback.  It returns an error wrapping ErrCallbackParse when
// the provider signaled an error parameter or when code or state is missing;
// the caller must not mutate any session state in that case.
func ParseAuthorizationResponse(q url.Values) (*AuthorizationResponse, error) {
	if e := q.Get("error"); e != "" {
		desc := q.Get("error_description")
		if desc != "" {
			return nil, fmt.Errorf("provider returned %q: %s: %w", e, desc, ErrCallbackParse)
		}
		return nil, fmt.Errorf("provider returned %q: %w", e, ErrCallbackParse)
	}
	code := q.Get("code")
	if code == "" {
		return nil, fmt.Errorf("code parameter is missing: %w", ErrCallbackParse)
	}
	state := q.Get("state")
	if state == "" {
		return nil, fmt.Errorf("state parameter is missing: %w", ErrCallbackParse)
	}
	return &AuthorizationResponse{
		Code:  code,
		State: state,
	}, nil
}
