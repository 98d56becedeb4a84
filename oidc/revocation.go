package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RevocationStatus is the result of asking the provider whether a previously
// issued token is still live.
type RevocationStatus struct {
	// Revoked is true when the provider reports the token as no longer active
	Revoked bool

	// CheckedAt is when the provider answered
	CheckedAt time.Time
}

// introspectionResponse is the RFC 7662 response shape.
type introspectionResponse struct {
	Active bool `json:"active"`
}

// CheckRevocation asks the provider's introspection endpoint (falling back to
// its revocation endpoint when only that is advertised) whether the token's
// access token is still active.  Client credentials are sent in the request
// body, matching the token exchange's authentication method.
//
// Any transport, status or parse failure is returned as an error wrapping
// ErrRevocationCheckFailed, and the caller must treat it as "status unknown"
// rather than "not revoked".  The session-facing handlers in oidc/callback
// apply a fail-closed policy on top of this.
func (p *Provider) CheckRevocation(ctx context.Context, t *Token) (RevocationStatus, error) {
	if t == nil || t.AccessToken == "" {
		return RevocationStatus{}, fmt.Errorf("token is missing an access token: %w", ErrInvalidParameter)
	}
	md, err := p.Discover(ctx)
	if err != nil {
		return RevocationStatus{}, fmt.Errorf("unable to check revocation: %v: %w", err, ErrRevocationCheckFailed)
	}
	endpoint := md.IntrospectionEndpoint
	if endpoint == "" {
		endpoint = md.RevocationEndpoint
	}
	if endpoint == "" {
		return RevocationStatus{}, fmt.Errorf("introspection endpoint: %v: %w", ErrMissingEndpoint, ErrRevocationCheckFailed)
	}

	form := url.Values{
		"token":           {t.AccessToken},
		"token_type_hint": {"access_token"},
		"client_id":       {p.config.ClientID},
		"client_secret":   {string(p.config.ClientSecret)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return RevocationStatus{}, fmt.Errorf("unable to build introspection request: %v: %w", err, ErrRevocationCheckFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return RevocationStatus{}, fmt.Errorf("unable to reach introspection endpoint: %v: %w", err, ErrRevocationCheckFailed)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return RevocationStatus{}, fmt.Errorf("unable to read introspection response: %v: %w", err, ErrRevocationCheckFailed)
	}
	if resp.StatusCode != http.StatusOK {
		return RevocationStatus{}, fmt.Errorf("introspection endpoint returned %d: %s: %w", resp.StatusCode, string(body), ErrRevocationCheckFailed)
	}
	var ir introspectionResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return RevocationStatus{}, fmt.Errorf("malformed introspection response: %v: %w", err, ErrRevocationCheckFailed)
	}
	return RevocationStatus{
		Revoked:   !ir.Active,
		CheckedAt: time.Now(),
	}, nil
}
