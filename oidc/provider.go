package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/authmachine/authmachine-go/internal/strutils"
)

// Provider is the relying party's client for a single OIDC provider.  It
// composes the full authorization code flow: discovering and caching the
// provider's metadata, building authorization URLs, exchanging codes for
// tokens, fetching userinfo claims, checking token revocation and building
// logout redirects.
//
// A Provider is safe for concurrent use; its only mutable state is the
// once-populated discovery cache.
type Provider struct {
	config *Config
	client *http.Client

	// discovery is performed at most once per process; see Discover
	discoverOnce sync.Once
	oidcProvider *oidc.Provider
	metadata     *ProviderMetadata
	discoverErr  error

	mu sync.Mutex

	// backgroundCtx is the context used by the provider for background
	// activities like refreshing JWKs key sets
	backgroundCtx context.Context

	// backgroundCtxCancel is used to cancel any background activities running
	// in spawned go routines.
	backgroundCtxCancel context.CancelFunc
}

// NewProvider creates a Provider for the OIDC authorization code flow.  No
// network I/O happens here; the provider's metadata is fetched lazily on
// first use (see Discover).
//
// See Provider.Done() which must be called to release provider resources.
func NewProvider(c *Config) (*Provider, error) {
	if c == nil {
		return nil, fmt.Errorf("provider config is nil: %w", ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("provider config is invalid: %w", err)
	}

	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create http client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Provider{
		config:              c,
		client:              client,
		backgroundCtx:       ctx,
		backgroundCtxCancel: cancel,
	}, nil
}

// Done with the provider's background resources and must be called for every
// Provider created
func (p *Provider) Done() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backgroundCtxCancel != nil {
		p.backgroundCtxCancel()
		p.backgroundCtxCancel = nil
	}
}

// Config returns the provider's immutable relying party configuration.
func (p *Provider) Config() *Config {
	return p.config
}

// Discover fetches the provider's well-known discovery document and returns
// its metadata.  The document is fetched at most once per process: the first
// caller populates the cache and concurrent callers block on the same
// single-initialization guard, so exactly one discovery request is ever
// issued.  The result, including a failure, is cached for the process
// lifetime; there is no invalidation policy and a stale or failed cache
// requires a process restart.  Failures wrap ErrDiscoveryFailed.
func (p *Provider) Discover(ctx context.Context) (*ProviderMetadata, error) {
	p.discoverOnce.Do(func() {
		oidcCtx := HTTPClientContext(p.backgroundCtx, p.client)
		provider, err := oidc.NewProvider(oidcCtx, p.config.Issuer)
		if err != nil {
			p.discoverErr = fmt.Errorf("unable to fetch discovery document for %s: %v: %w", p.config.Issuer, err, ErrDiscoveryFailed)
			return
		}
		var md ProviderMetadata
		if err := provider.Claims(&md); err != nil {
			p.discoverErr = fmt.Errorf("malformed discovery document for %s: %v: %w", p.config.Issuer, err, ErrDiscoveryFailed)
			return
		}
		p.oidcProvider = provider
		p.metadata = &md
	})
	if p.discoverErr != nil {
		return nil, p.discoverErr
	}
	return p.metadata, nil
}

// AuthURL will generate a URL the caller can use to kick off an OIDC
// authorization code flow with the provider.  The URL's query parameters
// carry the client id, response_type=code, the requested scopes, the
// JSON-encoded requested claims, the request's nonce and state, and the
// redirect URL the provider should send the authorization response to.
//
// See NewRequest() to create a flow Request with a valid state and nonce
// that will uniquely identify the user's authentication attempt throughout
// the flow.
func (p *Provider) AuthURL(ctx context.Context, r *Request) (string, error) {
	if r == nil {
		return "", fmt.Errorf("request is nil: %w", ErrNilParameter)
	}
	if r.State() == r.Nonce() {
		return "", fmt.Errorf("request state and nonce cannot be equal: %w", ErrInvalidParameter)
	}
	md, err := p.Discover(ctx)
	if err != nil {
		return "", err
	}

	oauth2Config := p.oauth2Config(md, r.RedirectURL())
	authCodeOpts := []oauth2.AuthCodeOption{
		oidc.Nonce(r.Nonce()),
	}
	if len(p.config.Claims) > 0 {
		claims, err := json.Marshal(p.config.Claims)
		if err != nil {
			return "", fmt.Errorf("unable to encode requested claims: %w", err)
		}
		authCodeOpts = append(authCodeOpts, oauth2.SetAuthURLParam("claims", string(claims)))
	}
	return oauth2Config.AuthCodeURL(r.State(), authCodeOpts...), nil
}

// Exchange will request a token from the provider's token endpoint, using
// the authorizationCode and authorizationState received in an earlier
// successful authorization response.
//
// The authorizationState is validated against the existing Request for the
// user's flow before anything is sent, and the request must not be expired.
// Client credentials are sent in the request body (client_secret_post), which
// AuthMachine requires.  The exchange is never retried: an authorization code
// is single-use and a retry would be rejected by the provider anyway.
//
// A non-success response from the token endpoint is returned as a
// *TokenExchangeError carrying the provider's status and body; a transport
// failure wraps ErrNetworkFailure.  When the provider returns an id_token it
// is verified (signature, nonce, audience) before the Token is returned;
// providers that omit it still succeed.
func (p *Provider) Exchange(ctx context.Context, r *Request, authorizationState string, authorizationCode string) (*Token, error) {
	if r == nil {
		return nil, fmt.Errorf("request is nil: %w", ErrNilParameter)
	}
	if r.State() != authorizationState {
		return nil, fmt.Errorf("unable to exchange: %w", ErrResponseStateMismatch)
	}
	if r.IsExpired() {
		return nil, fmt.Errorf("unable to exchange: %w", ErrExpiredRequest)
	}
	md, err := p.Discover(ctx)
	if err != nil {
		return nil, err
	}

	oidcCtx := HTTPClientContext(ctx, p.client)
	oauth2Config := p.oauth2Config(md, r.RedirectURL())

	oauth2Token, err := oauth2Config.Exchange(oidcCtx, authorizationCode)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &TokenExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       retrieveErr.Body,
				wrapped:    err,
			}
		}
		return nil, fmt.Errorf("unable to reach token endpoint: %v: %w", err, ErrNetworkFailure)
	}

	t := &Token{
		AccessToken:  oauth2Token.AccessToken,
		TokenType:    oauth2Token.Type(),
		RefreshToken: oauth2Token.RefreshToken,
		Expiry:       oauth2Token.Expiry,
	}
	if idToken, ok := oauth2Token.Extra("id_token").(string); ok && idToken != "" {
		t.IDToken = idToken
		if err := p.VerifyIDToken(ctx, idToken, r.Nonce()); err != nil {
			return nil, fmt.Errorf("id_token failed verification: %w", err)
		}
	}
	return t, nil
}

// UserInfo gets the subject's claims from the provider's userinfo endpoint
// using the token's access token as a bearer credential.  The returned
// UserInfo is an open JSON tree; see the UserInfo type.  Failures wrap
// ErrUserInfoFailed.
func (p *Provider) UserInfo(ctx context.Context, t *Token) (UserInfo, error) {
	if t == nil || t.AccessToken == "" {
		return nil, fmt.Errorf("token is missing an access token: %w", ErrInvalidParameter)
	}
	md, err := p.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if md.UserInfoEndpoint == "" {
		return nil, fmt.Errorf("userinfo endpoint: %v: %w", ErrMissingEndpoint, ErrUserInfoFailed)
	}

	oidcCtx := HTTPClientContext(ctx, p.client)
	userinfo, err := p.oidcProvider.UserInfo(oidcCtx, t.StaticTokenSource())
	if err != nil {
		return nil, fmt.Errorf("provider userinfo request failed: %v: %w", err, ErrUserInfoFailed)
	}
	var claims UserInfo
	if err := userinfo.Claims(&claims); err != nil {
		return nil, fmt.Errorf("malformed userinfo claims: %v: %w", err, ErrUserInfoFailed)
	}
	return claims, nil
}

// LogoutURL builds a redirect to the provider's end-session endpoint.  The
// exact logout parameters are provider-specific; AuthMachine expects the
// client id and an optional post-logout redirect back to the relying party.
// The caller is responsible for clearing its own session before redirecting.
func (p *Provider) LogoutURL(ctx context.Context, postLogoutRedirectURL string) (string, error) {
	md, err := p.Discover(ctx)
	if err != nil {
		return "", err
	}
	if md.EndSessionEndpoint == "" {
		return "", fmt.Errorf("end-session endpoint: %w", ErrMissingEndpoint)
	}
	u, err := url.Parse(md.EndSessionEndpoint)
	if err != nil {
		return "", fmt.Errorf("end-session endpoint is invalid: %w", err)
	}
	q := u.Query()
	q.Set("client_id", p.config.ClientID)
	if postLogoutRedirectURL != "" {
		q.Set("post_logout_redirect_uri", postLogoutRedirectURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// VerifyIDToken will verify the inbound id_token.  It verifies it's been
// signed by the provider, it validates the nonce, and performs any additional
// checks depending on the provider's config (audiences, etc).
//
// See: https://openid.net/specs/openid-connect-core-1_0.html#IDTokenValidation
func (p *Provider) VerifyIDToken(ctx context.Context, t string, nonce string) error {
	if t == "" {
		return fmt.Errorf("id_token is empty: %w", ErrInvalidParameter)
	}
	if nonce == "" {
		return fmt.Errorf("nonce is empty: %w", ErrInvalidParameter)
	}
	if _, err := p.Discover(ctx); err != nil {
		return err
	}
	algs := []string{}
	for _, a := range p.config.SupportedSigningAlgs {
		algs = append(algs, string(a))
	}
	oidcConfig := &oidc.Config{
		SupportedSigningAlgs: algs,
		ClientID:             p.config.ClientID,
	}
	verifier := p.oidcProvider.Verifier(oidcConfig)

	oidcIDToken, err := verifier.Verify(ctx, t)
	if err != nil {
		return fmt.Errorf("invalid id_token signature: %w", err)
	}

	if oidcIDToken.Nonce != nonce {
		return fmt.Errorf("invalid id_token nonce: %w", ErrInvalidNonce)
	}

	if len(p.config.Audiences) > 0 {
		found := false
		for _, v := range p.config.Audiences {
			if strutils.StrListContains(oidcIDToken.Audience, v) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("invalid id_token audiences: %w", ErrInvalidAudience)
		}
	}
	return nil
}

// oauth2Config assembles the x/oauth2 config for the discovered endpoints.
// AuthStyleInParams puts the client id and secret in the request body, since
// AuthMachine requires client_secret_post rather than only the Authorization
// header.
func (p *Provider) oauth2Config(md *ProviderMetadata, redirectURL string) oauth2.Config {
	if redirectURL == "" {
		redirectURL = p.config.RedirectURL
	}
	// "openid" is a required scope for oidc flows
	scopes := []string{oidc.ScopeOpenID}
	for _, s := range p.config.Scopes {
		if !strutils.StrListContains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	return oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: string(p.config.ClientSecret),
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   md.AuthorizationEndpoint,
			TokenURL:  md.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
