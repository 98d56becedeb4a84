package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/authmachine/authmachine-go/internal/strutils"
	sdkHTTP "github.com/authmachine/authmachine-go/sdk/http"
)

type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Alg represents asymmetric signing algorithms
type Alg string

const (
	RS256 Alg = "RS256"
	RS384 Alg = "RS384"
	RS512 Alg = "RS512"
	ES256 Alg = "ES256"
	ES384 Alg = "ES384"
	ES512 Alg = "ES512"
	PS256 Alg = "PS256"
	PS384 Alg = "PS384"
	PS512 Alg = "PS512"
)

var supportedAlgorithms = map[Alg]bool{
	RS256: true,
	RS384: true,
	RS512: true,
	ES256: true,
	ES384: true,
	ES512: true,
	PS256: true,
	PS384: true,
	PS512: true,
}

// DefaultRequestTimeout is applied to every outbound request to the provider
// unless overridden with WithRequestTimeout.  The original system relied on
// the transport's defaults; an explicit timeout is deliberate hardening.
const DefaultRequestTimeout = 30 * time.Second

// Config represents the relying party's configuration for a typical 3-legged
// OIDC authorization code flow against an AuthMachine provider.  It is
// immutable once constructed and is shared read-only by every component that
// needs it.
type Config struct {
	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret

	// Scopes is a list of additional oidc scopes to request of the provider.
	// The required "openid" scope is always requested and need not be listed.
	Scopes []string

	// Issuer is the provider's base URL, used to resolve the well-known
	// discovery document.  Scheme must be http or https.
	Issuer string

	// RedirectURL is the registered redirect URI the provider sends the
	// authorization response to.
	RedirectURL string

	// Claims maps a requested claim name to the list of resource identifiers
	// the relying party wants the claim scoped to.  It is sent to the
	// authorization endpoint as a JSON-encoded "claims" parameter, for
	// example: {"authmachine_permissions": ["object1", "object2"]}
	Claims map[string][]string

	// Audiences is an optional list of case-sensitive strings used when
	// verifying an id_token's "aud" claim
	Audiences []string

	// SupportedSigningAlgs is a list of supported id_token signing
	// algorithms.  Defaults to RS256 and ES256.
	SupportedSigningAlgs []Alg

	// ProviderCA is an optional CA cert to use when sending requests to the
	// provider.
	ProviderCA string

	// RequestTimeout bounds every outbound call to the provider
	RequestTimeout time.Duration
}

// NewConfig composes a new relying party config for a provider.
// Supported options: WithScopes, WithClaims, WithAudiences, WithProviderCA,
// WithSupportedSigningAlgs, WithRequestTimeout
func NewConfig(issuer string, clientID string, clientSecret ClientSecret, redirectURL string, opt ...Option) (*Config, error) {
	opts := getConfigOpts(opt...)
	c := &Config{
		Issuer:               issuer,
		ClientID:             clientID,
		ClientSecret:         clientSecret,
		RedirectURL:          redirectURL,
		Scopes:               opts.withScopes,
		Claims:               opts.withClaims,
		Audiences:            opts.withAudiences,
		SupportedSigningAlgs: opts.withSupportedSigningAlgs,
		ProviderCA:           opts.withProviderCA,
		RequestTimeout:       opts.withRequestTimeout,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relying party config: %w", err)
	}
	return c, nil
}

// Validate the config.  Among other validations, it verifies the issuer is
// not empty, but it doesn't verify the issuer is discoverable via an http
// request.  All validation failures are reported, not just the first.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil: %w", ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	if c.RedirectURL == "" {
		result = multierror.Append(result, fmt.Errorf("redirect URL is empty: %w", ErrInvalidParameter))
	}
	switch {
	case c.Issuer == "":
		result = multierror.Append(result, fmt.Errorf("issuer is empty: %w", ErrInvalidParameter))
	default:
		u, err := url.Parse(c.Issuer)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("issuer %s is invalid: %w", c.Issuer, err))
		case !strutils.StrListContains([]string{"https", "http"}, u.Scheme):
			result = multierror.Append(result, fmt.Errorf("issuer %s schema is not http or https: %w", c.Issuer, ErrInvalidParameter))
		}
	}
	for _, a := range c.SupportedSigningAlgs {
		if !supportedAlgorithms[a] {
			result = multierror.Append(result, fmt.Errorf("unsupported algorithm %s: %w", a, ErrInvalidParameter))
		}
	}
	if c.RequestTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("request timeout is negative: %w", ErrInvalidParameter))
	}
	return result.ErrorOrNil()
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured
func (c *Config) HTTPClient() (*http.Client, error) {
	client, err := sdkHTTP.NewClient(c.ProviderCA, c.RequestTimeout)
	if err != nil {
		if errors.Is(err, sdkHTTP.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("could not parse CA PEM value: %w", ErrInvalidCACert)
		}
		return nil, fmt.Errorf("could not get an http client: %w", err)
	}
	return client, nil
}

// HTTPClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HTTPClientContext(ctx context.Context, client *http.Client) context.Context {
	return sdkHTTP.OidcClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withScopes               []string
	withClaims               map[string][]string
	withAudiences            []string
	withProviderCA           string
	withSupportedSigningAlgs []Alg
	withRequestTimeout       time.Duration
}

// configDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func configDefaults() configOptions {
	return configOptions{
		withSupportedSigningAlgs: []Alg{RS256, ES256},
		withRequestTimeout:       DefaultRequestTimeout,
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScopes provides an optional list of scopes for the config
func WithScopes(scopes []string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithClaims provides an optional set of requested claims for the config.
// The map keys are claim names and the values are the resource identifiers
// the claim is requested for.
func WithClaims(claims map[string][]string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withClaims = claims
		}
	}
}

// WithAudiences provides an optional list of audiences for the config
func WithAudiences(auds []string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAudiences = auds
		}
	}
}

// WithProviderCA provides an optional CA cert for the config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithSupportedSigningAlgs overrides the default id_token signing algorithms
func WithSupportedSigningAlgs(algs ...Alg) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSupportedSigningAlgs = algs
		}
	}
}

// WithRequestTimeout overrides the default timeout for outbound provider
// requests
func WithRequestTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRequestTimeout = d
		}
	}
}
