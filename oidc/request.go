package oidc

import (
	"encoding/json"
	"fmt"
	"time"
)

// Request represents one OIDC authentication flow for a user.  It contains
// the data needed to uniquely represent that one-time flow across the
// multiple interactions needed to complete it.  State() is passed throughout
// the flow to uniquely identify the attempt, and is verified against the
// authorization response's state parameter to prevent CSRF attacks.  Nonce()
// is bound into the id_token to mitigate replay.  State and nonce are never
// equal.
//
// A Request is persisted (via the session layer) between building the
// authorization URL and handling the provider's callback, and is single-use.
type Request struct {
	// state is a unique identifier and an opaque value used to maintain state
	// between the authorization request and the callback
	state string

	// nonce is a unique nonce suitable for use as an oidc nonce
	nonce string

	// expiration is the expiration time for the Request
	expiration time.Time

	// redirectURL optionally overrides the config's registered redirect URL
	// for this one flow
	redirectURL string
}

// NewRequest creates a new flow Request with a generated state and nonce that
// expires after expireIn.
// Supported options: WithRedirectURL
func NewRequest(expireIn time.Duration, opt ...Option) (*Request, error) {
	if expireIn <= 0 {
		return nil, fmt.Errorf("expireIn not greater than zero: %w", ErrInvalidParameter)
	}
	opts := getReqOpts(opt...)
	nonce, err := NewID(WithPrefix("n"))
	if err != nil {
		return nil, fmt.Errorf("unable to generate a request's nonce: %w", err)
	}
	state, err := NewID(WithPrefix("st"))
	if err != nil {
		return nil, fmt.Errorf("unable to generate a request's state: %w", err)
	}
	return &Request{
		state:       state,
		nonce:       nonce,
		expiration:  time.Now().Add(expireIn),
		redirectURL: opts.withRedirectURL,
	}, nil
}

// State is an opaque value used to maintain flow state between the request
// and the callback.  It cannot equal the Nonce.
func (r *Request) State() string { return r.state }

// Nonce is used to associate a client session with an id_token and to
// mitigate replay attacks.  It cannot equal the State.
func (r *Request) Nonce() string { return r.nonce }

// RedirectURL is the per-flow redirect URL override; empty means the config's
// registered redirect URL is used.
func (r *Request) RedirectURL() string { return r.redirectURL }

// DefaultRequestExpirySkew defines a default time skew when checking a
// Request's expiration.
const DefaultRequestExpirySkew = 1 * time.Second

// IsExpired returns true if the request has expired. Supports the
// WithExpirySkew option and if none is provided it will use the
// DefaultRequestExpirySkew.
func (r *Request) IsExpired(opt ...Option) bool {
	opts := getReqOpts(opt...)
	return r.expiration.Before(time.Now().Add(opts.withExpirySkew))
}

// requestJSON is the serialized form of a Request, so a pending flow can
// survive in a session store between the login redirect and the callback.
type requestJSON struct {
	State       string    `json:"state"`
	Nonce       string    `json:"nonce"`
	Expiration  time.Time `json:"expiration"`
	RedirectURL string    `json:"redirect_url,omitempty"`
}

// MarshalJSON implements json.Marshaler so a pending Request can be persisted
// by the session layer.
func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(requestJSON{
		State:       r.state,
		Nonce:       r.nonce,
		Expiration:  r.expiration,
		RedirectURL: r.redirectURL,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Request) UnmarshalJSON(data []byte) error {
	var s requestJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.state = s.State
	r.nonce = s.Nonce
	r.expiration = s.Expiration
	r.redirectURL = s.RedirectURL
	return nil
}

// requestOptions is the set of available options for Request functions
type requestOptions struct {
	withExpirySkew  time.Duration
	withRedirectURL string
}

// requestDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func requestDefaults() requestOptions {
	return requestOptions{
		withExpirySkew: DefaultRequestExpirySkew,
	}
}

// getReqOpts gets the request defaults and applies the opt overrides passed in
func getReqOpts(opt ...Option) requestOptions {
	opts := requestDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithRedirectURL provides an optional per-flow redirect URL override for a
// new Request
func WithRedirectURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*requestOptions); ok {
			o.withRedirectURL = u
		}
	}
}
