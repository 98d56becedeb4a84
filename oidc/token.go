package oidc

import (
	"time"

	"golang.org/x/oauth2"
)

const expirySkew = 10 * time.Second

// Token is the set of tokens issued by the provider at the end of a
// successful authorization code exchange.  It is owned by the caller and is
// serialized (JSON) into the session layer to persist authentication state
// across requests.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Expired reports whether the access token is past its expiry, with a small
// skew.  A zero expiry means the provider did not bound the token's lifetime.
func (t *Token) Expired(opt ...Option) bool {
	if t.Expiry.IsZero() {
		return false
	}
	opts := getTokenOpts(opt...)
	return t.Expiry.Round(0).Before(time.Now().Add(opts.withExpirySkew))
}

// Valid reports whether the token holds a usable access token.
func (t *Token) Valid() bool {
	if t == nil {
		return false
	}
	if t.AccessToken == "" {
		return false
	}
	return !t.Expired()
}

// StaticTokenSource returns an oauth2.TokenSource for the access token, which
// never refreshes.  It's suitable for bearer-authenticated calls like the
// provider's userinfo endpoint.
func (t *Token) StaticTokenSource() oauth2.TokenSource {
	if t == nil {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Expiry:      t.Expiry,
	})
}

// tokenOptions is the set of available options for Token functions
type tokenOptions struct {
	withExpirySkew time.Duration
}

func tokenDefaults() tokenOptions {
	return tokenOptions{
		withExpirySkew: expirySkew,
	}
}

func getTokenOpts(opt ...Option) tokenOptions {
	opts := tokenDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
