package oidc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSecret_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		secret := ClientSecret("bob's phone number")
		assert.Equal(RedactedClientSecret, secret.String())
	})
}

func TestClientSecret_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		secret := ClientSecret("bob's phone number")
		got, err := secret.MarshalJSON()
		require.NoError(err)
		assert.Equal(`"`+RedactedClientSecret+`"`, string(got))
	})
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	type args struct {
		issuer       string
		clientID     string
		clientSecret ClientSecret
		redirectURL  string
		opt          []Option
	}
	tests := []struct {
		name      string
		args      args
		wantErr   bool
		wantIsErr error
	}{
		{
			name: "valid-with-all-valid-opts",
			args: args{
				issuer:       "https://your-issuer.com/",
				clientID:     "your-client-id",
				clientSecret: "your-client-secret",
				redirectURL:  "https://your-redirect-url.com/callback",
				opt: []Option{
					WithScopes([]string{"email", "profile"}),
					WithClaims(map[string][]string{"authmachine_permissions": {"object1", "object2"}}),
					WithAudiences([]string{"your-aud"}),
					WithSupportedSigningAlgs(ES256),
					WithRequestTimeout(5 * time.Second),
				},
			},
		},
		{
			name: "empty-client-id",
			args: args{
				issuer:       "https://your-issuer.com/",
				clientSecret: "your-client-secret",
				redirectURL:  "https://your-redirect-url.com/callback",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-client-secret",
			args: args{
				issuer:      "https://your-issuer.com/",
				clientID:    "your-client-id",
				redirectURL: "https://your-redirect-url.com/callback",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-issuer",
			args: args{
				clientID:     "your-client-id",
				clientSecret: "your-client-secret",
				redirectURL:  "https://your-redirect-url.com/callback",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "bad-issuer-scheme",
			args: args{
				issuer:       "ldap://bad-scheme.com",
				clientID:     "your-client-id",
				clientSecret: "your-client-secret",
				redirectURL:  "https://your-redirect-url.com/callback",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "empty-redirect-url",
			args: args{
				issuer:       "https://your-issuer.com/",
				clientID:     "your-client-id",
				clientSecret: "your-client-secret",
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "unsupported-alg",
			args: args{
				issuer:       "https://your-issuer.com/",
				clientID:     "your-client-id",
				clientSecret: "your-client-secret",
				redirectURL:  "https://your-redirect-url.com/callback",
				opt:          []Option{WithSupportedSigningAlgs("none")},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name: "negative-timeout",
			args: args{
				issuer:       "https://your-issuer.com/",
				clientID:     "your-client-id",
				clientSecret: "your-client-secret",
				redirectURL:  "https://your-redirect-url.com/callback",
				opt:          []Option{WithRequestTimeout(-1 * time.Second)},
			},
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.args.issuer, tt.args.clientID, tt.args.clientSecret, tt.args.redirectURL, tt.args.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted %v, got %v", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			require.NotNil(got)
			assert.Equal(tt.args.issuer, got.Issuer)
			assert.Equal(tt.args.clientID, got.ClientID)
			assert.Equal(tt.args.redirectURL, got.RedirectURL)
		})
	}
	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("https://your-issuer.com/", "your-client-id", "your-client-secret", "https://your-redirect-url.com/callback")
		require.NoError(err)
		assert.Equal([]Alg{RS256, ES256}, c.SupportedSigningAlgs)
		assert.Equal(DefaultRequestTimeout, c.RequestTimeout)
	})
	t.Run("validate-accumulates-errors", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		c := &Config{}
		err := c.Validate()
		assert.Error(err)
		assert.Contains(err.Error(), "client id is empty")
		assert.Contains(err.Error(), "client secret is empty")
		assert.Contains(err.Error(), "issuer is empty")
		assert.Contains(err.Error(), "redirect URL is empty")
	})
}

func TestConfig_HTTPClient(t *testing.T) {
	t.Parallel()
	t.Run("invalid-ca", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("https://your-issuer.com/", "your-client-id", "your-client-secret", "https://your-redirect-url.com/callback", WithProviderCA("not-a-pem"))
		require.NoError(err)
		_, err = c.HTTPClient()
		assert.Truef(errors.Is(err, ErrInvalidCACert), "wanted %v, got %v", ErrInvalidCACert, err)
	})
	t.Run("valid-ca", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		tp := StartTestProvider(t)
		c, err := NewConfig(tp.Addr(), "your-client-id", "your-client-secret", "https://your-redirect-url.com/callback", WithProviderCA(tp.CACert()))
		require.NoError(err)
		client, err := c.HTTPClient()
		require.NoError(err)
		require.NotNil(client)
	})
}
