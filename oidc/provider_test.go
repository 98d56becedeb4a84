package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-client-secret"
	testRedirectURL  = "https://rp.example.com/oidc-callback"
)

func testProvider(t *testing.T, tp *TestProvider, opt ...Option) *Provider {
	t.Helper()
	require := require.New(t)
	tp.SetClientCreds(testClientID, testClientSecret)
	tp.SetAllowedRedirectURIs([]string{testRedirectURL})
	opts := append([]Option{
		WithProviderCA(tp.CACert()),
		WithScopes([]string{"email", "profile"}),
		WithClaims(map[string][]string{"authmachine_permissions": {"object1", "object2"}}),
	}, opt...)
	c, err := NewConfig(tp.Addr(), testClientID, testClientSecret, testRedirectURL, opts...)
	require.NoError(err)
	p, err := NewProvider(c)
	require.NoError(err)
	t.Cleanup(p.Done)
	return p
}

func TestNewProvider(t *testing.T) {
	t.Parallel()
	t.Run("nil-config", func(t *testing.T) {
		t.Parallel()
		_, err := NewProvider(nil)
		assert.True(t, errors.Is(err, ErrNilParameter))
	})
	t.Run("invalid-config", func(t *testing.T) {
		t.Parallel()
		_, err := NewProvider(&Config{})
		assert.True(t, errors.Is(err, ErrInvalidParameter))
	})
	t.Run("no-network-on-construction", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		_ = testProvider(t, tp)
		assert.Equal(t, 0, tp.WellKnownHits())
	})
}

func TestProvider_Discover(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("single-discovery-across-concurrent-callers", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)

		const callers = 10
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				md, err := p.Discover(ctx)
				assert.NoError(err)
				assert.NotNil(md)
			}()
		}
		wg.Wait()
		assert.Equal(1, tp.WellKnownHits())

		md, err := p.Discover(ctx)
		require.NoError(err)
		assert.Equal(tp.Addr(), md.Issuer)
		assert.Equal(tp.Addr()+"/auth", md.AuthorizationEndpoint)
		assert.Equal(tp.Addr()+"/token", md.TokenEndpoint)
		assert.Equal(tp.Addr()+"/userinfo", md.UserInfoEndpoint)
		assert.Equal(tp.Addr()+"/introspect", md.IntrospectionEndpoint)
		assert.Equal(tp.Addr()+"/logout", md.EndSessionEndpoint)
		assert.Equal(1, tp.WellKnownHits())
	})
	t.Run("failure-is-cached", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		addr, ca := tp.Addr(), tp.CACert()
		tp.Stop()

		c, err := NewConfig(addr, testClientID, testClientSecret, testRedirectURL, WithProviderCA(ca), WithRequestTimeout(2*time.Second))
		require.NoError(err)
		p, err := NewProvider(c)
		require.NoError(err)
		defer p.Done()

		_, err = p.Discover(ctx)
		assert.True(errors.Is(err, ErrDiscoveryFailed))
		// same cached failure, no fresh attempt
		_, err2 := p.Discover(ctx)
		assert.Equal(err, err2)
	})
}

func TestProvider_AuthURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("round-trips-all-parameters", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)

		authURL, err := p.AuthURL(ctx, r)
		require.NoError(err)
		assert.True(strings.HasPrefix(authURL, tp.Addr()+"/auth?"))

		u, err := url.Parse(authURL)
		require.NoError(err)
		q := u.Query()
		assert.Equal(testClientID, q.Get("client_id"))
		assert.Equal("code", q.Get("response_type"))
		assert.Equal("openid email profile", q.Get("scope"))
		assert.Equal(r.Nonce(), q.Get("nonce"))
		assert.Equal(r.State(), q.Get("state"))
		assert.Equal(testRedirectURL, q.Get("redirect_uri"))

		var claims map[string][]string
		require.NoError(json.Unmarshal([]byte(q.Get("claims")), &claims))
		assert.Equal(map[string][]string{"authmachine_permissions": {"object1", "object2"}}, claims)
	})
	t.Run("per-request-redirect-override", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		r, err := NewRequest(2*time.Minute, WithRedirectURL("https://rp.example.com/other-callback"))
		require.NoError(err)

		authURL, err := p.AuthURL(ctx, r)
		require.NoError(err)
		u, err := url.Parse(authURL)
		require.NoError(err)
		assert.Equal("https://rp.example.com/other-callback", u.Query().Get("redirect_uri"))
	})
	t.Run("nil-request", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		_, err := p.AuthURL(ctx, nil)
		assert.True(t, errors.Is(err, ErrNilParameter))
	})
}

func TestProvider_Exchange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("success-with-id-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)
		tp.SetExpectedAuthCode("abc123")
		tp.SetExpectedAuthNonce(r.Nonce())

		tk, err := p.Exchange(ctx, r, r.State(), "abc123")
		require.NoError(err)
		assert.NotEmpty(tk.AccessToken)
		assert.NotEmpty(tk.IDToken)
		assert.Equal("Bearer", tk.TokenType)
		assert.True(tk.Valid())
	})
	t.Run("success-without-id-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.OmitIDTokens()
		p := testProvider(t, tp)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)
		tp.SetExpectedAuthCode("abc123")

		tk, err := p.Exchange(ctx, r, r.State(), "abc123")
		require.NoError(err)
		assert.Empty(tk.IDToken)
		assert.NotEmpty(tk.AccessToken)
	})
	t.Run("provider-500-is-a-token-exchange-error", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.SetForcedTokenStatus(500)
		p := testProvider(t, tp)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)

		_, err = p.Exchange(ctx, r, r.State(), "abc123")
		require.Error(err)
		assert.True(errors.Is(err, ErrTokenExchangeFailed))
		var exchErr *TokenExchangeError
		require.True(errors.As(err, &exchErr))
		assert.Equal(500, exchErr.StatusCode)
		assert.Contains(string(exchErr.Body), "server_error")
	})
	t.Run("state-mismatch", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)

		_, err = p.Exchange(ctx, r, "some-other-state", "abc123")
		assert.True(errors.Is(err, ErrResponseStateMismatch))
		// nothing was sent to the provider
		assert.Equal(0, tp.WellKnownHits())
	})
	t.Run("expired-request", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		r, err := NewRequest(1 * time.Nanosecond)
		require.NoError(err)

		_, err = p.Exchange(ctx, r, r.State(), "abc123")
		assert.True(errors.Is(err, ErrExpiredRequest))
	})
	t.Run("network-failure", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		// populate the discovery cache, then stop the provider
		_, err := p.Discover(ctx)
		require.NoError(err)
		tp.Stop()

		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)
		_, err = p.Exchange(ctx, r, r.State(), "abc123")
		assert.True(errors.Is(err, ErrNetworkFailure))
	})
}

func TestProvider_UserInfo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("returns-claim-tree", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)

		info, err := p.UserInfo(ctx, &Token{AccessToken: "tok1"})
		require.NoError(err)
		assert.Equal("u1", info.Subject())
		assert.Equal([]string{"object1", "object2"}, info.StringSlice("authmachine_permissions"))
	})
	t.Run("disabled-endpoint", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		tp := StartTestProvider(t)
		tp.DisableUserInfo()
		p := testProvider(t, tp)

		_, err := p.UserInfo(ctx, &Token{AccessToken: "tok1"})
		assert.True(errors.Is(err, ErrUserInfoFailed))
	})
	t.Run("missing-access-token", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		_, err := p.UserInfo(ctx, &Token{})
		assert.True(t, errors.Is(err, ErrInvalidParameter))
	})
}

func TestProvider_CheckRevocation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("live-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)

		status, err := p.CheckRevocation(ctx, &Token{AccessToken: "tok-live"})
		require.NoError(err)
		assert.False(status.Revoked)
		assert.False(status.CheckedAt.IsZero())
	})
	t.Run("revoked-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		tp.RevokeToken("tok-dead")
		p := testProvider(t, tp)

		status, err := p.CheckRevocation(ctx, &Token{AccessToken: "tok-dead"})
		require.NoError(err)
		assert.True(status.Revoked)
	})
	t.Run("failed-check-is-an-error-not-a-verdict", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		tp := StartTestProvider(t)
		tp.SetForcedIntrospectionError(true)
		p := testProvider(t, tp)

		_, err := p.CheckRevocation(ctx, &Token{AccessToken: "tok-live"})
		assert.True(errors.Is(err, ErrRevocationCheckFailed))
	})
	t.Run("missing-access-token", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		_, err := p.CheckRevocation(ctx, nil)
		assert.True(t, errors.Is(err, ErrInvalidParameter))
	})
}

func TestProvider_LogoutURL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert, require := assert.New(t), require.New(t)
	tp := StartTestProvider(t)
	p := testProvider(t, tp)

	logoutURL, err := p.LogoutURL(ctx, "https://rp.example.com/oidc-logout-callback")
	require.NoError(err)
	u, err := url.Parse(logoutURL)
	require.NoError(err)
	assert.Equal("/logout", u.Path)
	assert.Equal(testClientID, u.Query().Get("client_id"))
	assert.Equal("https://rp.example.com/oidc-logout-callback", u.Query().Get("post_logout_redirect_uri"))
}

func TestProvider_VerifyIDToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("wrong-nonce", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)
		tp.SetExpectedAuthCode("abc123")
		tp.SetExpectedAuthNonce("n_someone-elses-nonce")

		_, err = p.Exchange(ctx, r, r.State(), "abc123")
		assert.True(errors.Is(err, ErrInvalidNonce))
	})
	t.Run("empty-inputs", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		tp := StartTestProvider(t)
		p := testProvider(t, tp)
		assert.True(errors.Is(p.VerifyIDToken(ctx, "", "nonce"), ErrInvalidParameter))
		assert.True(errors.Is(p.VerifyIDToken(ctx, "token", ""), ErrInvalidParameter))
	})
}
