package oidc

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()
	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		r, err := NewRequest(2 * time.Minute)
		require.NoError(err)
		assert.NotEmpty(r.State())
		assert.NotEmpty(r.Nonce())
		assert.NotEqual(r.State(), r.Nonce())
		assert.False(r.IsExpired())
	})
	t.Run("with-redirect-url", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		r, err := NewRequest(2*time.Minute, WithRedirectURL("https://alice.com/callback"))
		require.NoError(err)
		assert.Equal("https://alice.com/callback", r.RedirectURL())
	})
	t.Run("zero-expiry", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		_, err := NewRequest(0)
		assert.True(errors.Is(err, ErrInvalidParameter))
	})
	t.Run("expires", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		r, err := NewRequest(1 * time.Nanosecond)
		require.NoError(err)
		assert.True(r.IsExpired())
	})
}

func TestRequest_JSONRoundTrip(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	r, err := NewRequest(2*time.Minute, WithRedirectURL("https://alice.com/callback"))
	require.NoError(err)

	raw, err := json.Marshal(r)
	require.NoError(err)

	var got Request
	require.NoError(json.Unmarshal(raw, &got))
	assert.Equal(r.State(), got.State())
	assert.Equal(r.Nonce(), got.Nonce())
	assert.Equal(r.RedirectURL(), got.RedirectURL())
	assert.False(got.IsExpired())
}
