package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authmachine/authmachine-go/api"
	"github.com/authmachine/authmachine-go/oidc"
)

const testAPIToken = "test-api-token"

func testClient(t *testing.T, tp *oidc.TestProvider) *api.Client {
	t.Helper()
	tp.SetAPIToken(testAPIToken)
	c, err := api.New(tp.Addr(), testAPIToken, api.WithProviderCA(tp.CACert()))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		baseURL  string
		apiToken string
		wantErr  bool
	}{
		{name: "valid", baseURL: "https://auth.example.com", apiToken: "tok"},
		{name: "missing-base-url", apiToken: "tok", wantErr: true},
		{name: "missing-api-token", baseURL: "https://auth.example.com", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			c, err := api.New(tt.baseURL, tt.apiToken)
			if tt.wantErr {
				require.Error(err)
				assert.True(errors.Is(err, api.ErrInvalidParameter))
				return
			}
			require.NoError(err)
			assert.NotNil(c)
		})
	}
}

func TestClient_GetPermissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("returns-permission-list", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		tp.SetPermissionsReply([]string{"read:thing", "write:thing"})
		c := testClient(t, tp)

		perms, err := c.GetPermissions(ctx, "u1", "object1", "object2")
		require.NoError(err)
		assert.Equal([]string{"read:thing", "write:thing"}, perms)
	})
	t.Run("no-permissions-is-not-an-error", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		tp.SetPermissionsReply([]string{})
		c := testClient(t, tp)

		perms, err := c.GetPermissions(ctx, "u1")
		require.NoError(err)
		assert.Empty(perms)
	})
	t.Run("failed-request-is-an-error-not-an-empty-list", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		tp.SetForcedPermissionsStatus(http.StatusForbidden)
		c := testClient(t, tp)

		perms, err := c.GetPermissions(ctx, "u1")
		require.Error(err)
		assert.Nil(perms)
		assert.True(errors.Is(err, api.ErrRequestFailed))
		var statusErr *api.StatusError
		require.True(errors.As(err, &statusErr))
		assert.Equal(http.StatusForbidden, statusErr.StatusCode)
	})
	t.Run("wrong-api-token", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := oidc.StartTestProvider(t)
		tp.SetAPIToken("the-real-token")
		c, err := api.New(tp.Addr(), "a-stale-token", api.WithProviderCA(tp.CACert()))
		require.NoError(err)

		_, err = c.GetPermissions(ctx, "u1")
		require.Error(err)
		var statusErr *api.StatusError
		require.True(errors.As(err, &statusErr))
		assert.Equal(http.StatusUnauthorized, statusErr.StatusCode)
	})
	t.Run("empty-user-id", func(t *testing.T) {
		t.Parallel()
		tp := oidc.StartTestProvider(t)
		c := testClient(t, tp)
		_, err := c.GetPermissions(ctx, "")
		assert.True(t, errors.Is(err, api.ErrInvalidParameter))
	})
}
