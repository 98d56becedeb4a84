package oidc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInfo(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	raw := `{
		"sub": "u1",
		"email": "u1@example.com",
		"email_verified": true,
		"authmachine_permissions": ["obj1", "obj2", 42],
		"profile": {"name": "Alice", "groups": ["admins"]}
	}`
	var info UserInfo
	require.NoError(json.Unmarshal([]byte(raw), &info))

	assert.Equal("u1", info.Subject())
	// non-string elements are skipped
	assert.Equal([]string{"obj1", "obj2"}, info.StringSlice("authmachine_permissions"))
	assert.Nil(info.StringSlice("email"))
	assert.Nil(info.StringSlice("missing"))

	// nested objects survive as a JSON tree
	profile, ok := info["profile"].(map[string]interface{})
	require.True(ok)
	assert.Equal("Alice", profile["name"])
}

func TestUserInfo_EmptySubject(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Empty(UserInfo{}.Subject())
	assert.Empty(UserInfo{"sub": 42}.Subject())
}
