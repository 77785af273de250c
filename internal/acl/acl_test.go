package acl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.True(t, VerifyPassword("hunter2", h))
	require.False(t, VerifyPassword("wrong", h))
}

func TestSetUserRuleGrammar(t *testing.T) {
	RegisterCommand("GET", 1)
	RegisterCommand("SET", 2)

	u := NewUser("alice")
	err := SetUser(u, []string{
		"on", "+@read", "+SET", "~user:*", "&news.*", "nopass",
	})
	require.NoError(t, err)
	require.True(t, u.Enabled)
	require.True(t, u.NoPass)
	require.True(t, u.CheckIdx(CatRead, 999))
	require.True(t, u.CheckIdx(-1, 2))
	require.False(t, u.CheckIdx(-1, 1))
	require.True(t, u.CheckKey("user:42"))
	require.False(t, u.CheckKey("order:1"))
	require.True(t, u.CheckChannel("news.sports"))
}

func TestSetUserExplicitCommandDenyOverridesCategoryAllow(t *testing.T) {
	RegisterCommand("DEL", 3)

	u := NewUser("erin")
	require.NoError(t, SetUser(u, []string{"on", "+@read", "-del"}))
	require.False(t, u.CheckIdx(CatRead, 3))
	require.True(t, u.CheckIdx(CatRead, 999))
}

func TestSetUserResetClearsEverything(t *testing.T) {
	u := NewUser("bob")
	require.NoError(t, SetUser(u, []string{"on", "~*", "&*"}))
	require.NoError(t, SetUser(u, []string{"reset"}))
	require.False(t, u.Enabled)
	require.Empty(t, u.KeyPatterns)
	require.Empty(t, u.ChannelPatterns)
}

func TestSetUserUnknownCommandErrors(t *testing.T) {
	u := NewUser("carol")
	err := SetUser(u, []string{"+NOSUCHCOMMAND"})
	require.Error(t, err)
}

func TestSetUserPasswordAddRemove(t *testing.T) {
	u := NewUser("dave")
	require.NoError(t, SetUser(u, []string{">secret"}))
	require.False(t, u.NoPass)
	require.True(t, u.Authenticate("secret"))
	require.False(t, u.Authenticate("wrong"))

	hash := u.PasswordHashes[0]
	require.NoError(t, SetUser(u, []string{"<" + hash}))
	require.Empty(t, u.PasswordHashes)
}
