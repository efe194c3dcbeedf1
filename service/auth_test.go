package service

import (
	"testing"

	"github.com/beka-birhanu/vinom-labyrinth/identity"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/token"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRegisterAndSignIn(t *testing.T) {
	users := &memUsers{users: make(map[uuid.UUID]*identity.User)}
	tokens := token.NewJwtService("secret", "labyrinth")
	auth, err := NewAuthService(users, tokens)
	require.NoError(t, err)

	const password = "correct-horse-battery-staple"
	require.NoError(t, auth.Register("maze_walker", password))
	assert.ErrorIs(t, auth.Register("maze_walker", password), ErrUsernameTaken)
	assert.ErrorIs(t, auth.Register("x", password), identity.ErrUsernameTooShort)

	_, _, err = auth.SignIn("maze_walker", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.SignIn("nobody", password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, tok, err := auth.SignIn("maze_walker", password)
	require.NoError(t, err)
	assert.Equal(t, "maze_walker", user.Username)

	claims, err := tokens.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims[i.ClaimUserID])
	assert.Equal(t, "maze_walker", claims[i.ClaimUsername])
}
