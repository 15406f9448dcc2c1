package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/status"
)

func TestRegisterUserValidation(t *testing.T) {
	m := NewUserManager(NewMemoryUserRepository())
	ctx := context.Background()

	_, err := m.RegisterUser(ctx, RegisterCommand{UserName: "alice", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, status.CodeInvalidArgument, status.CodeOf(err))

	_, err = m.RegisterUser(ctx, RegisterCommand{UserName: "alice", Password: "short", Email: "a@x.io"})
	require.Error(t, err)
	assert.Equal(t, status.CodeInvalidArgument, status.CodeOf(err))
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestRegisterUserAssignsIdentity(t *testing.T) {
	m := NewUserManager(NewMemoryUserRepository())

	user, err := m.RegisterUser(context.Background(), RegisterCommand{
		UserName: "alice",
		Password: "secret123",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(user.UserID, "user_"))
	assert.Len(t, user.UserID, len("user_")+16)
	assert.NotZero(t, user.NumericID)
	assert.Equal(t, "alice", user.DisplayName, "display name defaults to the user name")
	assert.Len(t, user.Salt, 64)
	assert.Len(t, user.PasswordHash, 64)
	assert.NotZero(t, user.CreatedAt)
	assert.Zero(t, user.LastLogin)
}

func TestRegisterUserDuplicateName(t *testing.T) {
	m := NewUserManager(NewMemoryUserRepository())
	ctx := context.Background()

	cmd := RegisterCommand{UserName: "alice", Password: "secret123", Email: "alice@example.com"}
	_, err := m.RegisterUser(ctx, cmd)
	require.NoError(t, err)

	_, err = m.RegisterUser(ctx, cmd)
	require.Error(t, err)
	assert.Equal(t, status.CodeAlreadyExists, status.CodeOf(err))
}

func TestLoginUser(t *testing.T) {
	m := NewUserManager(NewMemoryUserRepository())
	ctx := context.Background()

	_, err := m.RegisterUser(ctx, RegisterCommand{
		UserName: "bob", Password: "hunter22", Email: "bob@example.com", DisplayName: "Bob",
	})
	require.NoError(t, err)

	user, err := m.LoginUser(ctx, LoginCommand{UserName: "bob", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", user.DisplayName)
	assert.NotZero(t, user.LastLogin)

	// The stamp is persisted.
	stored, err := m.GetUserByUserName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, user.LastLogin, stored.LastLogin)
}

func TestLoginUserWrongPassword(t *testing.T) {
	m := NewUserManager(NewMemoryUserRepository())
	ctx := context.Background()

	_, err := m.RegisterUser(ctx, RegisterCommand{
		UserName: "bob", Password: "hunter22", Email: "bob@example.com",
	})
	require.NoError(t, err)

	_, err = m.LoginUser(ctx, LoginCommand{UserName: "bob", Password: "wrongpass"})
	require.Error(t, err)
	assert.Equal(t, status.CodeUnauthenticated, status.CodeOf(err))
}

func TestLoginUserUnknown(t *testing.T) {
	m := NewUserManager(NewMemoryUserRepository())

	_, err := m.LoginUser(context.Background(), LoginCommand{UserName: "ghost", Password: "whatever1"})
	require.Error(t, err)
	assert.Equal(t, status.CodeNotFound, status.CodeOf(err))
}

func TestHashPasswordDeterministic(t *testing.T) {
	h1 := hashPassword("secret123", "salt")
	h2 := hashPassword("secret123", "salt")
	h3 := hashPassword("secret123", "other")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
