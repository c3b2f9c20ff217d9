package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/core/internal/domain/entities"
	"github.com/tasknest/core/internal/ports"
)

func TestAuthServiceRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, ports.RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer", resp.TokenType)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
	require.NotNil(t, resp.User.Email)
	assert.Equal(t, "alice@example.com", *resp.User.Email, "email is normalized")
	assert.Empty(t, resp.User.PasswordHash, "hash never leaves the service")

	claims, err := env.auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthServiceRegisterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     ports.RegisterRequest
		wantErr error
	}{
		{
			name:    "short username",
			req:     ports.RegisterRequest{Username: "ab", Password: "secret123"},
			wantErr: entities.ErrValidation,
		},
		{
			name:    "weak password",
			req:     ports.RegisterRequest{Username: "alice", Password: "short"},
			wantErr: entities.ErrWeakPassword,
		},
		{
			name:    "password without digits",
			req:     ports.RegisterRequest{Username: "alice", Password: "allletters"},
			wantErr: entities.ErrWeakPassword,
		},
		{
			name:    "bad email",
			req:     ports.RegisterRequest{Username: "alice", Email: "nope", Password: "secret123"},
			wantErr: entities.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice")

	_, err := env.auth.Register(ctx, ports.RegisterRequest{Username: "alice", Password: "other456"})
	assert.ErrorIs(t, err, entities.ErrDuplicateUsername)
}

func TestAuthServiceLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered := env.register(t, "alice")
	assert.Nil(t, registered.User.LastLogin)

	resp, err := env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User.LastLogin, "login stamps last_login")
}

func TestAuthServiceLoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice")

	// Wrong password and unknown username fail identically so the API leaks
	// nothing about which usernames exist.
	_, errWrongPassword := env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "wrong999"})
	_, errUnknownUser := env.auth.Login(ctx, ports.LoginRequest{Username: "nobody", Password: "secret123"})

	assert.ErrorIs(t, errWrongPassword, entities.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownUser, entities.ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownUser.Error())
}

func TestAuthServiceLoginFailureDoesNotTouchLastLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered := env.register(t, "alice")

	_, err := env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "wrong999"})
	require.ErrorIs(t, err, entities.ErrInvalidCredentials)

	user, err := env.userRepo.GetByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Nil(t, user.LastLogin)
}

func TestAuthServiceInactiveAccountCannotLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered := env.register(t, "alice")
	require.NoError(t, env.users.Deactivate(ctx, registered.User.ID))

	_, err := env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	require.NoError(t, env.users.Activate(ctx, registered.User.ID))
	_, err = env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "secret123"})
	assert.NoError(t, err)
}

func TestAuthServiceLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := env.register(t, "alice")

	_, err := env.auth.ValidateToken(resp.Token)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, resp.Token))

	_, err = env.auth.ValidateToken(resp.Token)
	assert.Error(t, err, "revoked token must stop validating")

	// Logging out twice fails because the token is already dead.
	assert.Error(t, env.auth.Logout(ctx, resp.Token))
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.ValidateToken("not-a-token")
	assert.Error(t, err)

	_, err = env.auth.ValidateToken("")
	assert.Error(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := env.register(t, "alice")

	err := env.auth.ChangePassword(ctx, resp.User.ID, ports.ChangePasswordRequest{
		OldPassword: "wrong999",
		NewPassword: "newpass456",
	})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	err = env.auth.ChangePassword(ctx, resp.User.ID, ports.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "weak",
	})
	assert.ErrorIs(t, err, entities.ErrWeakPassword)

	require.NoError(t, env.auth.ChangePassword(ctx, resp.User.ID, ports.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newpass456",
	}))

	_, err = env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, ports.LoginRequest{Username: "alice", Password: "newpass456"})
	assert.NoError(t, err)
}
