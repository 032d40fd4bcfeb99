package service

import (
	"context"
	"errors"
	"testing"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignupLogsInAndRoutesByRole(t *testing.T) {
	_, client := newFakeBackend(t)
	auth := NewAuthService(client, NewBoardCache())
	ctx := context.Background()

	cases := []struct {
		username string
		email    string
		wantHome string
	}{
		{"admin-alice", "alice@example.com", "/admin"},
		{"bob", "bob@example.com", "/employee"},
	}
	for _, tc := range cases {
		t.Run(tc.username, func(t *testing.T) {
			sess := newScopedSession()

			user, err := auth.Signup(ctx, sess, SignupRequest{Username: tc.username, Email: tc.email, Password: "secret"})

			require.NoError(t, err)
			assert.Equal(t, tc.wantHome, user.HomePath())
			assert.Equal(t, tc.email, user.Email)

			stored, err := sess.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "token-"+tc.username, stored.Token)
			assert.Equal(t, tc.username, stored.User.Username)
		})
	}
}

func TestAuthService_SignupValidatesBeforeCallingBackend(t *testing.T) {
	fb, client := newFakeBackend(t)
	auth := NewAuthService(client, NewBoardCache())

	_, err := auth.Signup(context.Background(), newScopedSession(), SignupRequest{Email: "x@example.com"})

	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "username: required\npassword: required", common.Message(err))
	assert.Zero(t, fb.requestCount())
}

func TestAuthService_SignupDoesNotLoginWhenRegisterFails(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.addUser("taken@example.com", "someone", "pw", model.RoleEmployee)
	auth := NewAuthService(client, NewBoardCache())
	sess := newScopedSession()

	_, err := auth.Signup(context.Background(), sess, SignupRequest{Username: "new", Email: "taken@example.com", Password: "pw"})

	require.Error(t, err)
	assert.Equal(t, "Email already registered", common.Message(err))
	assert.Equal(t, 1, fb.requestCount())
	stored, _ := sess.Load(context.Background())
	assert.True(t, stored.Empty())
}

func TestAuthService_FailedLoginClearsPreviousSession(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.addUser("carol@example.com", "carol", "right", model.RoleEmployee)
	auth := NewAuthService(client, NewBoardCache())
	sess := newScopedSession()
	ctx := context.Background()

	_, err := auth.Login(ctx, sess, LoginRequest{Email: "carol@example.com", Password: "right"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, sess, LoginRequest{Email: "carol@example.com", Password: "wrong"})

	require.True(t, errors.Is(err, common.ErrAuth))
	assert.Equal(t, "Incorrect email or password", common.Message(err))
	user, err := auth.CurrentUser(ctx, sess)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthService_Logout(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.addUser("dan@example.com", "dan", "pw", model.RoleEmployee)
	boards := NewBoardCache()
	auth := NewAuthService(client, boards)
	sess := newScopedSession()
	ctx := context.Background()

	_, err := auth.Login(ctx, sess, LoginRequest{Email: "dan@example.com", Password: "pw"})
	require.NoError(t, err)
	boards.Board(sess.SID(), ViewEmployee).Reset([]model.LeaveRecord{{ID: 1}})

	require.NoError(t, auth.Logout(ctx, sess))
	require.NoError(t, auth.Logout(ctx, sess))

	user, err := auth.CurrentUser(ctx, sess)
	require.NoError(t, err)
	assert.Nil(t, user)
	_, loaded := boards.Board(sess.SID(), ViewEmployee).Snapshot()
	assert.False(t, loaded)
}
