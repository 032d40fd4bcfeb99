package service

import (
	"context"
	"testing"
	"time"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T, fb *fakeBackend, auth *AuthService, email, username, role string) *repository.ScopedSession {
	t.Helper()
	fb.addUser(email, username, "pw", role)
	sess := newScopedSession()
	_, err := auth.Login(context.Background(), sess, LoginRequest{Email: email, Password: "pw"})
	require.NoError(t, err)
	return sess
}

func TestAdminService_RejectsEmployees(t *testing.T) {
	fb, client := newFakeBackend(t)
	boards := NewBoardCache()
	sess := loggedIn(t, fb, NewAuthService(client, boards), "emp@example.com", "emp", model.RoleEmployee)
	admin := NewAdminService(client, boards)

	_, err := admin.Dashboard(context.Background(), sess)
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = admin.Decide(context.Background(), sess, 1, model.LeaveStatusApproved)
	require.ErrorIs(t, err, common.ErrForbidden)
}

func TestAdminService_DashboardAndDecide(t *testing.T) {
	fb, client := newFakeBackend(t)
	boards := NewBoardCache()
	sess := loggedIn(t, fb, NewAuthService(client, boards), "boss@example.com", "boss", model.RoleAdmin)
	admin := NewAdminService(client, boards)
	admin.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	fb.setLeaves(
		model.LeaveRecord{ID: 1, LeaveType: "Annual", StartDate: "2025-03-09", EndDate: "2025-03-11", Status: model.LeaveStatusApproved},
		model.LeaveRecord{ID: 2, LeaveType: "Sick", StartDate: "2025-03-20", EndDate: "2025-03-20", Status: model.LeaveStatusPending},
		model.LeaveRecord{ID: 3, LeaveType: "Sick", StartDate: "2025-04-01", EndDate: "2025-04-02", Status: model.LeaveStatusPending},
	)
	ctx := context.Background()

	dash, err := admin.Dashboard(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", dash.Today)
	assert.Equal(t, 2, dash.Stats.Pending)
	require.Len(t, dash.Stats.OnLeaveToday, 1)

	rec, err := admin.Decide(ctx, sess, 2, model.LeaveStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, rec.Status)

	// The board is updated in place even when the next refresh fails.
	fb.setFailList(true)
	dash, err = admin.Dashboard(ctx, sess)
	require.NoError(t, err)
	assert.NotEmpty(t, dash.Error)
	ids := []int{dash.Leaves[0].ID, dash.Leaves[1].ID, dash.Leaves[2].ID}
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Equal(t, model.LeaveStatusApproved, dash.Leaves[1].Status)
	assert.Equal(t, model.LeaveStatusPending, dash.Leaves[2].Status)
}

func TestAdminService_DecideRejectsNonDecision(t *testing.T) {
	fb, client := newFakeBackend(t)
	boards := NewBoardCache()
	sess := loggedIn(t, fb, NewAuthService(client, boards), "boss@example.com", "boss", model.RoleAdmin)
	before := fb.requestCount()

	_, err := NewAdminService(client, boards).Decide(context.Background(), sess, 1, model.LeaveStatusPending)

	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, before, fb.requestCount())
}
