package service

import (
	"context"
	"fmt"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"
)

func requireUser(ctx context.Context, sess *repository.ScopedSession) (*model.User, error) {
	current, err := sess.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if current.Empty() {
		return nil, common.NewAPIError(common.ErrAuth, 0, "Please login first to access your dashboard.", nil)
	}
	return current.User, nil
}

func requireAdmin(ctx context.Context, sess *repository.ScopedSession) (*model.User, error) {
	user, err := requireUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, common.NewAPIError(common.ErrForbidden, 0, "Access denied: Admins only", nil)
	}
	return user, nil
}
