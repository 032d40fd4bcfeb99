package service

import (
	"context"
	"errors"
	"log"
	"time"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"
	"leave_portal/internal/platform/leaveapi"
)

type AdminService struct {
	client *leaveapi.Client
	boards *BoardCache
	now    func() time.Time
}

func NewAdminService(client *leaveapi.Client, boards *BoardCache) *AdminService {
	return &AdminService{client: client, boards: boards, now: time.Now}
}

type AdminDashboard struct {
	User   *model.User         `json:"user"`
	Leaves []model.LeaveRecord `json:"leaves"`
	Stats  LeaveStats          `json:"stats"`
	Today  string              `json:"today"`
	Loaded bool                `json:"loaded"`
	Error  string              `json:"error,omitempty"`
}

// Dashboard refreshes the list of every leave request and its statistics.
func (s *AdminService) Dashboard(ctx context.Context, sess *repository.ScopedSession) (*AdminDashboard, error) {
	user, err := requireAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}

	board := s.boards.Board(sess.SID(), ViewAdmin)
	today := s.now()
	dash := &AdminDashboard{User: user, Today: today.UTC().Format(model.DateLayout)}

	records, err := s.client.Bind(sess).GetAllLeaves(ctx)
	switch {
	case err == nil:
		board.Reset(records)
	case errors.Is(err, common.ErrAuth):
		return nil, err
	default:
		dash.Error = common.Message(err)
	}

	dash.Leaves, dash.Loaded = board.Snapshot()
	dash.Stats = ComputeStats(dash.Leaves, today)
	return dash, nil
}

// Decide approves or rejects one request and swaps the updated record into
// the cached list, leaving every other entry and the order untouched.
func (s *AdminService) Decide(ctx context.Context, sess *repository.ScopedSession, id int, status model.LeaveStatus) (*model.LeaveRecord, error) {
	user, err := requireAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}

	rec, err := s.client.Bind(sess).SetLeaveStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !s.boards.Board(sess.SID(), ViewAdmin).Replace(*rec) {
		log.Printf("WARN: Leave %d updated by %s was not in the cached admin list", id, user.Username)
	}
	log.Printf("INFO: Leave %d marked %s by %s", id, rec.Status, user.Username)
	return rec, nil
}
