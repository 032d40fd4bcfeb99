package service

import (
	"context"
	"errors"
	"strings"

	"leave_portal/internal/common"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/domain/repository"
	"leave_portal/internal/platform/leaveapi"
)

type EmployeeService struct {
	client *leaveapi.Client
	boards *BoardCache
	policy model.Policy
}

func NewEmployeeService(client *leaveapi.Client, boards *BoardCache, policy model.Policy) *EmployeeService {
	return &EmployeeService{client: client, boards: boards, policy: policy}
}

type EmployeeDashboard struct {
	User     *model.User         `json:"user"`
	Balances []CategoryBalance   `json:"balances"`
	Leaves   []model.LeaveRecord `json:"leaves"`
	Filter   string              `json:"filter,omitempty"`
	Policy   model.Policy        `json:"policy"`
	Loaded   bool                `json:"loaded"`
	Error    string              `json:"error,omitempty"`
}

// Dashboard refreshes the browser's own leave list and derives balances from
// it. A failed refresh is reported in Error while the previous list stays.
// typeSlug optionally narrows the history to one policy category.
func (s *EmployeeService) Dashboard(ctx context.Context, sess *repository.ScopedSession, typeSlug string) (*EmployeeDashboard, error) {
	user, err := requireUser(ctx, sess)
	if err != nil {
		return nil, err
	}

	board := s.boards.Board(sess.SID(), ViewEmployee)
	dash := &EmployeeDashboard{User: user, Policy: s.policy}

	records, err := s.client.Bind(sess).FetchMyLeaves(ctx)
	switch {
	case err == nil:
		board.Reset(records)
	case errors.Is(err, common.ErrAuth):
		return nil, err
	default:
		dash.Error = common.Message(err)
	}

	all, loaded := board.Snapshot()
	dash.Loaded = loaded
	dash.Balances = OrderedBalances(s.policy, ComputeBalances(all, s.policy.Limits()))
	dash.Leaves = all
	if a, ok := s.policy.BySlug(typeSlug); ok {
		dash.Filter = a.Slug()
		dash.Leaves = filterByType(all, a.LeaveType)
	}
	return dash, nil
}

// Apply submits a leave request after the checks the form does locally and
// appends the created record to the cached list.
func (s *EmployeeService) Apply(ctx context.Context, sess *repository.ScopedSession, req model.LeaveRequest) (*model.LeaveRecord, error) {
	if _, err := requireUser(ctx, sess); err != nil {
		return nil, err
	}
	if err := validateLeaveRequest(req); err != nil {
		return nil, err
	}

	rec, err := s.client.Bind(sess).ApplyLeave(ctx, req)
	if err != nil {
		return nil, err
	}
	s.boards.Board(sess.SID(), ViewEmployee).Append(*rec)
	return rec, nil
}

func validateLeaveRequest(req model.LeaveRequest) error {
	var fields []common.FieldError
	if strings.TrimSpace(req.LeaveType) == "" {
		fields = append(fields, common.FieldError{Field: "leave_type", Message: "required"})
	}
	start, okStart := model.ParseDate(req.StartDate)
	if !okStart {
		fields = append(fields, common.FieldError{Field: "start_date", Message: "must be a date (YYYY-MM-DD)"})
	}
	end, okEnd := model.ParseDate(req.EndDate)
	if !okEnd {
		fields = append(fields, common.FieldError{Field: "end_date", Message: "must be a date (YYYY-MM-DD)"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		fields = append(fields, common.FieldError{Field: "reason", Message: "required"})
	}
	if len(fields) > 0 {
		return common.NewAPIError(common.ErrValidation, 0, "", fields)
	}
	if start.After(end) {
		return common.NewAPIError(common.ErrValidation, 0, "Start Date cannot be after End Date.", nil)
	}
	return nil
}

func filterByType(records []model.LeaveRecord, leaveType string) []model.LeaveRecord {
	out := []model.LeaveRecord{}
	for _, r := range records {
		if r.LeaveType == leaveType {
			out = append(out, r)
		}
	}
	return out
}
