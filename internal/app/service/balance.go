package service

import "leave_portal/internal/domain/model"

// Balance is the used and remaining days of one leave category.
type Balance struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// ComputeBalances totals approved days per leave type and derives what is left
// of each limit. Remaining never goes below zero; over-use only shows in Used.
// Records with malformed dates count zero days. Only categories in limits are
// returned.
func ComputeBalances(records []model.LeaveRecord, limits map[string]int) map[string]Balance {
	used := make(map[string]int)
	for _, r := range records {
		if !r.Status.Is(model.LeaveStatusApproved) {
			continue
		}
		used[r.LeaveType] += r.InclusiveDays()
	}

	balances := make(map[string]Balance, len(limits))
	for leaveType, limit := range limits {
		u := used[leaveType]
		balances[leaveType] = Balance{Used: u, Remaining: max(limit-u, 0)}
	}
	return balances
}

// CategoryBalance is a Balance ready for display next to its policy entry.
type CategoryBalance struct {
	LeaveType string `json:"leave_type"`
	Slug      string `json:"slug"`
	Limit     int    `json:"limit"`
	Balance
}

// OrderedBalances lays balances out in policy order.
func OrderedBalances(policy model.Policy, balances map[string]Balance) []CategoryBalance {
	out := make([]CategoryBalance, 0, len(policy))
	for _, a := range policy {
		out = append(out, CategoryBalance{
			LeaveType: a.LeaveType,
			Slug:      a.Slug(),
			Limit:     a.Days,
			Balance:   balances[a.LeaveType],
		})
	}
	return out
}
