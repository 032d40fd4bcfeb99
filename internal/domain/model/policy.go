package model

import "github.com/gosimple/slug"

// Allowance is the annual number of days granted for one leave type.
type Allowance struct {
	LeaveType string `mapstructure:"leave_type" json:"leave_type"`
	Days      int    `mapstructure:"days" json:"days"`
}

func (a Allowance) Slug() string {
	return slug.Make(a.LeaveType)
}

// Policy is the ordered company leave policy table.
type Policy []Allowance

func DefaultPolicy() Policy {
	return Policy{
		{LeaveType: "Annual", Days: 20},
		{LeaveType: "Sick", Days: 10},
		{LeaveType: "Marriage", Days: 5},
		{LeaveType: "Maternity/Paternity", Days: 30},
	}
}

// Limits returns the policy as the leave_type -> days map consumed by the balance calculator.
func (p Policy) Limits() map[string]int {
	limits := make(map[string]int, len(p))
	for _, a := range p {
		limits[a.LeaveType] = a.Days
	}
	return limits
}

// BySlug finds the allowance whose slug matches s.
func (p Policy) BySlug(s string) (Allowance, bool) {
	for _, a := range p {
		if a.Slug() == s {
			return a, true
		}
	}
	return Allowance{}, false
}

func (p Policy) Has(leaveType string) bool {
	for _, a := range p {
		if a.LeaveType == leaveType {
			return true
		}
	}
	return false
}
