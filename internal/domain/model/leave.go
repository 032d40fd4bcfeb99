package model

import (
	"strings"
	"time"
)

// DateLayout is the wire format of leave dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// Is compares statuses case-insensitively; the backend is not consistent about casing.
func (s LeaveStatus) Is(other LeaveStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

// Decision reports whether s is a status an admin may set.
func (s LeaveStatus) Decision() bool {
	return s == LeaveStatusApproved || s == LeaveStatusRejected
}

type LeaveOwner struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// LeaveRecord is a cached copy of one leave request owned by the backend.
// Dates stay as the raw wire strings so they can be echoed back unchanged.
type LeaveRecord struct {
	ID        int         `json:"id"`
	LeaveType string      `json:"leave_type"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Reason    string      `json:"reason"`
	Status    LeaveStatus `json:"status"`
	OwnerID   int         `json:"owner_id,omitempty"`
	Owner     *LeaveOwner `json:"owner,omitempty"`
	CreatedAt string      `json:"created_at,omitempty"`
}

// LeaveRequest is the body of POST /leaves/.
type LeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// timestampLayouts are the full timestamps accepted where a date is expected.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate parses a wire date. Surrounding whitespace is tolerated, and so is
// a time part when the whole value is a valid timestamp; the calendar date as
// written is kept.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		if sep := raw[len(DateLayout)]; sep != 'T' && sep != ' ' {
			return time.Time{}, false
		}
		if !isTimestamp(raw) {
			return time.Time{}, false
		}
		raw = raw[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isTimestamp(raw string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

// InclusiveDays counts the days of an approved record; malformed or inverted ranges count zero.
func (r LeaveRecord) InclusiveDays() int {
	start, ok := ParseDate(r.StartDate)
	if !ok {
		return 0
	}
	end, ok := ParseDate(r.EndDate)
	if !ok {
		return 0
	}
	if end.Before(start) {
		return 0
	}
	// Unix seconds rather than Duration, which overflows past ~292 years.
	return int((end.Unix()-start.Unix())/secondsPerDay) + 1
}

// FormatDate renders a wire date for display, falling back to the raw string.
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("Jan 2, 2006")
}
