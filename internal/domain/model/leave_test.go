package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInclusiveDays(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		want       int
	}{
		{"single day", "2024-03-01", "2024-03-01", 1},
		{"range", "2024-03-01", "2024-03-05", 5},
		{"across month", "2024-02-28", "2024-03-01", 3},
		{"inverted", "2024-03-05", "2024-03-01", 0},
		{"malformed start", "03/01/2024", "2024-03-05", 0},
		{"empty end", "2024-03-01", "", 0},
		{"timestamp suffix", "2024-03-01T00:00:00", " 2024-03-02 ", 2},
		{"rfc3339 with offset", "2024-03-01T23:30:00+05:30", "2024-03-02 08:00:00", 2},
		{"garbage suffix", "2025-01-10garbage", "2025-01-12", 0},
		{"junk after end", "2025-01-10", "2025-01-12!!", 0},
		{"bad time part", "2025-01-10T99:00:00", "2025-01-12", 0},
		{"whole calendar", "0001-01-01", "9999-12-31", 3652059},
		{"leap year", "2024-02-28", "2024-03-01", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := LeaveRecord{StartDate: tc.start, EndDate: tc.end}
			assert.Equal(t, tc.want, r.InclusiveDays())
		})
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2025-01-10T10:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), got)

	for _, raw := range []string{"2025-01-10garbage", "2025-01-10 x", "2025-1-10", "", "2025-02-30"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mar 5, 2024", FormatDate("2024-03-05"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
	assert.Equal(t, "", FormatDate(""))
}

func TestLeaveStatusIsCaseInsensitive(t *testing.T) {
	assert.True(t, LeaveStatus("Approved").Is(LeaveStatusApproved))
	assert.False(t, LeaveStatus("pending").Is(LeaveStatusApproved))
	assert.True(t, LeaveStatusRejected.Decision())
	assert.False(t, LeaveStatusPending.Decision())
}

func TestSessionValid(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &User{Username: "ann", Role: RoleEmployee}

	assert.False(t, Session{}.Valid(now))
	assert.False(t, Session{Token: "t"}.Valid(now))
	assert.True(t, Session{Token: "t", User: user}.Valid(now))
	assert.True(t, Session{Token: "t", User: user, ExpiresAt: now.Add(time.Minute)}.Valid(now))
	assert.False(t, Session{Token: "t", User: user, ExpiresAt: now}.Valid(now))
}

func TestUserHomePathAndInitials(t *testing.T) {
	assert.Equal(t, "/admin", User{Role: "Admin"}.HomePath())
	assert.Equal(t, "/employee", User{Role: RoleEmployee}.HomePath())
	assert.Equal(t, "AN", User{Username: "ann"}.Initials())
	assert.Equal(t, "UN", User{}.Initials())
}

func TestPolicyLookups(t *testing.T) {
	p := DefaultPolicy()
	a, ok := p.BySlug("maternity-paternity")
	assert.True(t, ok)
	assert.Equal(t, "Maternity/Paternity", a.LeaveType)
	assert.Equal(t, 30, p.Limits()["Maternity/Paternity"])
	assert.True(t, p.Has("Sick"))
	assert.False(t, p.Has("sick"))
	_, ok = p.BySlug("")
	assert.False(t, ok)
}
