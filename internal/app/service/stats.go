package service

import (
	"time"

	"leave_portal/internal/domain/model"
)

// LeaveStats summarizes every leave record for the admin dashboard.
type LeaveStats struct {
	Total         int                 `json:"total"`
	Pending       int                 `json:"pending"`
	Approved      int                 `json:"approved"`
	Rejected      int                 `json:"rejected"`
	OnLeaveToday  []model.LeaveRecord `json:"on_leave_today"`
	MonthlyCounts [12]int             `json:"monthly_counts"`
	LatestPending *model.LeaveRecord  `json:"latest_pending,omitempty"`
}

var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ComputeStats counts records by status, finds who is on approved leave on
// today's UTC calendar date, buckets records by start month and picks the newest
// pending request.
func ComputeStats(records []model.LeaveRecord, today time.Time) LeaveStats {
	stats := LeaveStats{Total: len(records), OnLeaveToday: []model.LeaveRecord{}}
	today = today.UTC()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var (
		latestKey time.Time
		latestOK  bool
	)
	for i := range records {
		r := records[i]
		switch {
		case r.Status.Is(model.LeaveStatusPending):
			stats.Pending++
			key, ok := recency(r)
			if stats.LatestPending == nil || (ok && (!latestOK || key.After(latestKey))) {
				rec := r
				stats.LatestPending = &rec
				latestKey, latestOK = key, ok
			}
		case r.Status.Is(model.LeaveStatusApproved):
			stats.Approved++
			start, okStart := model.ParseDate(r.StartDate)
			end, okEnd := model.ParseDate(r.EndDate)
			if okStart && okEnd && !day.Before(start) && !day.After(end) {
				stats.OnLeaveToday = append(stats.OnLeaveToday, r)
			}
		case r.Status.Is(model.LeaveStatusRejected):
			stats.Rejected++
		}

		if start, ok := model.ParseDate(r.StartDate); ok {
			stats.MonthlyCounts[start.Month()-1]++
		}
	}
	return stats
}

var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", model.DateLayout}

// recency orders pending records by created_at, falling back to start_date.
func recency(r model.LeaveRecord) (time.Time, bool) {
	if r.CreatedAt != "" {
		for _, layout := range createdAtLayouts {
			if t, err := time.Parse(layout, r.CreatedAt); err == nil {
				return t, true
			}
		}
	}
	return model.ParseDate(r.StartDate)
}
