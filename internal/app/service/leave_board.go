package service

import (
	"sync"
	"time"

	"leave_portal/internal/domain/model"
)

// LeaveBoard is the cached list a dashboard renders from. A failed refresh
// leaves the previous list in place.
type LeaveBoard struct {
	mu       sync.Mutex
	records  []model.LeaveRecord
	loaded   bool
	lastUsed time.Time
}

func (b *LeaveBoard) Reset(records []model.LeaveRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append([]model.LeaveRecord(nil), records...)
	b.loaded = true
}

// Append adds a newly created record as returned by the backend.
func (b *LeaveBoard) Append(rec model.LeaveRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, rec)
}

// Replace swaps the record with rec.ID in place and reports whether it was found.
func (b *LeaveBoard) Replace(rec model.LeaveRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.records {
		if b.records[i].ID == rec.ID {
			b.records[i] = rec
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the cached records and whether a fetch ever succeeded.
func (b *LeaveBoard) Snapshot() ([]model.LeaveRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.LeaveRecord{}, b.records...), b.loaded
}

const (
	ViewEmployee = "employee"
	ViewAdmin    = "admin"
)

// BoardCache holds one LeaveBoard per browser and view.
type BoardCache struct {
	mu     sync.Mutex
	boards map[string]map[string]*LeaveBoard
	now    func() time.Time
}

func NewBoardCache() *BoardCache {
	return &BoardCache{boards: make(map[string]map[string]*LeaveBoard), now: time.Now}
}

func (c *BoardCache) Board(sid, view string) *LeaveBoard {
	c.mu.Lock()
	defer c.mu.Unlock()
	views, ok := c.boards[sid]
	if !ok {
		views = make(map[string]*LeaveBoard)
		c.boards[sid] = views
	}
	b, ok := views[view]
	if !ok {
		b = &LeaveBoard{}
		views[view] = b
	}
	b.mu.Lock()
	b.lastUsed = c.now()
	b.mu.Unlock()
	return b
}

// Drop forgets every board of a browser, e.g. on logout.
func (c *BoardCache) Drop(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, sid)
}

// Prune drops browsers whose boards were all last used before cutoff.
func (c *BoardCache) Prune(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for sid, views := range c.boards {
		stale := true
		for _, b := range views {
			b.mu.Lock()
			if !b.lastUsed.Before(cutoff) {
				stale = false
			}
			b.mu.Unlock()
		}
		if stale {
			delete(c.boards, sid)
			removed++
		}
	}
	return removed
}
