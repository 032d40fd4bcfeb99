package repository

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"leave_portal/internal/common"
	"leave_portal/internal/common/security"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/platform/metrics"
)

// SessionStore persists one Session per browser session id (sid).
// Save writes token and user atomically; Load returns the empty Session when
// nothing is stored, the entry was cleared, or it has expired.
type SessionStore interface {
	Load(ctx context.Context, sid string) (model.Session, error)
	Save(ctx context.Context, sid string, s model.Session) error
	Clear(ctx context.Context, sid string) error
	// Subscribe streams changes for sid until ctx is done, then closes the channel.
	Subscribe(ctx context.Context, sid string) (<-chan model.SessionEvent, error)
	// Sweep removes sessions that expired before now.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func validateSession(s model.Session) error {
	if s.Empty() {
		return fmt.Errorf("session must carry both token and user: %w", common.ErrValidation)
	}
	return nil
}

func cloneSession(s model.Session) model.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

const subscriberBuffer = 8

// subscriberSet fans session events out to in-process subscribers by storage key.
type subscriberSet struct {
	mu   sync.Mutex
	subs map[string]map[chan model.SessionEvent]struct{}
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: make(map[string]map[chan model.SessionEvent]struct{})}
}

// add registers a subscriber for key that is removed and closed once ctx is done.
func (s *subscriberSet) add(ctx context.Context, key string) <-chan model.SessionEvent {
	ch := make(chan model.SessionEvent, subscriberBuffer)

	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[chan model.SessionEvent]struct{})
	}
	s.subs[key][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		// closeAll may have got here first.
		if _, ok := s.subs[key][ch]; !ok {
			return
		}
		delete(s.subs[key], ch)
		if len(s.subs[key]) == 0 {
			delete(s.subs, key)
		}
		close(ch)
	}()
	return ch
}

func (s *subscriberSet) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[key]) > 0
}

// publish never blocks: slow subscribers miss events rather than stall writers.
func (s *subscriberSet) publish(key string, ev model.SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs[key] {
		select {
		case ch <- ev:
		default:
			log.Printf("WARN: Dropped %s session event for a slow subscriber", ev.Kind)
		}
	}
}

// closeAll ends every subscription, e.g. when the event source is lost.
func (s *subscriberSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, chans := range s.subs {
		for ch := range chans {
			close(ch)
		}
		delete(s.subs, key)
	}
}

type memorySessionStore struct {
	mu          sync.Mutex
	entries     map[string]model.Session
	subscribers *subscriberSet
	now         func() time.Time
}

// NewMemorySessionStore keeps sessions in process memory. Notifications only
// reach subscribers inside the same process.
func NewMemorySessionStore() SessionStore {
	return newMemorySessionStore(time.Now)
}

func newMemorySessionStore(now func() time.Time) *memorySessionStore {
	return &memorySessionStore{
		entries:     make(map[string]model.Session),
		subscribers: newSubscriberSet(),
		now:         now,
	}
}

func (m *memorySessionStore) Load(ctx context.Context, sid string) (model.Session, error) {
	key := security.SessionKey(sid)
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return model.Session{}, nil
	}
	if !entry.Valid(m.now()) {
		delete(m.entries, key)
		return model.Session{}, nil
	}
	return cloneSession(entry), nil
}

func (m *memorySessionStore) Save(ctx context.Context, sid string, s model.Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	key := security.SessionKey(sid)
	s = cloneSession(s)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = s
	m.publishLocked(key, model.NewSessionEvent(model.SessionSaved, cloneSession(s), m.now()))
	return nil
}

func (m *memorySessionStore) Clear(ctx context.Context, sid string) error {
	key := security.SessionKey(sid)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return nil
	}
	delete(m.entries, key)
	m.publishLocked(key, model.NewSessionEvent(model.SessionCleared, model.Session{}, m.now()))
	return nil
}

func (m *memorySessionStore) Subscribe(ctx context.Context, sid string) (<-chan model.SessionEvent, error) {
	return m.subscribers.add(ctx, security.SessionKey(sid)), nil
}

func (m *memorySessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if !entry.Valid(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// publishLocked must be called with m.mu held so events keep write order.
func (m *memorySessionStore) publishLocked(key string, ev model.SessionEvent) {
	metrics.SessionEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	m.subscribers.publish(key, ev)
}

// ScopedSession is a SessionStore bound to one browser.
type ScopedSession struct {
	store SessionStore
	sid   string
}

func Scope(store SessionStore, sid string) *ScopedSession {
	return &ScopedSession{store: store, sid: sid}
}

func (s *ScopedSession) SID() string { return s.sid }

func (s *ScopedSession) Load(ctx context.Context) (model.Session, error) {
	return s.store.Load(ctx, s.sid)
}

func (s *ScopedSession) Save(ctx context.Context, sess model.Session) error {
	return s.store.Save(ctx, s.sid, sess)
}

func (s *ScopedSession) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.sid)
}

func (s *ScopedSession) Subscribe(ctx context.Context) (<-chan model.SessionEvent, error) {
	return s.store.Subscribe(ctx, s.sid)
}
