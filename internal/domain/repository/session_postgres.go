package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"leave_portal/internal/common/security"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/platform/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSessionChannel = "portal_session_events"

const pgSessionSchema = `CREATE TABLE IF NOT EXISTS portal_sessions (
	session_key    TEXT PRIMARY KEY,
	token          TEXT NOT NULL,
	logged_in_user JSONB NOT NULL,
	expires_at     TIMESTAMPTZ,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type pgSessionStore struct {
	db          *pgxpool.Pool
	subscribers *subscriberSet

	listenMu  sync.Mutex
	listening bool
}

// NewPgSessionStore keeps sessions in the portal_sessions table and announces
// changes with NOTIFY on portal_session_events. All subscribers of one store
// share a single LISTEN connection taken out of the pool.
func NewPgSessionStore(db *pgxpool.Pool) SessionStore {
	return &pgSessionStore{db: db, subscribers: newSubscriberSet()}
}

// EnsurePgSessionSchema creates the sessions table if it does not exist yet.
func EnsurePgSessionSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, pgSessionSchema)
	if err != nil {
		// Two instances racing on CREATE TABLE IF NOT EXISTS can still collide on pg_type.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "42P07") {
			return nil
		}
		return fmt.Errorf("EnsurePgSessionSchema: %w", err)
	}
	return nil
}

type pgEvent struct {
	Key  string                 `json:"key"`
	Kind model.SessionEventKind `json:"kind"`
	At   time.Time              `json:"at"`
}

func (r *pgSessionStore) Load(ctx context.Context, sid string) (model.Session, error) {
	return r.load(ctx, security.SessionKey(sid))
}

func (r *pgSessionStore) load(ctx context.Context, key string) (model.Session, error) {
	query := `SELECT token, logged_in_user, expires_at
	          FROM portal_sessions
	          WHERE session_key = $1 AND (expires_at IS NULL OR expires_at > now())`
	var (
		token     string
		userJSON  []byte
		expiresAt *time.Time
	)
	err := r.db.QueryRow(ctx, query, key).Scan(&token, &userJSON, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, nil
		}
		return model.Session{}, fmt.Errorf("pgSessionStore.Load: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		log.Printf("WARN: Discarding session with unreadable user: %v", err)
		return model.Session{}, nil
	}
	s := model.Session{Token: token, User: &user}
	if expiresAt != nil {
		s.ExpiresAt = *expiresAt
	}
	return s, nil
}

func (r *pgSessionStore) Save(ctx context.Context, sid string, s model.Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	userJSON, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("pgSessionStore.Save: %w", err)
	}
	var expiresAt *time.Time
	if !s.ExpiresAt.IsZero() {
		expiresAt = &s.ExpiresAt
	}

	key := security.SessionKey(sid)
	query := `INSERT INTO portal_sessions (session_key, token, logged_in_user, expires_at, updated_at)
	          VALUES ($1, $2, $3, $4, now())
	          ON CONFLICT (session_key) DO UPDATE
	          SET token = EXCLUDED.token, logged_in_user = EXCLUDED.logged_in_user,
	              expires_at = EXCLUDED.expires_at, updated_at = now()`
	return r.inTxWithNotify(ctx, key, model.SessionSaved, func(tx pgx.Tx) (bool, error) {
		_, err := tx.Exec(ctx, query, key, s.Token, userJSON, expiresAt)
		return true, err
	})
}

func (r *pgSessionStore) Clear(ctx context.Context, sid string) error {
	key := security.SessionKey(sid)
	return r.inTxWithNotify(ctx, key, model.SessionCleared, func(tx pgx.Tx) (bool, error) {
		tag, err := tx.Exec(ctx, `DELETE FROM portal_sessions WHERE session_key = $1`, key)
		return tag.RowsAffected() > 0, err
	})
}

// inTxWithNotify runs write and, when it reports a change, queues the NOTIFY in
// the same transaction so listeners never hear about an uncommitted write.
func (r *pgSessionStore) inTxWithNotify(ctx context.Context, key string, kind model.SessionEventKind, write func(pgx.Tx) (bool, error)) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgSessionStore: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	changed, err := write(tx)
	if err != nil {
		return fmt.Errorf("pgSessionStore %s: %w", kind, err)
	}
	if changed {
		payload, _ := json.Marshal(pgEvent{Key: key, Kind: kind, At: time.Now()})
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, pgSessionChannel, string(payload)); err != nil {
			return fmt.Errorf("pgSessionStore notify: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgSessionStore: commit: %w", err)
	}
	if changed {
		metrics.SessionEventsTotal.WithLabelValues(string(kind)).Inc()
	}
	return nil
}

func (r *pgSessionStore) Subscribe(ctx context.Context, sid string) (<-chan model.SessionEvent, error) {
	// Adding under listenMu keeps a subscriber from joining a listener that is shutting down.
	r.listenMu.Lock()
	defer r.listenMu.Unlock()
	if err := r.ensureListenerLocked(ctx); err != nil {
		return nil, err
	}
	return r.subscribers.add(ctx, security.SessionKey(sid)), nil
}

// ensureListenerLocked starts the store's LISTEN connection on first use. The
// connection is hijacked from the pool so it never counts against MaxConns.
func (r *pgSessionStore) ensureListenerLocked(ctx context.Context) error {
	if r.listening {
		return nil
	}

	pooled, err := r.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("pgSessionStore.Subscribe: acquire: %w", err)
	}
	conn := pooled.Hijack()
	if _, err := conn.Exec(ctx, "LISTEN "+pgSessionChannel); err != nil {
		conn.Close(context.Background())
		return fmt.Errorf("pgSessionStore.Subscribe: listen: %w", err)
	}
	r.listening = true
	go r.dispatch(conn)
	return nil
}

// dispatch forwards notifications to subscribers until the connection fails.
// Subscriptions end with it; the next Subscribe starts a new listener.
func (r *pgSessionStore) dispatch(conn *pgx.Conn) {
	defer func() {
		conn.Close(context.Background())
		r.listenMu.Lock()
		r.listening = false
		r.subscribers.closeAll()
		r.listenMu.Unlock()
	}()

	for {
		n, err := conn.WaitForNotification(context.Background())
		if err != nil {
			log.Printf("ERROR: Session listener stopped: %v", err)
			return
		}
		var raw pgEvent
		if err := json.Unmarshal([]byte(n.Payload), &raw); err != nil {
			log.Printf("WARN: Ignoring malformed session event: %v", err)
			continue
		}
		if !r.subscribers.has(raw.Key) {
			continue
		}

		ev := model.NewSessionEvent(raw.Kind, model.Session{}, raw.At)
		if raw.Kind == model.SessionSaved {
			loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s, err := r.load(loadCtx, raw.Key)
			cancel()
			if err != nil {
				log.Printf("ERROR: Failed to load session for event: %v", err)
			}
			ev = model.NewSessionEvent(raw.Kind, s, raw.At)
		}
		r.subscribers.publish(raw.Key, ev)
	}
}

func (r *pgSessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM portal_sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pgSessionStore.Sweep: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
