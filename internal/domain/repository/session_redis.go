package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"leave_portal/internal/common/security"
	"leave_portal/internal/domain/model"
	"leave_portal/internal/platform/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	redisSessionPrefix = "portal_session:"
	redisEventPrefix   = "portal_session_events:"
)

type redisSessionStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisSessionStore keeps each session in a hash with fields token,
// loggedInUser and expiresAt. Changes are announced on a pub/sub channel per
// session so every portal instance can notify its open tabs.
func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{rdb: rdb, now: time.Now}
}

type redisEvent struct {
	Kind model.SessionEventKind `json:"kind"`
	At   time.Time              `json:"at"`
}

func (r *redisSessionStore) Load(ctx context.Context, sid string) (model.Session, error) {
	return r.load(ctx, redisSessionPrefix+security.SessionKey(sid))
}

func (r *redisSessionStore) load(ctx context.Context, key string) (model.Session, error) {
	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	token, userJSON := fields["token"], fields["loggedInUser"]
	if token == "" || userJSON == "" {
		return model.Session{}, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		log.Printf("WARN: Discarding session with unreadable user: %v", err)
		return model.Session{}, nil
	}
	s := model.Session{Token: token, User: &user}
	if raw := fields["expiresAt"]; raw != "" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil && unix > 0 {
			s.ExpiresAt = time.Unix(unix, 0)
		}
	}
	if !s.Valid(r.now()) {
		return model.Session{}, nil
	}
	return s, nil
}

func (r *redisSessionStore) Save(ctx context.Context, sid string, s model.Session) error {
	if err := validateSession(s); err != nil {
		return err
	}
	userJSON, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}
	var expiresAt int64
	if !s.ExpiresAt.IsZero() {
		expiresAt = s.ExpiresAt.Unix()
	}

	key := security.SessionKey(sid)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisSessionPrefix+key,
			"token", s.Token,
			"loggedInUser", string(userJSON),
			"expiresAt", expiresAt,
		)
		if expiresAt > 0 {
			pipe.ExpireAt(ctx, redisSessionPrefix+key, s.ExpiresAt)
		} else {
			pipe.Persist(ctx, redisSessionPrefix+key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	r.publish(ctx, key, model.SessionSaved)
	return nil
}

func (r *redisSessionStore) Clear(ctx context.Context, sid string) error {
	key := security.SessionKey(sid)
	removed, err := r.rdb.Del(ctx, redisSessionPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if removed > 0 {
		r.publish(ctx, key, model.SessionCleared)
	}
	return nil
}

func (r *redisSessionStore) publish(ctx context.Context, key string, kind model.SessionEventKind) {
	metrics.SessionEventsTotal.WithLabelValues(string(kind)).Inc()
	payload, _ := json.Marshal(redisEvent{Kind: kind, At: r.now()})
	if err := r.rdb.Publish(ctx, redisEventPrefix+key, payload).Err(); err != nil {
		// The write itself succeeded; open tabs catch up on their next request.
		log.Printf("ERROR: Failed to publish %s session event: %v", kind, err)
	}
}

func (r *redisSessionStore) Subscribe(ctx context.Context, sid string) (<-chan model.SessionEvent, error) {
	key := security.SessionKey(sid)
	pubsub := r.rdb.Subscribe(ctx, redisEventPrefix+key)
	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session events: %w", err)
	}

	out := make(chan model.SessionEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var raw redisEvent
				if err := json.Unmarshal([]byte(msg.Payload), &raw); err != nil {
					log.Printf("WARN: Ignoring malformed session event: %v", err)
					continue
				}
				ev := model.NewSessionEvent(raw.Kind, model.Session{}, raw.At)
				if raw.Kind == model.SessionSaved {
					s, err := r.load(ctx, redisSessionPrefix+key)
					if err != nil && !errors.Is(err, context.Canceled) {
						log.Printf("ERROR: Failed to load session for event: %v", err)
					}
					ev = model.NewSessionEvent(raw.Kind, s, raw.At)
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Sweep is a no-op: Redis expires session hashes itself via EXPIREAT.
func (r *redisSessionStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
