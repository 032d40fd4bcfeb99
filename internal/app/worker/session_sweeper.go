package worker

import (
	"context"
	"log"
	"time"

	"leave_portal/internal/app/service"
	"leave_portal/internal/domain/repository"
	"leave_portal/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only if we still own it.
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// SessionSweeper periodically drops expired sessions and stale view caches.
// With a Redis client it holds a lock per run so only one portal instance
// sweeps shared storage at a time.
type SessionSweeper struct {
	store    repository.SessionStore
	boards   *service.BoardCache
	rdb      *redis.Client
	interval time.Duration
	lockKey  string
	lockTTL  time.Duration
	boardTTL time.Duration
	now      func() time.Time
}

func NewSessionSweeper(store repository.SessionStore, boards *service.BoardCache, rdb *redis.Client, interval time.Duration, lockKey string, lockTTL, boardTTL time.Duration) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		boards:   boards,
		rdb:      rdb,
		interval: interval,
		lockKey:  lockKey,
		lockTTL:  lockTTL,
		boardTTL: boardTTL,
		now:      time.Now,
	}
}

func (w *SessionSweeper) Start(ctx context.Context) {
	log.Printf("Session sweeper started, interval %s", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Session sweeper stopping...")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and reports whether it ran (false when another
// instance held the lock).
func (w *SessionSweeper) RunOnce(ctx context.Context) bool {
	// View caches are process-local and never need the lock.
	if pruned := w.boards.Prune(w.now().Add(-w.boardTTL)); pruned > 0 {
		log.Printf("INFO: Pruned view caches of %d idle browsers", pruned)
	}

	if w.rdb == nil {
		w.sweep(ctx)
		return true
	}

	lockValue := uuid.NewString()
	ok, err := w.rdb.SetNX(ctx, w.lockKey, lockValue, w.lockTTL).Result()
	if err != nil {
		log.Printf("ERROR: Failed to attempt sweep lock acquisition: %v", err)
		return false
	}
	if !ok {
		log.Println("INFO: Sweep lock held by another instance, skipping this run.")
		return false
	}
	defer func() {
		deleted, err := releaseLockScript.Run(ctx, w.rdb, []string{w.lockKey}, lockValue).Int64()
		if err != nil {
			log.Printf("ERROR: Failed to release sweep lock %s: %v", w.lockKey, err)
		} else if deleted != 1 {
			log.Printf("WARN: Did not release sweep lock %s; it might have expired or been taken by another.", w.lockKey)
		}
	}()

	w.sweep(ctx)
	return true
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	removed, err := w.store.Sweep(ctx, w.now())
	if err != nil {
		log.Printf("ERROR: Session sweep failed: %v", err)
		return
	}
	if removed > 0 {
		metrics.SessionsSwept.Add(float64(removed))
		log.Printf("INFO: Swept %d expired sessions", removed)
	}
}
