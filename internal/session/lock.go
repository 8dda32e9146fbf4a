package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes turns for a session. Lock blocks until the lock is held
// or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}

// LocalLocker locks sessions within one process. An entry lives only while
// some caller holds or waits for it.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uuid.UUID]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	ll, ok := l.locks[id]
	if !ok {
		ll = &localLock{ch: make(chan struct{}, 1)}
		l.locks[id] = ll
	}
	ll.refs++
	l.mu.Unlock()

	select {
	case ll.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-ll.ch
				l.release(id, ll)
			})
		}, nil
	case <-ctx.Done():
		l.release(id, ll)
		return nil, fmt.Errorf("failed to lock session %s: %w", id, ctx.Err())
	}
}

func (l *LocalLocker) release(id uuid.UUID, ll *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ll.refs--
	if ll.refs == 0 {
		delete(l.locks, id)
	}
}

// Len reports how many sessions currently have a holder or waiter.
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker locks sessions across API instances with SET NX and a TTL.
// The TTL bounds how long a crashed holder can block a session.
type RedisLocker struct {
	client       *redis.Client
	ownerID      string
	ttl          time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewRedisLocker creates a locker. ownerID identifies this process in lock values;
// empty generates one.
func NewRedisLocker(client *redis.Client, ownerID string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ownerID == "" {
		ownerID = fmt.Sprintf("api-%s", uuid.New().String()[:8])
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:       client,
		ownerID:      ownerID,
		ttl:          ttl,
		pollInterval: 100 * time.Millisecond,
		logger:       logger,
	}
}

func lockKey(id uuid.UUID) string {
	return fmt.Sprintf("session-lock:%s", id.String())
}

func (r *RedisLocker) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := lockKey(id)
	// Each acquisition gets its own token so two goroutines in one process
	// cannot release each other's lock.
	token := r.ownerID + ":" + uuid.New().String()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return func() { r.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to lock session %s: %w", id, ctx.Err())
		case <-time.After(r.pollInterval):
		}
	}
}

func (r *RedisLocker) release(key, token string) {
	// Release even if the turn's context was cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
		r.logger.Error("Failed to release session lock", "error", err, "key", key)
	}
}
