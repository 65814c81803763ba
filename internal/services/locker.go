package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("timed out waiting for account lock")

// Locker serializes ledger operations per account. Lock acquires every id
// in ascending order and returns a func that releases them all.
type Locker interface {
	Lock(ctx context.Context, ids ...int64) (func(), error)
}

// sortedIDs deduplicates ids and orders them ascending
func sortedIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MemoryLocker is an in-process Locker backed by one channel semaphore per
// account. A slot lives only while some caller holds or waits on it.
type MemoryLocker struct {
	mu      sync.Mutex
	slots   map[int64]*lockSlot
	timeout time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots:   make(map[int64]*lockSlot),
		timeout: timeout,
	}
}

// acquire returns the slot for id and registers the caller on it
func (l *MemoryLocker) acquire(id int64) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	return slot
}

// forget drops the caller's registration and prunes the slot once unused
func (l *MemoryLocker) forget(id int64, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, ids ...int64) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	type heldSlot struct {
		id   int64
		slot *lockSlot
	}
	held := make([]heldSlot, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].slot.ch
			l.forget(held[i].id, held[i].slot)
		}
	}

	for _, id := range sortedIDs(ids) {
		slot := l.acquire(id)
		select {
		case slot.ch <- struct{}{}:
			held = append(held, heldSlot{id: id, slot: slot})
		case <-ctx.Done():
			l.forget(id, slot)
			release()
			return nil, fmt.Errorf("%w: account %d", ErrLockTimeout, id)
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// releaseScript deletes the lock key only while it still holds our token
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisLocker is a Locker shared by every server instance pointed at the
// same Redis. Keys expire after ttl so a crashed holder cannot wedge an
// account.
type RedisLocker struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	timeout  time.Duration
	retry    time.Duration
	newToken func() string
}

func NewRedisLocker(client *redis.Client, prefix string, ttl, timeout, retry time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		timeout:  timeout,
		retry:    retry,
		newToken: uuid.NewString,
	}
}

func (l *RedisLocker) key(id int64) string {
	return l.prefix + strconv.FormatInt(id, 10)
}

func (l *RedisLocker) Lock(ctx context.Context, ids ...int64) (func(), error) {
	token := l.newToken()
	deadline := time.Now().Add(l.timeout)

	var held []string
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Released with a fresh context: the caller's may already be done.
			if err := l.client.Eval(context.Background(), releaseScript, []string{held[i]}, token).Err(); err != nil {
				log.Printf("[LOCK] Failed to release %s: %v", held[i], err)
			}
		}
	}

	for _, id := range sortedIDs(ids) {
		key := l.key(id)
		for {
			ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
			if err != nil {
				release()
				return nil, fmt.Errorf("failed to acquire lock for account %d: %w", id, err)
			}
			if ok {
				held = append(held, key)
				break
			}
			if !time.Now().Before(deadline) {
				release()
				return nil, fmt.Errorf("%w: account %d", ErrLockTimeout, id)
			}
			select {
			case <-time.After(l.retry):
			case <-ctx.Done():
				release()
				return nil, fmt.Errorf("%w: account %d: %v", ErrLockTimeout, id, ctx.Err())
			}
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
