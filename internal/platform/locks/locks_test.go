package locks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "math101")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("holders at once: want=1 got=%d", maxSeen)
	}
}

func TestLocalMutualExclusion(t *testing.T) {
	l := NewLocal()
	exerciseMutualExclusion(t, l)
	if got := l.held("math101"); got != 0 {
		t.Fatalf("entries left behind: %d", got)
	}
}

func TestLocalContextTimeout(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("want ErrNotAcquired, got %v", err)
	}
	if _, err := l.Lock(context.Background(), "other"); err != nil {
		t.Fatalf("independent key should not block: %v", err)
	}
	unlock()
	unlock()
	if got := l.held("k"); got != 0 {
		t.Fatalf("k still tracked: %d", got)
	}
}

func newRedisLocker(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, logger.Nop(), RedisOptions{TTL: time.Minute, PollInterval: 5 * time.Millisecond}), srv
}

func TestRedisMutualExclusion(t *testing.T) {
	l, srv := newRedisLocker(t)
	exerciseMutualExclusion(t, l)
	if srv.Exists(defaultKeyPrefix + "math101") {
		t.Fatalf("lock key should be released")
	}
}

func TestRedisTimeoutAndForeignRelease(t *testing.T) {
	l, srv := newRedisLocker(t)
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !srv.Exists(defaultKeyPrefix + "k") {
		t.Fatalf("lock key missing")
	}
	if ttl := srv.TTL(defaultKeyPrefix + "k"); ttl <= 0 {
		t.Fatalf("lock key should expire, ttl=%v", ttl)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("want ErrNotAcquired, got %v", err)
	}

	// Someone else's token: our release must leave it in place.
	if err := srv.Set(defaultKeyPrefix+"k", "someone-else"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	unlock()
	got, err := srv.Get(defaultKeyPrefix + "k")
	if err != nil || got != "someone-else" {
		t.Fatalf("foreign lock removed: got=%q err=%v", got, err)
	}
}

func TestRedisRenewsHeldLock(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ttl := 300 * time.Millisecond
	l := NewRedis(client, logger.Nop(), RedisOptions{TTL: ttl, PollInterval: 5 * time.Millisecond})

	unlock, err := l.Lock(context.Background(), "slow")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	key := defaultKeyPrefix + "slow"
	// Three steps of 2/3 TTL add up past one TTL; only renewal keeps the key.
	for i := 0; i < 3; i++ {
		time.Sleep(ttl)
		srv.FastForward(ttl * 2 / 3)
		if !srv.Exists(key) {
			t.Fatalf("lock expired while held after step %d", i+1)
		}
	}

	unlock()
	if srv.Exists(key) {
		t.Fatalf("lock key should be released")
	}
}
