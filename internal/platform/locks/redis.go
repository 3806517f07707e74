package locks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const (
	defaultLockTTL      = 2 * time.Minute
	defaultPollInterval = 100 * time.Millisecond
	defaultKeyPrefix    = "coursepack:lock:"
)

// Deletes the key only while it still holds our token, so an expired lock
// re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Pushes the expiry forward only while the key still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RedisOptions struct {
	Prefix       string
	TTL          time.Duration
	PollInterval time.Duration
}

// Redis is a Locker shared by every process talking to the same server.
type Redis struct {
	client redis.UniversalClient
	log    *logger.Logger
	opts   RedisOptions
}

func NewRedis(client redis.UniversalClient, baseLog *logger.Logger, opts RedisOptions) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = defaultLockTTL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if strings.TrimSpace(opts.Prefix) == "" {
		opts.Prefix = defaultKeyPrefix
	}
	return &Redis{client: client, log: baseLog.With("component", "RedisLocker"), opts: opts}
}

// NewRedisFromURL dials a redis:// URL.
func NewRedisFromURL(ctx context.Context, rawURL string, baseLog *logger.Logger, opts RedisOptions) (*Redis, error) {
	parsed, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, baseLog, opts), nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.opts.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.opts.TTL).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	renewCtx, stopRenew := context.WithCancel(context.Background())
	renewDone := make(chan struct{})
	go func() {
		defer close(renewDone)
		r.keepAlive(renewCtx, redisKey, token)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopRenew()
			<-renewDone
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.log.Warn("lock release failed", "key", redisKey, "error", err)
			}
		})
	}, nil
}

// keepAlive renews the key every third of the TTL until ctx ends or the key
// stops carrying token.
func (r *Redis) keepAlive(ctx context.Context, redisKey, token string) {
	every := r.opts.TTL / 3
	if every <= 0 {
		every = r.opts.TTL
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := renewScript.Run(ctx, r.client, []string{redisKey}, token, r.opts.TTL.Milliseconds()).Int()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("lock renewal failed", "key", redisKey, "error", err)
			continue
		}
		if n == 0 {
			r.log.Warn("lock lost before release", "key", redisKey)
			return
		}
	}
}

func (r *Redis) Close() error { return r.client.Close() }
