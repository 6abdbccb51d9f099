package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLockHeld is returned by WithLock when the lock could not be acquired.
var ErrLockHeld = errors.New("lock held by another instance")

// RedisCache wraps a universal client (single node or cluster) and a redsync pool.
type RedisCache struct {
	client redis.UniversalClient
	rs     *redsync.Redsync
	log    zerolog.Logger
}

// NewRedisCache connects to one or more comma-separated Redis URLs or addresses.
func NewRedisCache(redisURL string, log zerolog.Logger) (*RedisCache, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("Redis URL must be provided")
	}

	opts, err := buildUniversalOptions(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if len(opts.Addrs) > 1 && opts.DB != 0 {
		log.Warn().Msg("Ignoring non-zero DB when using Redis Cluster configuration")
		opts.DB = 0
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Successfully connected to Redis cache")
	return &RedisCache{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		log:    log,
	}, nil
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
		if opts.DialTimeout == 0 {
			opts.DialTimeout = parsed.DialTimeout
		}
		if opts.ReadTimeout == 0 {
			opts.ReadTimeout = parsed.ReadTimeout
		}
		if opts.WriteTimeout == 0 {
			opts.WriteTimeout = parsed.WriteTimeout
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no Redis addresses provided")
	}
	return opts, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// HealthCheck pings Redis.
func (r *RedisCache) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// WithLock runs fn while holding a redsync mutex named lockName. It returns
// ErrLockHeld without running fn when the lock is taken elsewhere.
func (r *RedisCache) WithLock(ctx context.Context, lockName string, ttl time.Duration, fn func(ctx context.Context) error) error {
	mutex := r.rs.NewMutex(lockName, redsync.WithExpiry(ttl), redsync.WithTries(1))

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLockHeld, err)
	}

	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			r.log.Error().Err(err).Str("lock", lockName).Msg("Failed to unlock mutex")
		}
	}()

	return fn(ctx)
}
