// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Run lock defaults
const (
	DefaultLockKey = "ocms-translate:queue-run"
	DefaultLockTTL = 15 * time.Minute
)

// ErrRunInProgress is returned when another processing run holds the lock.
var ErrRunInProgress = errors.New("queue run already in progress")

// RunLock serialises processing runs.
type RunLock interface {
	// Acquire obtains the lock or fails with ErrRunInProgress. The returned
	// function releases it.
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLock is an in-process RunLock.
type LocalLock struct {
	mu sync.Mutex
}

// NewLocalLock creates an in-process run lock.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire implements RunLock.
func (l *LocalLock) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return l.mu.Unlock, nil
}

// RedisLockOptions configures the distributed run lock.
type RedisLockOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Key is the lock key; several deployments sharing one Redis need
	// distinct keys.
	Key string

	// TTL bounds how long a crashed holder keeps the lock.
	TTL time.Duration

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration
}

// RedisLock is a RunLock shared by every process using the same Redis key.
type RedisLock struct {
	client *redis.Client
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock connects to Redis and creates a distributed run lock.
func NewRedisLock(ctx context.Context, opts RedisLockOptions) (*RedisLock, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return newRedisLock(client, opts), nil
}

func newRedisLock(client *redis.Client, opts RedisLockOptions) *RedisLock {
	key := opts.Key
	if key == "" {
		key = DefaultLockKey
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	return &RedisLock{
		client: client,
		locker: redislock.New(client),
		key:    key,
		ttl:    ttl,
	}
}

// Acquire implements RunLock.
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining run lock: %w", err)
	}

	return func() {
		// The run context may be cancelled by now.
		_ = lock.Release(context.Background())
	}, nil
}

// Close closes the Redis connection.
func (l *RedisLock) Close() error {
	return l.client.Close()
}
