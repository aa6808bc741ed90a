package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wattsup/internal/diagram"
)

const (
	DefaultRedisAddr = "localhost:6379"
	redisKeyPrefix   = "wattsup:canvas:"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps the latest snapshot of each user under one key.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultRedisAddr
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb, now: time.Now}, nil
}

func redisKey(userID string) string { return redisKeyPrefix + userID }

func (r *RedisStore) Save(ctx context.Context, s *diagram.Snapshot) error {
	if err := stamp(s, r.now); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal canvas: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKey(s.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("set canvas: %w", err)
	}
	return nil
}

func (r *RedisStore) Latest(ctx context.Context, userID string) (*diagram.Snapshot, error) {
	if err := validUser(userID); err != nil {
		return nil, err
	}
	data, err := r.rdb.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	var s diagram.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse canvas: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Close(context.Context) error { return r.rdb.Close() }

var _ Store = (*RedisStore)(nil)
