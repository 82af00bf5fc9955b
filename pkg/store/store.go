// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store provides the shared key-value store the ad server keeps its
// catalog, session logs, and counters in. The production backend is Redis;
// records are hashes, extraction indices are sorted sets keyed by timestamp.
package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KV is the capability interface the decision engine depends on. All field
// increments are atomic on the store side; there are no cross-key
// transactions.
type KV interface {
	// GetMap returns all fields of a record. A missing record yields an
	// empty map, not an error.
	GetMap(ctx context.Context, key string) (map[string]string, error)

	// GetMapField returns one field of a record, or "" when either the
	// record or the field is absent.
	GetMapField(ctx context.Context, key, field string) (string, error)

	// SetMap writes all given fields of a record.
	SetMap(ctx context.Context, key string, fields map[string]any) error

	// SetMapField writes one field of a record.
	SetMapField(ctx context.Context, key, field string, value any) error

	// SetMapFieldNX writes one field only if it does not exist yet.
	// Reports whether the write happened.
	SetMapFieldNX(ctx context.Context, key, field string, value any) (bool, error)

	// IncrMapField atomically adds delta to an integer field and returns
	// the new value. A missing field counts as zero.
	IncrMapField(ctx context.Context, key, field string, delta int64) (int64, error)

	// IncrMapFieldFloat atomically adds delta to a float field and returns
	// the new value.
	IncrMapFieldFloat(ctx context.Context, key, field string, delta float64) (float64, error)

	// AddToSortedSet adds member with the given score. Re-adding an
	// existing member updates its score.
	AddToSortedSet(ctx context.Context, key string, score int64, member string) error

	// AddToSet adds member to an unordered set. Idempotent.
	AddToSet(ctx context.Context, key, member string) error
}

// Redis is the production KV backed by a go-redis client. The client is safe
// for concurrent use; Redis carries no sharding or failover here.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// NewRedisFromURL connects using a redis:// URL.
func NewRedisFromURL(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// Client returns the underlying go-redis client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) GetMap(ctx context.Context, key string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key).Result()
}

func (r *Redis) GetMapField(ctx context.Context, key, field string) (string, error) {
	val, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (r *Redis) SetMap(ctx context.Context, key string, fields map[string]any) error {
	args := make([]any, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}
	return r.client.HSet(ctx, key, args...).Err()
}

func (r *Redis) SetMapField(ctx context.Context, key, field string, value any) error {
	return r.client.HSet(ctx, key, field, value).Err()
}

func (r *Redis) SetMapFieldNX(ctx context.Context, key, field string, value any) (bool, error) {
	return r.client.HSetNX(ctx, key, field, value).Result()
}

func (r *Redis) IncrMapField(ctx context.Context, key, field string, delta int64) (int64, error) {
	return r.client.HIncrBy(ctx, key, field, delta).Result()
}

func (r *Redis) IncrMapFieldFloat(ctx context.Context, key, field string, delta float64) (float64, error) {
	return r.client.HIncrByFloat(ctx, key, field, delta).Result()
}

func (r *Redis) AddToSortedSet(ctx context.Context, key string, score int64, member string) error {
	return r.client.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: member}).Err()
}

func (r *Redis) AddToSet(ctx context.Context, key, member string) error {
	return r.client.SAdd(ctx, key, member).Err()
}
