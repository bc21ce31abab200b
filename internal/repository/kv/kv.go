// Package kv implements the repositories on top of a Redis key-value store.
//
// Every user owns two keys:
//
//	<prefix>:<user>:readings   hash   reading id -> JSON record
//	<prefix>:<user>:settings   string JSON record
package kv

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid/v5"
)

// DefaultPrefix namespaces all keys written by this package.
const DefaultPrefix = "peakflow"

// Store is the shared handle of the KV repositories.
type Store struct {
	rdb    redis.Cmdable
	prefix string
}

// NewStore wraps a Redis client. An empty prefix selects DefaultPrefix.
func NewStore(rdb redis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

func (s *Store) readingsKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:readings", s.prefix, userID)
}

func (s *Store) settingsKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:settings", s.prefix, userID)
}
