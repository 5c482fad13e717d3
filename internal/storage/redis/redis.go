// Package redis shares credentials between processes through a Redis server.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/storage"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const opTimeout = 3 * time.Second

// Store is a Redis backed storage.Store. Keys never expire.
type Store struct {
	c      rdb.UniversalClient
	prefix string
}

var _ storage.Store = (*Store)(nil)

func New(addr string, db int) *Store {
	return NewWithClient(rdb.NewClient(&rdb.Options{Addr: addr, DB: db}), "popup-login:")
}

// NewWithClient wraps an existing client. prefix is prepended to every key.
func NewWithClient(c rdb.UniversalClient, prefix string) *Store {
	return &Store{c: c, prefix: prefix}
}

func (s *Store) Get(k string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	v, err := s.c.Get(ctx, s.prefix+k).Result()
	if errors.Is(err, rdb.Nil) {
		return "", false
	}
	if err != nil {
		logger.Warn("Redis get failed", zap.String("key", k), zap.Error(err))
		return "", false
	}
	return v, true
}

func (s *Store) Set(k, v string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.c.Set(ctx, s.prefix+k, v, 0).Err(); err != nil {
		logger.Error("Redis set failed", zap.String("key", k), zap.Error(err))
	}
}

func (s *Store) Delete(k string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.c.Del(ctx, s.prefix+k).Err(); err != nil {
		logger.Error("Redis delete failed", zap.String("key", k), zap.Error(err))
	}
}

// Close releases the underlying client
func (s *Store) Close() error { return s.c.Close() }
