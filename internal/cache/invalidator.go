package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Invalidator drops semantic keys from redis so readers refetch them.
type Invalidator struct {
	rdb *redis.Client
}

func NewInvalidator(rdb *redis.Client) (*Invalidator, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}

	return &Invalidator{rdb: rdb}, nil
}

func (i *Invalidator) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := i.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("rdb.Del: %w", err)
	}

	return nil
}
