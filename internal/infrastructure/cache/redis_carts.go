package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"warungpos/internal/core/apperror"
	"warungpos/internal/domain/cart"
)

const cartKeyPrefix = "cart:"

// RedisCartStore keeps carts in redis so they survive a server restart and
// can be shared by several server processes. Idle carts expire.
type RedisCartStore struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

var _ cart.Store = (*RedisCartStore)(nil)

// NewRedisCartStore creates a store whose carts expire after ttl plus up to
// ttl/4 of jitter, refreshed on every save.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, baseTTL: ttl, jitter: ttl / 4}
}

// Load implements cart.Store.
func (r *RedisCartStore) Load(ctx context.Context, cartID string) (*cart.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewNotFound("cart", cartID)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &c, nil
}

// Save implements cart.Store.
func (r *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(c.ID), data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete implements cart.Store.
func (r *RedisCartStore) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// IDs implements cart.Store.
func (r *RedisCartStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, cartKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), cartKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RedisCartStore) ttl() time.Duration {
	if r.baseTTL <= 0 {
		return 0
	}
	if r.jitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + rand.N(r.jitter)
}

func cartKey(cartID string) string {
	return cartKeyPrefix + cartID
}
