package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PopularityStore tracks product demand signals: raw view counters and the
// rolling sale velocity used by dynamic pricing
type PopularityStore interface {
	IncrementViews(ctx context.Context, productID uuid.UUID) (int64, error)
	Views(ctx context.Context, productID uuid.UUID) (int64, error)
	SetSaleVelocity(ctx context.Context, productID uuid.UUID, perDay decimal.Decimal) error
	SaleVelocity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}

// RedisPopularityStore implements PopularityStore on Redis so counters
// survive restarts and are shared across instances
type RedisPopularityStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPopularityStore creates a Redis-backed popularity store. The ttl
// bounds how long a product's counters live without traffic.
func NewRedisPopularityStore(client *redis.Client, ttl time.Duration) *RedisPopularityStore {
	return &RedisPopularityStore{client: client, ttl: ttl}
}

func viewsKey(productID uuid.UUID) string {
	return fmt.Sprintf("popularity:views:%s", productID)
}

func velocityKey(productID uuid.UUID) string {
	return fmt.Sprintf("popularity:velocity:%s", productID)
}

// IncrementViews bumps the view counter and refreshes its TTL
func (s *RedisPopularityStore) IncrementViews(ctx context.Context, productID uuid.UUID) (int64, error) {
	key := viewsKey(productID)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	if s.ttl > 0 {
		s.client.Expire(ctx, key, s.ttl)
	}
	return n, nil
}

// Views returns the current view counter, zero when absent
func (s *RedisPopularityStore) Views(ctx context.Context, productID uuid.UUID) (int64, error) {
	n, err := s.client.Get(ctx, viewsKey(productID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read views: %w", err)
	}
	return n, nil
}

// SetSaleVelocity stores the rolling sales-per-day figure
func (s *RedisPopularityStore) SetSaleVelocity(ctx context.Context, productID uuid.UUID, perDay decimal.Decimal) error {
	if err := s.client.Set(ctx, velocityKey(productID), perDay.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store sale velocity: %w", err)
	}
	return nil
}

// SaleVelocity returns the stored sales-per-day figure, zero when absent
func (s *RedisPopularityStore) SaleVelocity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	raw, err := s.client.Get(ctx, velocityKey(productID)).Result()
	if err == redis.Nil {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read sale velocity: %w", err)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt sale velocity for %s: %w", productID, err)
	}
	return v, nil
}

// MemoryPopularityStore is an in-process PopularityStore for tests and
// single-node deployments without Redis
type MemoryPopularityStore struct {
	mu         sync.RWMutex
	views      map[uuid.UUID]int64
	velocities map[uuid.UUID]decimal.Decimal
}

// NewMemoryPopularityStore creates an empty in-memory popularity store
func NewMemoryPopularityStore() *MemoryPopularityStore {
	return &MemoryPopularityStore{
		views:      make(map[uuid.UUID]int64),
		velocities: make(map[uuid.UUID]decimal.Decimal),
	}
}

// IncrementViews bumps the view counter
func (s *MemoryPopularityStore) IncrementViews(_ context.Context, productID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[productID]++
	return s.views[productID], nil
}

// Views returns the current view counter
func (s *MemoryPopularityStore) Views(_ context.Context, productID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views[productID], nil
}

// SetSaleVelocity stores the rolling sales-per-day figure
func (s *MemoryPopularityStore) SetSaleVelocity(_ context.Context, productID uuid.UUID, perDay decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.velocities[productID] = perDay
	return nil
}

// SaleVelocity returns the stored sales-per-day figure
func (s *MemoryPopularityStore) SaleVelocity(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.velocities[productID]; ok {
		return v, nil
	}
	return decimal.Zero, nil
}
