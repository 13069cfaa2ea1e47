package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"bookpay/internal/domain"
)

// CacheStore handles payment method caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// MethodsCacheTTL bounds how long the method catalog is served from cache;
// configuration changes become visible within this window.
const MethodsCacheTTL = 60 * time.Second

const methodsCacheKey = "cache:payment_methods"

// cachedMethod represents a cached payment method entry.
type cachedMethod struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
	Enabled     bool   `json:"enabled"`
}

// GetMethods retrieves the payment method catalog from cache.
// Returns nil on a cache miss.
func (s *CacheStore) GetMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	data, err := s.client.Get(ctx, methodsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached []cachedMethod
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	methods := make([]domain.PaymentMethod, 0, len(cached))
	for _, m := range cached {
		methods = append(methods, domain.PaymentMethod{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Kind:        domain.PaymentMethodKind(m.Kind),
			Enabled:     m.Enabled,
		})
	}

	return methods, nil
}

// SetMethods stores the payment method catalog in cache.
func (s *CacheStore) SetMethods(ctx context.Context, methods []domain.PaymentMethod) error {
	cached := make([]cachedMethod, 0, len(methods))
	for _, m := range methods {
		cached = append(cached, cachedMethod{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Kind:        string(m.Kind),
			Enabled:     m.Enabled,
		})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, methodsCacheKey, data, MethodsCacheTTL).Err()
}

// InvalidateMethods removes the method catalog from cache.
func (s *CacheStore) InvalidateMethods(ctx context.Context) error {
	return s.client.Del(ctx, methodsCacheKey).Err()
}
