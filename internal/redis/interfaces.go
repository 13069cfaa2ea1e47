package redis

import (
	"context"
	"time"

	"bookpay/internal/domain"
)

// MethodCacheInterface defines the interface for payment method caching.
type MethodCacheInterface interface {
	GetMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	SetMethods(ctx context.Context, methods []domain.PaymentMethod) error
	InvalidateMethods(ctx context.Context) error
}

// SessionLockStoreInterface defines the interface for checkout session locking.
type SessionLockStoreInterface interface {
	AcquireSessionLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	ReleaseSessionLock(ctx context.Context, sessionID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ MethodCacheInterface      = (*CacheStore)(nil)
	_ SessionLockStoreInterface = (*LockStore)(nil)
)
