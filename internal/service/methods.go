package service

import (
	"context"

	"bookpay/internal/domain"
	internalRedis "bookpay/internal/redis"
)

// MethodsService serves the configured payment method catalog, with a Redis
// cache in front of the static configuration.
type MethodsService struct {
	configured []domain.PaymentMethod
	cache      internalRedis.MethodCacheInterface
}

// NewMethodsService creates a new MethodsService. cache may be nil.
func NewMethodsService(configured []domain.PaymentMethod, cache internalRedis.MethodCacheInterface) *MethodsService {
	return &MethodsService{
		configured: configured,
		cache:      cache,
	}
}

// List returns all configured payment methods, enabled or not.
func (s *MethodsService) List(ctx context.Context) ([]domain.PaymentMethod, error) {
	if s.cache != nil {
		cached, err := s.cache.GetMethods(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		// Cache miss or Redis trouble: fall through to configuration.
	}

	methods := make([]domain.PaymentMethod, len(s.configured))
	copy(methods, s.configured)

	if s.cache != nil {
		_ = s.cache.SetMethods(ctx, methods)
	}

	return methods, nil
}

// Get resolves a payment method by ID.
func (s *MethodsService) Get(ctx context.Context, id string) (domain.PaymentMethod, error) {
	methods, err := s.List(ctx)
	if err != nil {
		return domain.PaymentMethod{}, err
	}

	for _, m := range methods {
		if m.ID == id {
			return m, nil
		}
	}

	return domain.PaymentMethod{}, ErrUnknownPaymentMethod
}

var _ MethodCatalog = (*MethodsService)(nil)
