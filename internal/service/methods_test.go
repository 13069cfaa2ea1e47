package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"bookpay/internal/domain"
)

// mockMethodCache is an in-memory stand-in for the Redis method cache.
type mockMethodCache struct {
	methods []domain.PaymentMethod

	GetCallCount int32
	SetCallCount int32
	GetError     error
}

func (m *mockMethodCache) GetMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.methods, nil
}

func (m *mockMethodCache) SetMethods(ctx context.Context, methods []domain.PaymentMethod) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.methods = methods
	return nil
}

func (m *mockMethodCache) InvalidateMethods(ctx context.Context) error {
	m.methods = nil
	return nil
}

func TestMethodsService_List_PopulatesCacheOnMiss(t *testing.T) {
	t.Parallel()

	cache := &mockMethodCache{}
	svc := NewMethodsService(testMethods(), cache)

	methods, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(methods) != len(testMethods()) {
		t.Errorf("expected %d methods, got %d", len(testMethods()), len(methods))
	}

	if atomic.LoadInt32(&cache.SetCallCount) != 1 {
		t.Errorf("expected cache populated once, got %d", cache.SetCallCount)
	}

	// Second call is served from cache.
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if atomic.LoadInt32(&cache.SetCallCount) != 1 {
		t.Errorf("expected no further cache writes, got %d", cache.SetCallCount)
	}
}

func TestMethodsService_List_FallsBackOnCacheError(t *testing.T) {
	t.Parallel()

	cache := &mockMethodCache{GetError: errors.New("redis down")}
	svc := NewMethodsService(testMethods(), cache)

	methods, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("expected configuration fallback, got: %v", err)
	}

	if len(methods) != len(testMethods()) {
		t.Errorf("expected %d methods, got %d", len(testMethods()), len(methods))
	}
}

func TestMethodsService_Get(t *testing.T) {
	t.Parallel()

	svc := NewMethodsService(testMethods(), nil)

	method, err := svc.Get(context.Background(), "mpesa")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if method.Kind != domain.PaymentMethodKindMobileMoney {
		t.Errorf("expected mobile money kind, got %s", method.Kind)
	}

	if !method.Asynchronous() {
		t.Error("expected mobile money to be asynchronous")
	}

	if _, err := svc.Get(context.Background(), "bitcoin"); !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Errorf("expected ErrUnknownPaymentMethod, got: %v", err)
	}
}
