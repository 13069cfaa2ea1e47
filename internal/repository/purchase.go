package repository

import (
	"context"

	"bookpay/internal/domain"
)

// PurchaseRepository defines the persistence operations for purchases.
// It is the external store collaborator: the checkout core never persists
// its Transaction, only the resulting purchase record crosses this boundary.
type PurchaseRepository interface {
	// MarkOwned records that the user now owns the book. Calling it twice
	// for the same transaction reference is a no-op.
	MarkOwned(ctx context.Context, purchase *domain.Purchase) error

	// GetByReference retrieves a purchase by its transaction reference.
	GetByReference(ctx context.Context, reference string) (*domain.Purchase, error)
}
