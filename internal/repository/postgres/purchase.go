package postgres

import (
	"context"
	"database/sql"
	"errors"

	"bookpay/internal/domain"
	"bookpay/internal/repository"
)

// PurchaseRepository is a PostgreSQL implementation of repository.PurchaseRepository.
type PurchaseRepository struct {
	q Querier
}

// NewPurchaseRepository creates a new PostgreSQL purchase repository.
func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{q: db}
}

// NewPurchaseRepositoryWithTx creates a purchase repository using a transaction.
func NewPurchaseRepositoryWithTx(tx *sql.Tx) *PurchaseRepository {
	return &PurchaseRepository{q: tx}
}

// MarkOwned records that the user owns the book. The transaction reference is
// unique, so replaying an approved outcome does not duplicate the purchase.
func (r *PurchaseRepository) MarkOwned(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (id, user_id, book_id, reference, amount, currency, owned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reference) DO NOTHING
	`

	_, err := r.q.ExecContext(ctx, query,
		purchase.ID,
		purchase.UserID,
		purchase.BookID,
		purchase.Reference,
		purchase.Amount,
		purchase.Currency,
		purchase.OwnedAt,
	)

	return err
}

// GetByReference retrieves a purchase by its transaction reference.
func (r *PurchaseRepository) GetByReference(ctx context.Context, reference string) (*domain.Purchase, error) {
	query := `
		SELECT id, user_id, book_id, reference, amount, currency, owned_at
		FROM purchases WHERE reference = $1
	`

	var purchase domain.Purchase
	err := r.q.QueryRowContext(ctx, query, reference).Scan(
		&purchase.ID,
		&purchase.UserID,
		&purchase.BookID,
		&purchase.Reference,
		&purchase.Amount,
		&purchase.Currency,
		&purchase.OwnedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &purchase, nil
}

var _ repository.PurchaseRepository = (*PurchaseRepository)(nil)
