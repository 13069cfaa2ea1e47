package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the record handed to the purchase store once a transaction is
// approved. Persisting it is the store collaborator's responsibility.
type Purchase struct {
	ID        string
	UserID    string
	BookID    string
	Reference string
	Amount    decimal.Decimal
	Currency  string
	OwnedAt   time.Time
}
