package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"bookpay/internal/domain"
)

// Request contains the parameters for one transaction attempt.
type Request struct {
	// MSISDN is the normalized customer number.
	MSISDN string

	// Amount is the charge amount; it is formatted to exactly two decimal
	// places on the wire.
	Amount decimal.Decimal

	// Reference is the client-generated transaction reference. It is never
	// reused across retries.
	Reference string
}

// Gateway submits a transaction to a payment processor and interprets the
// result. The live client and the sandbox simulator implement the same
// interface, so swapping them requires no change to callers.
type Gateway interface {
	Initiate(ctx context.Context, req Request) domain.Outcome
}
