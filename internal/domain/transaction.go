package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState represents the current state of a checkout session.
type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "IDLE"
	CheckoutStateProcessing           CheckoutState = "PROCESSING"
	CheckoutStateAwaitingConfirmation CheckoutState = "AWAITING_CONFIRMATION"
	CheckoutStateSuccess              CheckoutState = "SUCCESS"
	CheckoutStateError                CheckoutState = "ERROR"
)

// allowedTransitions defines the valid checkout state transitions.
// The key is the current state, the value the set of reachable states.
var allowedTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:                 {CheckoutStateProcessing},
	CheckoutStateProcessing:           {CheckoutStateAwaitingConfirmation, CheckoutStateSuccess, CheckoutStateError},
	CheckoutStateAwaitingConfirmation: {CheckoutStateSuccess, CheckoutStateError},
	CheckoutStateSuccess:              {}, // Terminal for this transaction
	CheckoutStateError:                {CheckoutStateIdle},
}

// CanTransition checks if a transition from one checkout state to another is allowed.
func CanTransition(from, to CheckoutState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransactionStatus represents the current status of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusDeclined TransactionStatus = "DECLINED"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

// Transaction represents one payment attempt. It is owned exclusively by the
// checkout session that created it and is never persisted by this service.
type Transaction struct {
	Reference     string
	PhoneNumber   string // Normalized MSISDN
	Amount        decimal.Decimal
	Currency      string
	MethodID      string
	Status        TransactionStatus
	FailureReason string
	CreatedAt     time.Time
	ResolvedAt    time.Time
}

// OutcomeStatus tags the result of a gateway attempt.
type OutcomeStatus string

const (
	OutcomeApproved        OutcomeStatus = "APPROVED"
	OutcomeDeclined        OutcomeStatus = "DECLINED"
	OutcomeTransportFailed OutcomeStatus = "TRANSPORT_FAILED"
	OutcomeCryptoFailed    OutcomeStatus = "CRYPTO_FAILED"
)

// Outcome is the interpreted result of submitting a transaction to the
// gateway. Transport failures, crypto failures and business declines stay
// distinguishable all the way to the caller.
type Outcome struct {
	Status OutcomeStatus
	Reason string
}

// Approved reports whether the outcome authorized the payment.
func (o Outcome) Approved() bool {
	return o.Status == OutcomeApproved
}
