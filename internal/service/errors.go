package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckoutInProgress is returned when a submit arrives while a
	// transaction is already in flight for the session.
	ErrCheckoutInProgress = errors.New("checkout already in progress")

	// ErrCheckoutComplete is returned when a submit arrives after the
	// session reached a terminal success.
	ErrCheckoutComplete = errors.New("checkout already completed")

	// ErrRetryNotAllowed is returned when a retry is requested outside the
	// error state.
	ErrRetryNotAllowed = errors.New("retry only allowed from error state")

	// ErrSessionNotFound is returned when the checkout session does not exist.
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrSessionLocked is returned when another submit holds the session lock.
	ErrSessionLocked = errors.New("checkout session locked by another request")

	// ErrUnknownPaymentMethod is returned when the method ID is not configured.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrPaymentMethodDisabled is returned when the selected method is disabled.
	ErrPaymentMethodDisabled = errors.New("payment method disabled")
)

// ValidationError reports input rejected before any crypto or network work.
// Raw preserves exactly what the caller sent so the UI can echo it back.
type ValidationError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Raw, e.Reason)
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
