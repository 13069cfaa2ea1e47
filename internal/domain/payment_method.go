package domain

// PaymentMethodKind determines which protocol path a checkout follows.
type PaymentMethodKind string

const (
	// PaymentMethodKindMobileMoney resolves asynchronously: the customer
	// confirms the charge on their handset before the gateway answers.
	PaymentMethodKindMobileMoney PaymentMethodKind = "MOBILE_MONEY"
	// PaymentMethodKindCard resolves synchronously.
	PaymentMethodKindCard PaymentMethodKind = "CARD"
	// PaymentMethodKindSimulated resolves synchronously via the sandbox path.
	PaymentMethodKindSimulated PaymentMethodKind = "SIMULATED"
)

// PaymentMethod represents a way a customer can pay for a purchase.
// The list is supplied by configuration, not managed by this service.
type PaymentMethod struct {
	ID          string
	DisplayName string
	Kind        PaymentMethodKind
	Enabled     bool
}

// Asynchronous reports whether the method waits for an out-of-band
// customer confirmation before resolving.
func (m PaymentMethod) Asynchronous() bool {
	return m.Kind == PaymentMethodKindMobileMoney
}
