package domain

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		from CheckoutState
		to   CheckoutState
		want bool
	}{
		{name: "idle to processing", from: CheckoutStateIdle, to: CheckoutStateProcessing, want: true},
		{name: "processing to awaiting", from: CheckoutStateProcessing, to: CheckoutStateAwaitingConfirmation, want: true},
		{name: "processing to success", from: CheckoutStateProcessing, to: CheckoutStateSuccess, want: true},
		{name: "processing to error", from: CheckoutStateProcessing, to: CheckoutStateError, want: true},
		{name: "awaiting to success", from: CheckoutStateAwaitingConfirmation, to: CheckoutStateSuccess, want: true},
		{name: "awaiting to error", from: CheckoutStateAwaitingConfirmation, to: CheckoutStateError, want: true},
		{name: "error resets to idle", from: CheckoutStateError, to: CheckoutStateIdle, want: true},

		{name: "idle cannot jump to success", from: CheckoutStateIdle, to: CheckoutStateSuccess, want: false},
		{name: "idle cannot jump to error", from: CheckoutStateIdle, to: CheckoutStateError, want: false},
		{name: "idle cannot jump to awaiting", from: CheckoutStateIdle, to: CheckoutStateAwaitingConfirmation, want: false},
		{name: "success is terminal", from: CheckoutStateSuccess, to: CheckoutStateIdle, want: false},
		{name: "awaiting cannot return to processing", from: CheckoutStateAwaitingConfirmation, to: CheckoutStateProcessing, want: false},
		{name: "error cannot go straight to processing", from: CheckoutStateError, to: CheckoutStateProcessing, want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
