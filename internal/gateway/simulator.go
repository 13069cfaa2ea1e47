package gateway

import (
	"context"
	"strings"
	"time"

	"bookpay/internal/domain"
)

// Simulator is the sandbox implementation of Gateway. It introduces an
// artificial delay representing the customer entering their PIN, then
// resolves deterministically from the MSISDN prefix. It issues no real
// credential token; this is the one named mode that skips encryption.
type Simulator struct {
	allowedPrefixes map[string]struct{}
	pinEntryDelay   time.Duration
}

// NewSimulator creates a sandbox gateway that approves numbers whose
// two-digit carrier prefix is in the allowed set.
func NewSimulator(allowedPrefixes []string, pinEntryDelay time.Duration) *Simulator {
	prefixes := make(map[string]struct{}, len(allowedPrefixes))
	for _, p := range allowedPrefixes {
		prefixes[p] = struct{}{}
	}

	return &Simulator{
		allowedPrefixes: prefixes,
		pinEntryDelay:   pinEntryDelay,
	}
}

// Initiate waits out the PIN-entry window and resolves from the number
// prefix. Cancelling the context aborts the wait and surfaces a transport
// failure, so an abandoned attempt never blocks.
func (s *Simulator) Initiate(ctx context.Context, req Request) domain.Outcome {
	timer := time.NewTimer(s.pinEntryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "confirmation aborted: " + ctx.Err().Error()}
	case <-timer.C:
	}

	for prefix := range s.allowedPrefixes {
		if strings.HasPrefix(req.MSISDN, prefix) {
			return domain.Outcome{Status: domain.OutcomeApproved}
		}
	}

	return domain.Outcome{Status: domain.OutcomeDeclined, Reason: "carrier not supported"}
}

// Compile-time interface checks.
var (
	_ Gateway = (*Client)(nil)
	_ Gateway = (*Simulator)(nil)
)
