package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bookpay/internal/domain"
	"bookpay/internal/gateway"
	"bookpay/internal/repository"
)

// ──────────────────────────────────────────────
// MOCKS
// ──────────────────────────────────────────────

// mockGateway is a scripted gateway that honors context cancellation.
type mockGateway struct {
	mu          sync.Mutex
	lastRequest gateway.Request

	CallCount int32
	Delay     time.Duration
	Outcome   domain.Outcome
}

func (g *mockGateway) Initiate(ctx context.Context, req gateway.Request) domain.Outcome {
	atomic.AddInt32(&g.CallCount, 1)

	g.mu.Lock()
	g.lastRequest = req
	g.mu.Unlock()

	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "aborted"}
		case <-timer.C:
		}
	}

	return g.Outcome
}

func (g *mockGateway) LastRequest() gateway.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRequest
}

// mockPurchaseRepository records ownership writes.
type mockPurchaseRepository struct {
	mu        sync.Mutex
	purchases map[string]*domain.Purchase

	MarkOwnedCallCount int32
	MarkOwnedError     error
}

func newMockPurchaseRepository() *mockPurchaseRepository {
	return &mockPurchaseRepository{purchases: make(map[string]*domain.Purchase)}
}

func (m *mockPurchaseRepository) MarkOwned(ctx context.Context, purchase *domain.Purchase) error {
	atomic.AddInt32(&m.MarkOwnedCallCount, 1)
	if m.MarkOwnedError != nil {
		return m.MarkOwnedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.purchases[purchase.Reference]; !exists {
		copy := *purchase
		m.purchases[purchase.Reference] = &copy
	}
	return nil
}

func (m *mockPurchaseRepository) GetByReference(ctx context.Context, reference string) (*domain.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[reference]
	if !ok {
		return nil, errors.New("not found")
	}
	copy := *p
	return &copy, nil
}

// mockLockStore simulates the cross-instance session lock.
type mockLockStore struct {
	AcquireCallCount int32
	ReleaseCallCount int32
	Held             bool
}

func (m *mockLockStore) AcquireSessionLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	return !m.Held, nil
}

func (m *mockLockStore) ReleaseSessionLock(ctx context.Context, sessionID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	return nil
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

func testMethods() []domain.PaymentMethod {
	return []domain.PaymentMethod{
		{ID: "mpesa", DisplayName: "M-Pesa", Kind: domain.PaymentMethodKindMobileMoney, Enabled: true},
		{ID: "card", DisplayName: "Card", Kind: domain.PaymentMethodKindCard, Enabled: true},
		{ID: "paypal", DisplayName: "PayPal", Kind: domain.PaymentMethodKindCard, Enabled: false},
	}
}

func newTestCheckout(gw gateway.Gateway, repo *mockPurchaseRepository, confirmTimeout time.Duration) *CheckoutService {
	var purchaseRepo repository.PurchaseRepository
	if repo != nil {
		purchaseRepo = repo
	}
	return NewCheckoutService(
		NewPhoneValidator([]string{"84", "85"}),
		gw,
		NewMethodsService(testMethods(), nil),
		purchaseRepo,
		nil,
		nil,
		"MZN",
		confirmTimeout,
	)
}

func submitRequest(sessionID string) SubmitRequest {
	return SubmitRequest{
		SessionID:   sessionID,
		UserID:      "user-1",
		BookID:      "book-1",
		PhoneNumber: "84 123 4567",
		Amount:      decimal.RequireFromString("950.00"),
		MethodID:    "mpesa",
		Reference:   "TX-5-123",
	}
}

// waitForState polls until the session reaches the wanted state or the
// deadline passes.
func waitForState(t *testing.T, svc *CheckoutService, sessionID string, want domain.CheckoutState) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, _, err := svc.State(context.Background(), sessionID)
		if err == nil && state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	state, _, _ := svc.State(context.Background(), sessionID)
	t.Fatalf("expected state %s, still %s after deadline", want, state)
}

// ──────────────────────────────────────────────
// SUBMIT VALIDATION
// ──────────────────────────────────────────────

func TestCheckout_Submit_InvalidPrefix_NoGatewayCall(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, time.Second)

	req := submitRequest("session-1")
	req.PhoneNumber = "82 000 0000"

	_, err := svc.Submit(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for disallowed prefix, got nil")
	}

	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	if verr.Raw != "82 000 0000" {
		t.Errorf("expected raw input preserved, got %q", verr.Raw)
	}

	// Validation happens before any crypto or network work.
	if atomic.LoadInt32(&gw.CallCount) != 0 {
		t.Errorf("expected no gateway call, got %d", gw.CallCount)
	}

	state, txn, err := svc.State(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("expected session to exist, got: %v", err)
	}
	if state != domain.CheckoutStateIdle {
		t.Errorf("expected Idle after validation failure, got %s", state)
	}
	if txn != nil {
		t.Error("expected no transaction after validation failure")
	}
}

func TestCheckout_Submit_NonPositiveAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		amount decimal.Decimal
	}{
		{name: "zero", amount: decimal.Zero},
		{name: "negative", amount: decimal.RequireFromString("-10")},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gw := &mockGateway{Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
			svc := newTestCheckout(gw, nil, time.Second)

			req := submitRequest("session-1")
			req.Amount = tc.amount

			_, err := svc.Submit(context.Background(), req)
			verr, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != "amount" {
				t.Errorf("expected amount field, got %q", verr.Field)
			}

			if atomic.LoadInt32(&gw.CallCount) != 0 {
				t.Errorf("expected no gateway call, got %d", gw.CallCount)
			}
		})
	}
}

func TestCheckout_Submit_MethodValidation(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, time.Second)

	req := submitRequest("session-1")
	req.MethodID = "bitcoin"
	if _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Errorf("expected ErrUnknownPaymentMethod, got: %v", err)
	}

	req.MethodID = "paypal"
	if _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrPaymentMethodDisabled) {
		t.Errorf("expected ErrPaymentMethodDisabled, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// STATE MACHINE
// ──────────────────────────────────────────────

func TestCheckout_MobileMoney_ApprovedAfterConfirmation(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Delay: 50 * time.Millisecond, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	repo := newMockPurchaseRepository()
	svc := newTestCheckout(gw, repo, 2*time.Second)

	txn, err := svc.Submit(context.Background(), submitRequest("session-1"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if txn.PhoneNumber != "841234567" {
		t.Errorf("expected normalized number 841234567, got %q", txn.PhoneNumber)
	}

	if txn.Reference != "TX-5-123" {
		t.Errorf("expected caller reference kept, got %q", txn.Reference)
	}

	// The mobile-money path waits for the out-of-band confirmation.
	state, _, err := svc.State(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != domain.CheckoutStateAwaitingConfirmation {
		t.Errorf("expected AwaitingConfirmation, got %s", state)
	}

	waitForState(t, svc, "session-1", domain.CheckoutStateSuccess)

	_, final, err := svc.State(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if final.Status != domain.TransactionStatusApproved {
		t.Errorf("expected APPROVED, got %s", final.Status)
	}
	if final.ResolvedAt.IsZero() {
		t.Error("expected resolvedAt to be set")
	}

	if atomic.LoadInt32(&repo.MarkOwnedCallCount) != 1 {
		t.Errorf("expected purchase marked owned once, got %d", repo.MarkOwnedCallCount)
	}

	purchase, err := repo.GetByReference(context.Background(), "TX-5-123")
	if err != nil {
		t.Fatalf("expected purchase recorded: %v", err)
	}
	if purchase.UserID != "user-1" || purchase.BookID != "book-1" {
		t.Errorf("unexpected purchase %+v", purchase)
	}
}

func TestCheckout_CardPath_SkipsAwaitingConfirmation(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Delay: 50 * time.Millisecond, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, 2*time.Second)

	req := submitRequest("session-1")
	req.MethodID = "card"

	if _, err := svc.Submit(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Synchronous kinds resolve out of Processing directly.
	state, _, err := svc.State(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state != domain.CheckoutStateProcessing {
		t.Errorf("expected Processing for card path, got %s", state)
	}

	waitForState(t, svc, "session-1", domain.CheckoutStateSuccess)
}

func TestCheckout_DoubleSubmit_NoOp(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Delay: 200 * time.Millisecond, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, 2*time.Second)

	first, err := svc.Submit(context.Background(), submitRequest("session-1"))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := svc.Submit(context.Background(), submitRequest("session-1"))
	if !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got: %v", err)
	}

	// Exactly one transaction reference exists after two rapid submissions.
	if second == nil || second.Reference != first.Reference {
		t.Errorf("expected the in-flight reference back, got %+v", second)
	}

	// The dispatch runs on its own goroutine; wait for the first call to
	// start before asserting a second one never happened.
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&gw.CallCount) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&gw.CallCount) != 1 {
		t.Errorf("expected one gateway call, got %d", gw.CallCount)
	}
}

func TestCheckout_Declined_ReasonSurfaced(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Outcome: domain.Outcome{Status: domain.OutcomeDeclined, Reason: "insufficient funds"}}
	repo := newMockPurchaseRepository()
	svc := newTestCheckout(gw, repo, time.Second)

	if _, err := svc.Submit(context.Background(), submitRequest("session-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitForState(t, svc, "session-1", domain.CheckoutStateError)

	_, txn, _ := svc.State(context.Background(), "session-1")
	if txn.Status != domain.TransactionStatusDeclined {
		t.Errorf("expected DECLINED, got %s", txn.Status)
	}
	if txn.FailureReason != "insufficient funds" {
		t.Errorf("expected decline reason, got %q", txn.FailureReason)
	}

	if atomic.LoadInt32(&repo.MarkOwnedCallCount) != 0 {
		t.Error("declined payment must not mark the purchase owned")
	}
}

func TestCheckout_InfrastructureFailures_DistinctFromDecline(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		outcome domain.Outcome
	}{
		{name: "crypto failure", outcome: domain.Outcome{Status: domain.OutcomeCryptoFailed, Reason: "bad public key material"}},
		{name: "transport failure", outcome: domain.Outcome{Status: domain.OutcomeTransportFailed, Reason: "gateway unreachable"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gw := &mockGateway{Outcome: tc.outcome}
			svc := newTestCheckout(gw, nil, time.Second)

			if _, err := svc.Submit(context.Background(), submitRequest("session-1")); err != nil {
				t.Fatalf("submit: %v", err)
			}

			waitForState(t, svc, "session-1", domain.CheckoutStateError)

			_, txn, _ := svc.State(context.Background(), "session-1")
			if txn.Status != domain.TransactionStatusFailed {
				t.Errorf("expected FAILED (not DECLINED), got %s", txn.Status)
			}
			if txn.FailureReason != tc.outcome.Reason {
				t.Errorf("expected reason %q, got %q", tc.outcome.Reason, txn.FailureReason)
			}
		})
	}
}

func TestCheckout_ConfirmationTimeout_RetryMintsNewReference(t *testing.T) {
	t.Parallel()

	// The gateway never answers within the confirmation window.
	gw := &mockGateway{Delay: 5 * time.Second, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, 50*time.Millisecond)

	first, err := svc.Submit(context.Background(), submitRequest("session-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitForState(t, svc, "session-1", domain.CheckoutStateError)

	_, txn, _ := svc.State(context.Background(), "session-1")
	if txn.FailureReason != "confirmation window elapsed" {
		t.Errorf("expected timeout reason, got %q", txn.FailureReason)
	}

	if err := svc.Retry(context.Background(), "session-1"); err != nil {
		t.Fatalf("retry: %v", err)
	}

	state, txn, _ := svc.State(context.Background(), "session-1")
	if state != domain.CheckoutStateIdle {
		t.Errorf("expected Idle after retry, got %s", state)
	}
	if txn != nil {
		t.Error("expected transaction cleared after retry")
	}

	// Resubmitting the abandoned reference must mint a fresh one.
	second, err := svc.Submit(context.Background(), submitRequest("session-1"))
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.Reference == first.Reference {
		t.Errorf("expected a fresh reference, got reused %q", second.Reference)
	}
}

func TestCheckout_Retry_OnlyFromError(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Delay: 200 * time.Millisecond, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, 2*time.Second)

	if err := svc.Retry(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got: %v", err)
	}

	if _, err := svc.Submit(context.Background(), submitRequest("session-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Retry(context.Background(), "session-1"); !errors.Is(err, ErrRetryNotAllowed) {
		t.Errorf("expected ErrRetryNotAllowed while in flight, got: %v", err)
	}
}

func TestCheckout_SuccessIsTerminal(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, time.Second)

	if _, err := svc.Submit(context.Background(), submitRequest("session-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitForState(t, svc, "session-1", domain.CheckoutStateSuccess)

	if _, err := svc.Submit(context.Background(), submitRequest("session-1")); !errors.Is(err, ErrCheckoutComplete) {
		t.Errorf("expected ErrCheckoutComplete, got: %v", err)
	}

	if err := svc.Retry(context.Background(), "session-1"); !errors.Is(err, ErrRetryNotAllowed) {
		t.Errorf("expected ErrRetryNotAllowed after success, got: %v", err)
	}
}

func TestCheckout_Close_DiscardsLateResult(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Delay: 100 * time.Millisecond, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	repo := newMockPurchaseRepository()
	svc := newTestCheckout(gw, repo, 2*time.Second)

	if _, err := svc.Submit(context.Background(), submitRequest("session-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Close(context.Background(), "session-1"); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, _, err := svc.State(context.Background(), "session-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after close, got: %v", err)
	}

	// Give the cancelled wait time to come back; its result must be discarded.
	time.Sleep(200 * time.Millisecond)

	if atomic.LoadInt32(&repo.MarkOwnedCallCount) != 0 {
		t.Error("late result after teardown must not mark the purchase owned")
	}
}

func TestCheckout_SessionLockHeld_Rejected(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	locks := &mockLockStore{Held: true}
	svc := NewCheckoutService(
		NewPhoneValidator([]string{"84", "85"}),
		gw,
		NewMethodsService(testMethods(), nil),
		nil,
		nil,
		locks,
		"MZN",
		time.Second,
	)

	if _, err := svc.Submit(context.Background(), submitRequest("session-1")); !errors.Is(err, ErrSessionLocked) {
		t.Errorf("expected ErrSessionLocked, got: %v", err)
	}

	if atomic.LoadInt32(&gw.CallCount) != 0 {
		t.Errorf("expected no gateway call while locked, got %d", gw.CallCount)
	}
}

func TestCheckout_BlankReference_Minted(t *testing.T) {
	t.Parallel()

	gw := &mockGateway{Delay: 100 * time.Millisecond, Outcome: domain.Outcome{Status: domain.OutcomeApproved}}
	svc := newTestCheckout(gw, nil, 2*time.Second)

	req := submitRequest("session-1")
	req.Reference = ""

	txn, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if txn.Reference == "" {
		t.Error("expected a minted reference for blank input")
	}
}
