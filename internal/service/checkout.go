package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookpay/internal/domain"
	"bookpay/internal/gateway"
	internalRedis "bookpay/internal/redis"
	"bookpay/internal/repository"
)

// sessionLockTTL bounds how long a submit may hold the cross-instance
// session lock.
const sessionLockTTL = 30 * time.Second

// MethodCatalog resolves a payment method ID to its configuration.
type MethodCatalog interface {
	Get(ctx context.Context, id string) (domain.PaymentMethod, error)
}

// CheckoutService owns the confirmation state machine. Each checkout session
// holds at most one in-flight transaction; the session exclusively owns that
// transaction and its token for the duration of one attempt.
type CheckoutService struct {
	validator     *PhoneValidator
	gateway       gateway.Gateway
	methods       MethodCatalog
	purchaseRepo  repository.PurchaseRepository
	notifications *NotificationService
	locks         internalRedis.SessionLockStoreInterface

	currency       string
	confirmTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*checkoutSession
}

// NewCheckoutService creates a new CheckoutService. purchaseRepo,
// notifications and locks may be nil; the corresponding side effects are
// skipped.
func NewCheckoutService(
	validator *PhoneValidator,
	gw gateway.Gateway,
	methods MethodCatalog,
	purchaseRepo repository.PurchaseRepository,
	notifications *NotificationService,
	locks internalRedis.SessionLockStoreInterface,
	currency string,
	confirmTimeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		validator:      validator,
		gateway:        gw,
		methods:        methods,
		purchaseRepo:   purchaseRepo,
		notifications:  notifications,
		locks:          locks,
		currency:       currency,
		confirmTimeout: confirmTimeout,
		sessions:       make(map[string]*checkoutSession),
	}
}

// checkoutSession tracks one checkout's state machine.
type checkoutSession struct {
	mu        sync.Mutex
	id        string
	userID    string
	bookID    string
	state     domain.CheckoutState
	txn       *domain.Transaction
	cancel    context.CancelFunc
	abandoned map[string]struct{}
}

// SubmitRequest contains the parameters for submitting a payment.
type SubmitRequest struct {
	SessionID   string
	UserID      string
	BookID      string
	PhoneNumber string
	Amount      decimal.Decimal
	MethodID    string
	// Reference optionally correlates the attempt for the caller. Blank or
	// previously abandoned references are replaced with a fresh one.
	Reference string
}

// Submit validates the request, creates the transaction and dispatches it to
// the gateway. Validation failures block submission before any crypto or
// network work and leave the session in Idle. Submitting while a transaction
// is in flight is rejected without minting a new reference.
func (s *CheckoutService) Submit(ctx context.Context, req SubmitRequest) (*domain.Transaction, error) {
	sess := s.session(req.SessionID)

	method, err := s.methods.Get(ctx, req.MethodID)
	if err != nil {
		return nil, err
	}
	if !method.Enabled {
		return nil, ErrPaymentMethodDisabled
	}

	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Raw: req.Amount.String(), Reason: "must be greater than zero"}
	}

	normalized, err := s.validator.Validate(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	if s.locks != nil {
		ok, lockErr := s.locks.AcquireSessionLock(ctx, req.SessionID, sessionLockTTL)
		if lockErr != nil {
			return nil, lockErr
		}
		if !ok {
			return nil, ErrSessionLocked
		}
		defer func() {
			_ = s.locks.ReleaseSessionLock(ctx, req.SessionID)
		}()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state {
	case domain.CheckoutStateIdle:
	case domain.CheckoutStateSuccess:
		return nil, ErrCheckoutComplete
	case domain.CheckoutStateError:
		return nil, ErrRetryNotAllowed
	default:
		// Double-submit guard: the in-flight attempt keeps its reference.
		return sess.transactionCopy(), ErrCheckoutInProgress
	}

	reference := req.Reference
	if _, used := sess.abandoned[reference]; reference == "" || used {
		reference = uuid.New().String()
	}

	txn := &domain.Transaction{
		Reference:   reference,
		PhoneNumber: normalized,
		Amount:      req.Amount,
		Currency:    s.currency,
		MethodID:    method.ID,
		Status:      domain.TransactionStatusPending,
		CreatedAt:   time.Now(),
	}

	sess.userID = req.UserID
	sess.bookID = req.BookID
	sess.txn = txn
	sess.transition(domain.CheckoutStateProcessing)

	// The confirmation wait runs on its own goroutine with a deadline; the
	// cancel function stays with the session so teardown can abort it.
	waitCtx, cancel := context.WithTimeout(context.Background(), s.confirmTimeout)
	sess.cancel = cancel

	go s.awaitOutcome(waitCtx, sess, reference, gateway.Request{
		MSISDN:    normalized,
		Amount:    req.Amount,
		Reference: reference,
	})

	if method.Asynchronous() {
		sess.transition(domain.CheckoutStateAwaitingConfirmation)
	}

	return sess.transactionCopy(), nil
}

// awaitOutcome submits to the gateway and resolves the session when the
// outcome arrives.
func (s *CheckoutService) awaitOutcome(ctx context.Context, sess *checkoutSession, reference string, req gateway.Request) {
	outcome := s.gateway.Initiate(ctx, req)
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	s.resolve(sess, reference, outcome, timedOut)
}

// resolve applies a gateway outcome to the session. Results for a transaction
// the session no longer owns are discarded; a late callback never mutates
// state belonging to a superseded or torn-down attempt.
func (s *CheckoutService) resolve(sess *checkoutSession, reference string, outcome domain.Outcome, timedOut bool) {
	sess.mu.Lock()

	if sess.txn == nil || sess.txn.Reference != reference {
		sess.mu.Unlock()
		return
	}

	switch sess.state {
	case domain.CheckoutStateProcessing, domain.CheckoutStateAwaitingConfirmation:
	default:
		sess.mu.Unlock()
		return
	}

	if cancel := sess.cancel; cancel != nil {
		sess.cancel = nil
		defer cancel()
	}

	txn := sess.txn
	txn.ResolvedAt = time.Now()

	switch {
	case outcome.Approved():
		txn.Status = domain.TransactionStatusApproved
		sess.transition(domain.CheckoutStateSuccess)
	case timedOut:
		txn.Status = domain.TransactionStatusFailed
		txn.FailureReason = "confirmation window elapsed"
		sess.transition(domain.CheckoutStateError)
	case outcome.Status == domain.OutcomeDeclined:
		txn.Status = domain.TransactionStatusDeclined
		txn.FailureReason = outcome.Reason
		sess.transition(domain.CheckoutStateError)
	default:
		// Crypto and transport failures: infrastructure trouble, not a user
		// mistake. Not retried automatically.
		txn.Status = domain.TransactionStatusFailed
		txn.FailureReason = outcome.Reason
		sess.transition(domain.CheckoutStateError)
	}

	approved := sess.state == domain.CheckoutStateSuccess
	userID, bookID := sess.userID, sess.bookID
	txnCopy := *txn

	sess.mu.Unlock()

	// Side effects after releasing the session lock. The request context is
	// long gone, so they get their own.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if approved {
		s.markOwned(ctx, userID, bookID, &txnCopy)
		if s.notifications != nil {
			_ = s.notifications.NotifyPaymentApproved(ctx, &txnCopy, userID)
		}
		return
	}

	if s.notifications != nil {
		_ = s.notifications.NotifyPaymentFailed(ctx, &txnCopy, userID)
	}
}

// markOwned hands the approved purchase to the store collaborator.
func (s *CheckoutService) markOwned(ctx context.Context, userID, bookID string, txn *domain.Transaction) {
	if s.purchaseRepo == nil {
		return
	}

	purchase := &domain.Purchase{
		ID:        uuid.New().String(),
		UserID:    userID,
		BookID:    bookID,
		Reference: txn.Reference,
		Amount:    txn.Amount,
		Currency:  txn.Currency,
		OwnedAt:   txn.ResolvedAt,
	}

	// A failed write must not undo the authorization; the purchase can be
	// replayed from the reference.
	_ = s.purchaseRepo.MarkOwned(ctx, purchase)
}

// Retry resets an errored session to Idle. The failed attempt's reference is
// permanently abandoned; the next submit always mints a fresh one.
func (s *CheckoutService) Retry(ctx context.Context, sessionID string) error {
	sess, ok := s.lookup(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != domain.CheckoutStateError {
		return ErrRetryNotAllowed
	}

	if sess.txn != nil {
		sess.abandoned[sess.txn.Reference] = struct{}{}
	}

	sess.txn = nil
	sess.transition(domain.CheckoutStateIdle)

	return nil
}

// State returns the session's current state and a snapshot of its
// transaction, if any.
func (s *CheckoutService) State(ctx context.Context, sessionID string) (domain.CheckoutState, *domain.Transaction, error) {
	sess, ok := s.lookup(sessionID)
	if !ok {
		return "", nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.state, sess.transactionCopy(), nil
}

// Close tears down a session, cancelling any outstanding confirmation wait.
// A result arriving after teardown is discarded.
func (s *CheckoutService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	// Dropping the transaction makes any in-flight resolve a no-op.
	sess.txn = nil

	return nil
}

// session returns the session for the ID, creating it in Idle if needed.
func (s *CheckoutService) session(sessionID string) *checkoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &checkoutSession{
			id:        sessionID,
			state:     domain.CheckoutStateIdle,
			abandoned: make(map[string]struct{}),
		}
		s.sessions[sessionID] = sess
	}

	return sess
}

// lookup returns an existing session without creating one.
func (s *CheckoutService) lookup(sessionID string) (*checkoutSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// transition moves the session to the target state if the state machine
// allows it. Callers must hold sess.mu.
func (sess *checkoutSession) transition(to domain.CheckoutState) bool {
	if !domain.CanTransition(sess.state, to) {
		return false
	}
	sess.state = to
	return true
}

// transactionCopy returns a copy of the session's transaction, or nil.
// Callers must hold sess.mu.
func (sess *checkoutSession) transactionCopy() *domain.Transaction {
	if sess.txn == nil {
		return nil
	}
	copy := *sess.txn
	return &copy
}
