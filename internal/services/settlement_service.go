package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/mq"
	"mobileplanet/internal/payment"
	"mobileplanet/internal/repos"
)

type SettlementService struct {
	Bookings    *repos.BookingRepo
	Prods       *repos.ProductRepo
	Wish        *repos.WishlistRepo
	Payments    *repos.PaymentRepo
	Settlements *repos.SettlementRepo
	Processor   payment.Processor
	Pub         mq.Publisher
	Currency    string
}

type SettleInput struct {
	BookingID     string  `json:"bookingId" validate:"required,max=64"`
	ProductID     string  `json:"productId" validate:"required,max=64"`
	TransactionID string  `json:"transactionId" validate:"required,max=128"`
	Price         float64 `json:"price" validate:"required,gt=0"`
}

type SettlementResult struct {
	Settlement *domain.Settlement `json:"settlement"`
	Replayed   bool               `json:"replayed"`
}

// permanent marks a step failure that retrying cannot fix.
type permanent struct{ err *apperr.Error }

func (p *permanent) Error() string { return p.err.Error() }

type IntentInput struct {
	BookingID   string  `json:"bookingId" validate:"required,max=64"`
	ResellPrice float64 `json:"resellPrice" validate:"required,gt=0"`
}

// CreateIntent asks the processor for a payment of buyer's booking in the configured currency.
// Paid bookings and bookings whose product is no longer for sale get no intent.
func (s *SettlementService) CreateIntent(ctx context.Context, buyer string, in IntentInput, idempotencyKey string) (payment.Intent, error) {
	b, err := s.Bookings.Get(ctx, in.BookingID)
	if err != nil {
		return payment.Intent{}, storeErr(err, "get booking")
	}
	if b.BuyerEmail != buyer {
		return payment.Intent{}, apperr.Forbidden
	}
	if b.Paid {
		return payment.Intent{}, apperr.AlreadySettled
	}
	amount, err := payment.MinorUnits(in.ResellPrice)
	if err != nil {
		return payment.Intent{}, apperr.InvalidInput.With("resellPrice must be a positive amount")
	}
	if due, err := payment.MinorUnits(b.Price); err != nil || due != amount {
		return payment.Intent{}, apperr.InvalidInput.With("resellPrice does not match the booking")
	}

	p, err := s.Prods.Get(ctx, b.ProductID)
	if errors.Is(err, docstore.ErrNotFound) {
		return payment.Intent{}, errProductGone
	}
	if err != nil {
		return payment.Intent{}, storeErr(err, "get product")
	}
	if why := unavailable(p); why != nil {
		return payment.Intent{}, why
	}

	intent, err := s.Processor.CreateIntent(ctx, amount, s.Currency, idempotencyKey)
	if err != nil {
		return payment.Intent{}, apperr.UpstreamFailure.Wrap(err)
	}
	return intent, nil
}

var errProductGone = apperr.NotFound.With("product is not available")

// unavailable reports why p cannot be sold, or nil when it is listed and unsold.
func unavailable(p *domain.Product) *apperr.Error {
	switch {
	case p.SettlementID != "":
		return apperr.AlreadySettled.With("product is already sold")
	case !p.DisplayListing:
		return errProductGone
	default:
		return nil
	}
}

// Settle records a captured payment for buyer's booking. key identifies the settlement; the
// same key always yields the same outcome and never a second payment record.
func (s *SettlementService) Settle(ctx context.Context, buyer, key string, in SettleInput) (*SettlementResult, error) {
	if key == "" {
		key = in.TransactionID
	}
	b, err := s.Bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, storeErr(err, "get booking")
	}
	if b.BuyerEmail != buyer {
		return nil, apperr.Forbidden
	}
	if b.ProductID != in.ProductID {
		return nil, apperr.InvalidInput.With("productId does not match the booking")
	}
	paid, err1 := payment.MinorUnits(in.Price)
	due, err2 := payment.MinorUnits(b.Price)
	if err1 != nil || err2 != nil || paid != due {
		return nil, apperr.InvalidInput.With("price does not match the booking")
	}

	now := time.Now().UTC()
	st := &domain.Settlement{
		ID:            key,
		BookingID:     b.ID,
		ProductID:     b.ProductID,
		BuyerEmail:    buyer,
		Amount:        b.Price,
		Currency:      s.Currency,
		TransactionID: in.TransactionID,
		State:         domain.SettlementPending,
		Attempts:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.Settlements.Insert(ctx, st)
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrDuplicate):
		return s.resumeExisting(ctx, key, b.ID)
	default:
		return nil, storeErr(err, "create settlement")
	}
	return s.run(ctx, st)
}

func (s *SettlementService) resumeExisting(ctx context.Context, key, bookingID string) (*SettlementResult, error) {
	st, err := s.Settlements.Get(ctx, key)
	if err != nil {
		return nil, storeErr(err, "get settlement")
	}
	if st.BookingID != bookingID {
		return nil, apperr.Conflict.With("idempotency key was used for another booking")
	}
	switch st.State {
	case domain.SettlementCompleted:
		return &SettlementResult{Settlement: st, Replayed: true}, nil
	case domain.SettlementRejected:
		return nil, rejection(st)
	case domain.SettlementFailed:
		if err := s.claim(ctx, st); err != nil {
			return nil, err
		}
		return s.run(ctx, st)
	default:
		return nil, apperr.SettlementInProgress
	}
}

// claim takes ownership of st for this caller, or reports that someone else holds it.
func (s *SettlementService) claim(ctx context.Context, st *domain.Settlement) error {
	n, err := s.Settlements.Claim(ctx, st.ID, st.State, st.Attempts)
	if err != nil {
		return storeErr(err, "claim settlement")
	}
	if n == 0 {
		return apperr.SettlementInProgress
	}
	st.State = domain.SettlementPending
	st.Attempts++
	return nil
}

type sagaStep struct {
	step domain.SettlementStep
	run  func(context.Context, *domain.Settlement) error
}

func (s *SettlementService) steps() []sagaStep {
	return []sagaStep{
		{domain.StepPaymentRecorded, s.recordPayment},
		{domain.StepProductDelisted, s.sellProduct},
		{domain.StepBookingPaid, s.markBookingPaid},
		{domain.StepWishlistPaid, s.markWishlistPaid},
	}
}

// rejection is the error a rejected settlement answers with on every replay.
func rejection(st *domain.Settlement) *apperr.Error {
	base := apperr.AlreadySettled
	if st.Reason == apperr.NotFound.Code {
		base = apperr.NotFound
	}
	if st.Error == "" {
		return base
	}
	return base.With(st.Error)
}

// run executes the remaining steps of a claimed (pending) settlement.
func (s *SettlementService) run(ctx context.Context, st *domain.Settlement) (*SettlementResult, error) {
	for _, x := range s.steps() {
		if x.step.Done(st.Step) {
			continue
		}
		if err := x.run(ctx, st); err != nil {
			var perm *permanent
			if errors.As(err, &perm) {
				return nil, s.reject(ctx, st, perm.err)
			}
			return nil, s.fail(ctx, st, err)
		}
		if err := s.Settlements.Advance(ctx, st.ID, x.step); err != nil {
			return nil, s.fail(ctx, st, err)
		}
		st.Step = x.step
	}

	if err := s.Settlements.Finish(ctx, st.ID, domain.SettlementCompleted, ""); err != nil {
		return nil, s.fail(ctx, st, err)
	}
	st.State = domain.SettlementCompleted
	st.Error = ""

	ev := domain.BookingPaidEvent{
		SettlementID:  st.ID,
		BookingID:     st.BookingID,
		ProductID:     st.ProductID,
		BuyerEmail:    st.BuyerEmail,
		Amount:        st.Amount,
		Currency:      st.Currency,
		TransactionID: st.TransactionID,
		PaidAt:        time.Now().UTC(),
	}
	if err := s.Pub.PublishJSON(ctx, mq.RoutingBookingPaid, ev); err != nil {
		applog.Error(nil, "settlement.event.publish.fail", err, map[string]any{"settlement_id": st.ID})
	}
	return &SettlementResult{Settlement: st}, nil
}

func (s *SettlementService) recordPayment(ctx context.Context, st *domain.Settlement) error {
	err := s.Payments.Insert(ctx, &domain.Payment{
		ID:            st.ID,
		BookingID:     st.BookingID,
		ProductID:     st.ProductID,
		BuyerEmail:    st.BuyerEmail,
		Amount:        st.Amount,
		Currency:      st.Currency,
		TransactionID: st.TransactionID,
		CreatedAt:     time.Now().UTC(),
	})
	if errors.Is(err, docstore.ErrDuplicate) {
		return nil
	}
	return errors.Wrap(err, "record payment")
}

func (s *SettlementService) markBookingPaid(ctx context.Context, st *domain.Settlement) error {
	n, err := s.Bookings.MarkPaid(ctx, st.BookingID, st.ID)
	if err != nil {
		return errors.Wrap(err, "mark booking paid")
	}
	if n == 1 {
		return nil
	}
	b, err := s.Bookings.Get(ctx, st.BookingID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return &permanent{apperr.NotFound.With("booking no longer exists")}
	case err != nil:
		return errors.Wrap(err, "get booking")
	case b.Paid && b.SettlementID == st.ID:
		return nil
	default:
		return &permanent{apperr.AlreadySettled}
	}
}

// sellProduct takes the product off sale under this settlement's key. A product that is gone,
// unlisted or sold under another key can never be paid for.
func (s *SettlementService) sellProduct(ctx context.Context, st *domain.Settlement) error {
	n, err := s.Prods.MarkSold(ctx, st.ProductID, st.ID)
	if err != nil {
		return errors.Wrap(err, "mark product sold")
	}
	if n == 1 {
		return nil
	}
	p, err := s.Prods.Get(ctx, st.ProductID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return &permanent{errProductGone}
	case err != nil:
		return errors.Wrap(err, "get product")
	case p.SettlementID == st.ID:
		return nil
	}
	if why := unavailable(p); why != nil {
		return &permanent{why}
	}
	// relisted between the update and the read
	return errors.New("product changed while selling, retry")
}

func (s *SettlementService) markWishlistPaid(ctx context.Context, st *domain.Settlement) error {
	_, err := s.Wish.MarkPaid(ctx, st.BuyerEmail, st.ProductID)
	return errors.Wrap(err, "mark wishlist paid")
}

// reject compensates what the settlement already did (the product sale and the payment record)
// and closes it for good. If compensation fails the settlement is left failed so recovery
// repeats it.
func (s *SettlementService) reject(ctx context.Context, st *domain.Settlement, cause *apperr.Error) error {
	bg := context.WithoutCancel(ctx)
	if domain.StepProductDelisted.Done(st.Step) {
		if _, err := s.Prods.Release(bg, st.ProductID, st.ID); err != nil {
			return s.fail(ctx, st, errors.Wrap(err, "release product"))
		}
	}
	if _, err := s.Payments.Delete(bg, st.ID); err != nil {
		return s.fail(ctx, st, errors.Wrap(err, "compensate payment"))
	}
	if err := s.Settlements.Reject(bg, st.ID, cause.Code, cause.Message); err != nil {
		applog.Error(nil, "settlement.reject.record.fail", err, map[string]any{"settlement_id": st.ID})
	}
	st.State = domain.SettlementRejected
	st.Reason = cause.Code
	st.Error = cause.Message
	applog.Info(nil, "settlement.rejected", map[string]any{"settlement_id": st.ID, "booking_id": st.BookingID, "reason": cause.Code})
	return cause
}

// fail records a retryable failure. The caller gets a 502 and may retry with the same key.
func (s *SettlementService) fail(ctx context.Context, st *domain.Settlement, cause error) error {
	bg := context.WithoutCancel(ctx)
	if err := s.Settlements.Finish(bg, st.ID, domain.SettlementFailed, cause.Error()); err != nil {
		applog.Error(nil, "settlement.fail.record.fail", err, map[string]any{"settlement_id": st.ID})
	}
	st.State = domain.SettlementFailed
	st.Error = cause.Error()
	applog.Error(nil, "settlement.step.fail", cause, map[string]any{
		"settlement_id": st.ID, "step": string(st.Step), "attempts": st.Attempts,
	})
	return apperr.UpstreamFailure.Wrap(cause)
}

// StalePendingAfter is how long a pending settlement may go without progress before the
// periodic recovery treats its owner as gone.
const StalePendingAfter = 5 * time.Minute

// Recover resumes settlements in the given states and reports how many completed. Pending
// settlements are only taken when they have not moved since staleBefore.
func (s *SettlementService) Recover(ctx context.Context, staleBefore time.Time, states ...domain.SettlementState) (int, error) {
	done := 0
	for _, state := range states {
		list, err := s.Settlements.List(ctx, state)
		if err != nil {
			return done, errors.Wrapf(err, "list %s settlements", state)
		}
		for i := range list {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			st := &list[i]
			if st.State == domain.SettlementPending && !st.UpdatedAt.Before(staleBefore) {
				continue
			}
			if err := s.claim(ctx, st); err != nil {
				continue
			}
			if _, err := s.run(ctx, st); err == nil {
				done++
			}
		}
	}
	return done, nil
}

// RunRecovery resumes every interrupted settlement at startup, then every interval retries
// failed ones and pending ones that stalled, until ctx is cancelled.
func (s *SettlementService) RunRecovery(ctx context.Context, interval time.Duration) {
	n, err := s.Recover(ctx, time.Now().UTC(), domain.SettlementPending, domain.SettlementFailed)
	s.logRecovery(n, err)
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			stale := time.Now().UTC().Add(-StalePendingAfter)
			n, err := s.Recover(ctx, stale, domain.SettlementFailed, domain.SettlementPending)
			s.logRecovery(n, err)
		}
	}
}

func (s *SettlementService) logRecovery(n int, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		applog.Error(nil, "settlement.recovery.fail", err, nil)
		return
	}
	if n > 0 {
		applog.Info(nil, "settlement.recovered", map[string]any{"completed": n})
	}
}

func (s *SettlementService) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	out, err := s.Payments.List(ctx)
	return out, storeErr(err, "list payments")
}

func (s *SettlementService) ListSettlements(ctx context.Context, state domain.SettlementState) ([]domain.Settlement, error) {
	out, err := s.Settlements.List(ctx, state)
	return out, storeErr(err, "list settlements")
}
