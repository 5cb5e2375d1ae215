package repos

import (
	"context"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type PaymentRepo struct{ c docstore.Collection }

func NewPaymentRepo(s docstore.Store) *PaymentRepo { return &PaymentRepo{c: s.Collection(PaymentsColl)} }

// Insert returns docstore.ErrDuplicate when a payment already exists under p.ID.
func (r *PaymentRepo) Insert(ctx context.Context, p *domain.Payment) error {
	return r.c.Insert(ctx, p)
}

func (r *PaymentRepo) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return one[domain.Payment](ctx, r.c, docstore.ByID(id))
}

func (r *PaymentRepo) List(ctx context.Context) ([]domain.Payment, error) {
	return list[domain.Payment](ctx, r.c, nil)
}

func (r *PaymentRepo) CountForBooking(ctx context.Context, bookingID string) (int64, error) {
	return r.c.Count(ctx, docstore.Where(docstore.Eq("bookingId", bookingID)))
}

// Delete is only used to compensate a rejected settlement.
func (r *PaymentRepo) Delete(ctx context.Context, id string) (int64, error) {
	return r.c.DeleteOne(ctx, docstore.ByID(id))
}
