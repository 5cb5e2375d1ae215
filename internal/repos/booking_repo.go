package repos

import (
	"context"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type BookingRepo struct{ c docstore.Collection }

func NewBookingRepo(s docstore.Store) *BookingRepo { return &BookingRepo{c: s.Collection(BookingsColl)} }

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return r.c.Insert(ctx, b)
}

func (r *BookingRepo) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return one[domain.Booking](ctx, r.c, docstore.ByID(id))
}

func (r *BookingRepo) ByBuyer(ctx context.Context, email string) ([]domain.Booking, error) {
	return list[domain.Booking](ctx, r.c, docstore.Where(docstore.Eq("buyerEmail", email)))
}

func (r *BookingRepo) ByBuyerProduct(ctx context.Context, email, productID string) (*domain.Booking, error) {
	return one[domain.Booking](ctx, r.c,
		docstore.Where(docstore.Eq("buyerEmail", email), docstore.Eq("productId", productID)))
}

func (r *BookingRepo) BySeller(ctx context.Context, email string) ([]domain.Booking, error) {
	return list[domain.Booking](ctx, r.c, docstore.Where(docstore.Eq("sellerEmail", email)))
}

// MarkPaid sets paid=true only while the booking is unpaid, so exactly one settlement wins.
func (r *BookingRepo) MarkPaid(ctx context.Context, id, settlementID string) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), docstore.Eq("paid", false)),
		docstore.Fields{"paid": true, "settlementId": settlementID})
}
