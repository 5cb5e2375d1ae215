package repos

import (
	"context"

	"mobileplanet/internal/docstore"
)

const (
	UsersColl       = "users"
	CategoriesColl  = "categories"
	ProductsColl    = "products"
	BookingsColl    = "bookings"
	WishlistColl    = "wishlist"
	PaymentsColl    = "payments"
	SettlementsColl = "settlements"
)

// list runs f and always returns a non-nil slice so empty listings encode as [].
func list[T any](ctx context.Context, c docstore.Collection, f docstore.Filter) ([]T, error) {
	var out []T
	if err := c.Find(ctx, f, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func one[T any](ctx context.Context, c docstore.Collection, f docstore.Filter) (*T, error) {
	var v T
	if err := c.FindOne(ctx, f, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
