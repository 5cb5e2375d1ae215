package repos

import (
	"context"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type WishlistRepo struct{ c docstore.Collection }

func NewWishlistRepo(s docstore.Store) *WishlistRepo { return &WishlistRepo{c: s.Collection(WishlistColl)} }

func (r *WishlistRepo) Get(ctx context.Context, email, productID string) (*domain.WishlistEntry, error) {
	return one[domain.WishlistEntry](ctx, r.c,
		docstore.Where(docstore.Eq("buyerEmail", email), docstore.Eq("productId", productID)))
}

func (r *WishlistRepo) Create(ctx context.Context, w *domain.WishlistEntry) error {
	return r.c.Insert(ctx, w)
}

// SetWishlist flips the entry from cur to !cur; 0 means a concurrent toggle won.
func (r *WishlistRepo) SetWishlist(ctx context.Context, id string, cur bool) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), docstore.Eq("wishlist", cur)),
		docstore.Fields{"wishlist": !cur})
}

func (r *WishlistRepo) Remove(ctx context.Context, email, productID string) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("buyerEmail", email), docstore.Eq("productId", productID)),
		docstore.Fields{"wishlist": false})
}

func (r *WishlistRepo) ListActive(ctx context.Context, email string) ([]domain.WishlistEntry, error) {
	return list[domain.WishlistEntry](ctx, r.c,
		docstore.Where(docstore.Eq("buyerEmail", email), docstore.Eq("wishlist", true)))
}

func (r *WishlistRepo) MarkPaid(ctx context.Context, email, productID string) (int64, error) {
	return r.c.UpdateMany(ctx,
		docstore.Where(docstore.Eq("buyerEmail", email), docstore.Eq("productId", productID)),
		docstore.Fields{"paid": true})
}
