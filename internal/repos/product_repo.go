package repos

import (
	"context"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type ProductRepo struct{ c docstore.Collection }

func NewProductRepo(s docstore.Store) *ProductRepo { return &ProductRepo{c: s.Collection(ProductsColl)} }

var (
	listed  = docstore.Eq("displayListing", true)
	forSale = docstore.Eq("settlementId", nil)
)

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.c.Insert(ctx, p)
}

// Get returns the product regardless of listing state.
func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	return one[domain.Product](ctx, r.c, docstore.ByID(id))
}

// GetListed hides unlisted products behind docstore.ErrNotFound.
func (r *ProductRepo) GetListed(ctx context.Context, id string) (*domain.Product, error) {
	return one[domain.Product](ctx, r.c, docstore.Where(docstore.Eq("_id", id), listed))
}

func (r *ProductRepo) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return list[domain.Product](ctx, r.c, docstore.Where(docstore.Eq("category", category), listed))
}

func (r *ProductRepo) ListAdvertised(ctx context.Context) ([]domain.Product, error) {
	return list[domain.Product](ctx, r.c,
		docstore.Where(docstore.Eq("advertise", domain.AdvertiseActive), listed))
}

func (r *ProductRepo) ListBySeller(ctx context.Context, email string) ([]domain.Product, error) {
	return list[domain.Product](ctx, r.c, docstore.Where(docstore.Eq("sellerEmail", email)))
}

func (r *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return list[domain.Product](ctx, r.c, nil)
}

// SetDisplayListing flips displayListing from cur on an unsold product; 0 means it was changed
// concurrently or sold.
func (r *ProductRepo) SetDisplayListing(ctx context.Context, id string, cur bool) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), docstore.Eq("displayListing", cur), forSale),
		docstore.Fields{"displayListing": !cur})
}

// SetAdvertise moves advertise from one state to another, conditional on the current state.
func (r *ProductRepo) SetAdvertise(ctx context.Context, id string, from, to domain.AdvertiseState) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), docstore.Eq("advertise", from)),
		docstore.Fields{"advertise": to})
}

func (r *ProductRepo) SetVerifiedSeller(ctx context.Context, sellerEmail string, verified bool) (int64, error) {
	return r.c.UpdateMany(ctx,
		docstore.Where(docstore.Eq("sellerEmail", sellerEmail)),
		docstore.Fields{"verifiedSeller": verified})
}

// MarkSold takes a listed, unsold product off sale for settlementID. 0 means it was not
// available; the caller reads the product to find out why.
func (r *ProductRepo) MarkSold(ctx context.Context, id, settlementID string) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), listed, forSale),
		docstore.Fields{"displayListing": false, "settlementId": settlementID})
}

// Release undoes MarkSold for a settlement that could not complete.
func (r *ProductRepo) Release(ctx context.Context, id, settlementID string) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), docstore.Eq("settlementId", settlementID)),
		docstore.Fields{"displayListing": true, "settlementId": nil})
}

func (r *ProductRepo) Delete(ctx context.Context, id string) (int64, error) {
	return r.c.DeleteOne(ctx, docstore.ByID(id))
}
