package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
	"mobileplanet/internal/repos"
)

var wishlistNS = uuid.MustParse("b8f2a9d4-61c7-4e5b-8f0a-2c9d7e3a4b16")

type WishlistService struct {
	Repo *repos.WishlistRepo
}

func NewWishlistService(r *repos.WishlistRepo) *WishlistService { return &WishlistService{Repo: r} }

type WishlistInput struct {
	ProductID string
	Name      string
	Image     string
	Price     float64
}

// Toggle flips the caller's wishlist flag for a product, creating the entry on first use.
func (s *WishlistService) Toggle(ctx context.Context, email string, in WishlistInput) (*domain.WishlistEntry, error) {
	for attempt := 0; attempt < 3; attempt++ {
		w, err := s.Repo.Get(ctx, email, in.ProductID)
		if errors.Is(err, docstore.ErrNotFound) {
			w = &domain.WishlistEntry{
				ID:         uuid.NewSHA1(wishlistNS, []byte(email+"\x00"+in.ProductID)).String(),
				ProductID:  in.ProductID,
				BuyerEmail: email,
				Name:       in.Name,
				Image:      in.Image,
				Price:      in.Price,
				Wishlist:   true,
				CreatedAt:  time.Now().UTC(),
			}
			err = s.Repo.Create(ctx, w)
			if errors.Is(err, docstore.ErrDuplicate) {
				continue
			}
			if err != nil {
				return nil, storeErr(err, "create wishlist entry")
			}
			return w, nil
		}
		if err != nil {
			return nil, storeErr(err, "get wishlist entry")
		}

		n, err := s.Repo.SetWishlist(ctx, w.ID, w.Wishlist)
		if err != nil {
			return nil, storeErr(err, "toggle wishlist entry")
		}
		if n == 1 {
			w.Wishlist = !w.Wishlist
			return w, nil
		}
	}
	return nil, apperr.Conflict.With("wishlist entry is changing, retry")
}

func (s *WishlistService) Entry(ctx context.Context, email, productID string) (*domain.WishlistEntry, error) {
	w, err := s.Repo.Get(ctx, email, productID)
	if err != nil {
		return nil, storeErr(err, "get wishlist entry")
	}
	return w, nil
}

func (s *WishlistService) Active(ctx context.Context, email string) ([]domain.WishlistEntry, error) {
	out, err := s.Repo.ListActive(ctx, email)
	return out, storeErr(err, "list wishlist")
}

func (s *WishlistService) Remove(ctx context.Context, email, productID string) error {
	n, err := s.Repo.Remove(ctx, email, productID)
	if err != nil {
		return storeErr(err, "remove wishlist entry")
	}
	if n == 0 {
		return apperr.NotFound
	}
	return nil
}
