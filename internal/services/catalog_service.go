package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
	"mobileplanet/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

type ProductInput struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Image         string  `json:"image" validate:"omitempty,max=2048"`
	Description   string  `json:"description" validate:"max=5000"`
	Category      string  `json:"category" validate:"required,max=100"`
	ResellPrice   float64 `json:"resellPrice" validate:"required,gt=0"`
	OriginalPrice float64 `json:"originalPrice" validate:"gte=0"`
	Condition     string  `json:"condition" validate:"omitempty,max=50"`
	Location      string  `json:"location" validate:"omitempty,max=200"`
	YearsOfUse    string  `json:"yearsOfUse" validate:"omitempty,max=50"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	out, err := s.Cats.List(ctx)
	return out, storeErr(err, "list categories")
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	c := &domain.Category{ID: uuid.NewString(), Name: strings.TrimSpace(name), CreatedAt: time.Now().UTC()}
	if err := s.Cats.Create(ctx, c); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, apperr.Conflict.With("category already exists")
		}
		return nil, storeErr(err, "create category")
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.Cats.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "delete category")
	}
	if n == 0 {
		return apperr.NotFound
	}
	return nil
}

// ListByCategory only returns listed products.
func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	out, err := s.Prods.ListByCategory(ctx, category)
	return out, storeErr(err, "list products")
}

// ListedProduct hides unlisted products as not found.
func (s *CatalogService) ListedProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Prods.GetListed(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get product")
	}
	return p, nil
}

func (s *CatalogService) Advertised(ctx context.Context) ([]domain.Product, error) {
	out, err := s.Prods.ListAdvertised(ctx)
	return out, storeErr(err, "list advertised")
}

func (s *CatalogService) SellerProducts(ctx context.Context, email string) ([]domain.Product, error) {
	out, err := s.Prods.ListBySeller(ctx, email)
	return out, storeErr(err, "list seller products")
}

func (s *CatalogService) AllProducts(ctx context.Context) ([]domain.Product, error) {
	out, err := s.Prods.ListAll(ctx)
	return out, storeErr(err, "list products")
}

// CreateProduct lists a product for seller. It starts unlisted until an admin approves it.
func (s *CatalogService) CreateProduct(ctx context.Context, seller *domain.User, in ProductInput) (*domain.Product, error) {
	if _, err := s.Cats.ByName(ctx, strings.TrimSpace(in.Category)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.InvalidInput.With("unknown category")
		}
		return nil, storeErr(err, "lookup category")
	}
	p := &domain.Product{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Image:          in.Image,
		Description:    in.Description,
		Category:       strings.TrimSpace(in.Category),
		ResellPrice:    in.ResellPrice,
		OriginalPrice:  in.OriginalPrice,
		Condition:      in.Condition,
		Location:       in.Location,
		YearsOfUse:     in.YearsOfUse,
		SellerName:     seller.Name,
		SellerEmail:    seller.Email,
		DisplayListing: false,
		VerifiedSeller: seller.Verified,
		Advertise:      domain.AdvertiseNone,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return nil, storeErr(err, "create product")
	}
	return p, nil
}

// ToggleListing flips displayListing. Admin only. A sold product stays off sale.
func (s *CatalogService) ToggleListing(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get product")
	}
	if p.SettlementID != "" {
		return nil, apperr.Conflict.With("product is already sold")
	}
	n, err := s.Prods.SetDisplayListing(ctx, id, p.DisplayListing)
	if err != nil {
		return nil, storeErr(err, "update product")
	}
	if n == 0 {
		return nil, apperr.Conflict.With("product was modified concurrently, retry")
	}
	p.DisplayListing = !p.DisplayListing
	return p, nil
}

// ToggleAdvertiseRequest lets the owning seller request or withdraw promotion.
func (s *CatalogService) ToggleAdvertiseRequest(ctx context.Context, seller *domain.User, id string) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get product")
	}
	if p.SellerEmail != seller.Email {
		return nil, apperr.Forbidden
	}
	var to domain.AdvertiseState
	switch p.Advertise {
	case domain.AdvertiseNone:
		to = domain.AdvertisePending
	case domain.AdvertisePending:
		to = domain.AdvertiseNone
	default:
		return nil, apperr.Conflict.With("product is already advertised")
	}
	return s.moveAdvertise(ctx, p, to)
}

// ApproveAdvertise promotes a pending request. Admin only.
func (s *CatalogService) ApproveAdvertise(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "get product")
	}
	if p.Advertise != domain.AdvertisePending {
		return nil, apperr.Conflict.With("no pending advertise request")
	}
	return s.moveAdvertise(ctx, p, domain.AdvertiseActive)
}

func (s *CatalogService) moveAdvertise(ctx context.Context, p *domain.Product, to domain.AdvertiseState) (*domain.Product, error) {
	n, err := s.Prods.SetAdvertise(ctx, p.ID, p.Advertise, to)
	if err != nil {
		return nil, storeErr(err, "update product")
	}
	if n == 0 {
		return nil, apperr.Conflict.With("product was modified concurrently, retry")
	}
	p.Advertise = to
	return p, nil
}

// DeleteProduct removes a product. Sellers may only delete their own.
func (s *CatalogService) DeleteProduct(ctx context.Context, caller *domain.User, id string) error {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return storeErr(err, "get product")
	}
	if !caller.IsAdmin() && p.SellerEmail != caller.Email {
		return apperr.Forbidden
	}
	n, err := s.Prods.Delete(ctx, id)
	if err != nil {
		return storeErr(err, "delete product")
	}
	if n == 0 {
		return apperr.NotFound
	}
	return nil
}
