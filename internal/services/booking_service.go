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
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/mq"
	"mobileplanet/internal/repos"
)

// bookingNS derives booking ids from (buyer, product) so a buyer can hold one booking per product
// even when two requests race.
var bookingNS = uuid.MustParse("3b0f6c1e-8d6a-4c0e-9a53-5d2f8e7b1c40")

type BookingService struct {
	Bookings *repos.BookingRepo
	Prods    *repos.ProductRepo
	Users    *repos.UserRepo
	Pub      mq.Publisher
}

func NewBookingService(b *repos.BookingRepo, p *repos.ProductRepo, u *repos.UserRepo, pub mq.Publisher) *BookingService {
	return &BookingService{Bookings: b, Prods: p, Users: u, Pub: pub}
}

// BookingInput is the POST /book-product body. Contact details are optional.
type BookingInput struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	BuyerName string `json:"buyerName" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=40"`
	Location  string `json:"location" validate:"max=200"`
}

func bookingID(buyerEmail, productID string) string {
	return uuid.NewSHA1(bookingNS, []byte(buyerEmail+"\x00"+productID)).String()
}

// Book creates a booking for buyerEmail. Seller, product name and price come from the product.
func (s *BookingService) Book(ctx context.Context, buyerEmail string, in BookingInput) (*domain.Booking, error) {
	p, err := s.Prods.GetListed(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFound.With("product is not available")
		}
		return nil, storeErr(err, "get product")
	}
	if p.SellerEmail == buyerEmail {
		return nil, apperr.Forbidden.With("sellers cannot book their own products")
	}

	name := strings.TrimSpace(in.BuyerName)
	if name == "" {
		if u, err := s.Users.ByEmail(ctx, buyerEmail); err == nil {
			name = u.Name
		}
	}

	b := &domain.Booking{
		ID:          bookingID(buyerEmail, p.ID),
		BuyerEmail:  buyerEmail,
		BuyerName:   name,
		SellerEmail: p.SellerEmail,
		ProductID:   p.ID,
		ProductName: p.Name,
		Price:       p.ResellPrice,
		Phone:       strings.TrimSpace(in.Phone),
		Location:    strings.TrimSpace(in.Location),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, apperr.Conflict.With("product is already booked")
		}
		return nil, storeErr(err, "create booking")
	}

	if err := s.Pub.PublishJSON(ctx, mq.RoutingBookingCreated, b); err != nil {
		applog.Error(nil, "booking.event.publish.fail", err, map[string]any{"booking_id": b.ID})
	}
	return b, nil
}

func (s *BookingService) ForBuyer(ctx context.Context, email string) ([]domain.Booking, error) {
	out, err := s.Bookings.ByBuyer(ctx, email)
	return out, storeErr(err, "list bookings")
}

func (s *BookingService) ForBuyerProduct(ctx context.Context, email, productID string) (*domain.Booking, error) {
	b, err := s.Bookings.ByBuyerProduct(ctx, email, productID)
	if err != nil {
		return nil, storeErr(err, "get booking")
	}
	return b, nil
}

func (s *BookingService) ForSeller(ctx context.Context, email string) ([]domain.Booking, error) {
	out, err := s.Bookings.BySeller(ctx, email)
	return out, storeErr(err, "list seller bookings")
}
