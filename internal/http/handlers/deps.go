package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/auth"
	"mobileplanet/internal/config"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/mq"
	"mobileplanet/internal/payment"
	"mobileplanet/internal/repos"
	"mobileplanet/internal/services"
)

type Deps struct {
	Store      docstore.Store
	Tokens     *auth.TokenService
	Users      *services.UserService
	Settlement *services.SettlementService

	AuthHandler     *AuthHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	BookingHandler  *BookingHandler
	WishlistHandler *WishlistHandler
	PaymentHandler  *PaymentHandler
	AdminHandler    *AdminHandler
}

func NewDeps(store docstore.Store, cfg config.Config, tokens *auth.TokenService, proc payment.Processor, pub mq.Publisher) *Deps {
	userRepo := repos.NewUserRepo(store)
	catRepo := repos.NewCategoryRepo(store)
	prodRepo := repos.NewProductRepo(store)
	bookingRepo := repos.NewBookingRepo(store)
	wishRepo := repos.NewWishlistRepo(store)

	userSvc := services.NewUserService(userRepo, prodRepo, tokens)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	bookingSvc := services.NewBookingService(bookingRepo, prodRepo, userRepo, pub)
	wishSvc := services.NewWishlistService(wishRepo)
	settleSvc := &services.SettlementService{
		Bookings:    bookingRepo,
		Prods:       prodRepo,
		Wish:        wishRepo,
		Payments:    repos.NewPaymentRepo(store),
		Settlements: repos.NewSettlementRepo(store),
		Processor:   proc,
		Pub:         pub,
		Currency:    cfg.PaymentCurrency,
	}

	return &Deps{
		Store:      store,
		Tokens:     tokens,
		Users:      userSvc,
		Settlement: settleSvc,

		AuthHandler:     &AuthHandler{Users: userSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		BookingHandler:  &BookingHandler{Bookings: bookingSvc},
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		PaymentHandler:  &PaymentHandler{Settlements: settleSvc},
		AdminHandler:    &AdminHandler{Users: userSvc, Catalog: catalogSvc, Settlements: settleSvc},
	}
}

// GET /healthz
func (d *Deps) Health(c *fiber.Ctx) error {
	if err := d.Store.Ping(c.UserContext()); err != nil {
		return apperr.UpstreamFailure.Wrap(err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
