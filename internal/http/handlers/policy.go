package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mobileplanet/internal/domain"
)

type capKind int

const (
	capPublic capKind = iota
	capAuthenticated
	capRole
)

// Capability is what a caller must hold to reach a route.
type Capability struct {
	kind  capKind
	roles []string
}

var (
	Public        = Capability{kind: capPublic}
	Authenticated = Capability{kind: capAuthenticated}
)

func Role(roles ...string) Capability { return Capability{kind: capRole, roles: roles} }

func (c Capability) String() string {
	switch c.kind {
	case capPublic:
		return "public"
	case capAuthenticated:
		return "authenticated"
	default:
		s := "role("
		for i, r := range c.roles {
			if i > 0 {
				s += ","
			}
			s += r
		}
		return s + ")"
	}
}

type Route struct {
	Method  string
	Path    string
	Cap     Capability
	Handler fiber.Handler
}

var (
	seller        = Role(domain.RoleSeller)
	admin         = Role(domain.RoleAdmin)
	sellerOrAdmin = Role(domain.RoleSeller, domain.RoleAdmin)
)

// Routes is the policy table. Every endpoint is declared here and nowhere else.
func (d *Deps) Routes() []Route {
	a, cat, p, b, w, pay, adm := d.AuthHandler, d.CategoryHandler, d.ProductHandler,
		d.BookingHandler, d.WishlistHandler, d.PaymentHandler, d.AdminHandler

	return []Route{
		{fiber.MethodGet, "/healthz", Public, d.Health},
		{fiber.MethodGet, "/jwt", Public, a.Token},
		{fiber.MethodPost, "/users", Public, a.Register},
		{fiber.MethodGet, "/category", Public, cat.List},
		{fiber.MethodGet, "/category/:name", Public, cat.Products},
		{fiber.MethodGet, "/product-details/:id", Public, p.Detail},
		{fiber.MethodGet, "/advertised", Public, p.Advertised},

		{fiber.MethodGet, "/users/admin/:email", Authenticated, a.HasRole(domain.RoleAdmin, "isAdmin")},
		{fiber.MethodGet, "/users/seller/:email", Authenticated, a.HasRole(domain.RoleSeller, "isSeller")},
		{fiber.MethodGet, "/users/buyer/:email", Authenticated, a.HasRole(domain.RoleBuyer, "isBuyer")},
		{fiber.MethodPost, "/book-product", Authenticated, b.Book},
		{fiber.MethodGet, "/bookedProducts", Authenticated, b.Mine},
		{fiber.MethodGet, "/bookedProduct", Authenticated, b.One},
		{fiber.MethodPut, "/addToWishlistProduct", Authenticated, w.Toggle},
		{fiber.MethodGet, "/wishlistProduct", Authenticated, w.Entry},
		{fiber.MethodGet, "/wishlistedProducts", Authenticated, w.List},
		{fiber.MethodGet, "/removeWishlistProduct/:id", Authenticated, w.Remove},
		{fiber.MethodPost, "/create-payment-intent", Authenticated, pay.CreateIntent},
		{fiber.MethodPost, "/payments", Authenticated, pay.Settle},

		{fiber.MethodPost, "/product", seller, p.Create},
		{fiber.MethodGet, "/product", seller, p.Mine},
		{fiber.MethodPut, "/product/advertise/:id", seller, p.ToggleAdvertise},
		{fiber.MethodGet, "/seller/bookings", seller, b.ForSeller},
		{fiber.MethodDelete, "/product/:id", sellerOrAdmin, p.Delete},

		{fiber.MethodGet, "/products", admin, adm.ListProducts},
		{fiber.MethodPut, "/product/:id", admin, adm.ToggleListing},
		{fiber.MethodPut, "/product/advertise/:id/approve", admin, adm.ApproveAdvertise},
		{fiber.MethodPost, "/category", admin, cat.Create},
		{fiber.MethodDelete, "/category/:id", admin, cat.Delete},
		{fiber.MethodGet, "/users", admin, adm.ListUsers},
		{fiber.MethodPut, "/users/:id", admin, adm.ToggleVerified},
		{fiber.MethodDelete, "/users/:id", admin, adm.DeleteUser},
		{fiber.MethodGet, "/payments", admin, adm.ListPayments},
		{fiber.MethodGet, "/settlements", admin, adm.ListSettlements},
	}
}

func (d *Deps) guards(need Capability) []fiber.Handler {
	switch need.kind {
	case capPublic:
		return nil
	case capAuthenticated:
		return []fiber.Handler{RequireAuthenticated(d.Tokens)}
	default:
		return []fiber.Handler{RequireAuthenticated(d.Tokens), RequireRole(d.Users, need.roles...)}
	}
}

// Register mounts every route of the policy table with its guard chain.
func Register(r fiber.Router, d *Deps) {
	for _, rt := range d.Routes() {
		chain := append(d.guards(rt.Cap), rt.Handler)
		r.Add(rt.Method, rt.Path, chain...)
	}
}
