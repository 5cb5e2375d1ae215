package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
)

type BookingHandler struct {
	Bookings *services.BookingService
}

// POST /book-product
func (h *BookingHandler) Book(c *fiber.Ctx) error {
	var in services.BookingInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	b, err := h.Bookings.Book(c.UserContext(), callerEmail(c), in)
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "booking.create", map[string]any{"booking_id": b.ID, "product_id": b.ProductID})
	return c.JSON(b)
}

// GET /bookedProducts?email=
func (h *BookingHandler) Mine(c *fiber.Ctx) error {
	email, err := ownEmail(c)
	if err != nil {
		return err
	}
	out, err := h.Bookings.ForBuyer(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /bookedProduct?email=&id=
func (h *BookingHandler) One(c *fiber.Ctx) error {
	email, err := ownEmail(c)
	if err != nil {
		return err
	}
	pid, err := idQuery(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.ForBuyerProduct(c.UserContext(), email, pid)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// GET /seller/bookings
func (h *BookingHandler) ForSeller(c *fiber.Ctx) error {
	out, err := h.Bookings.ForSeller(c.UserContext(), callerEmail(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}
