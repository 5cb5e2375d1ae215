package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mobileplanet/internal/apperr"
	"mobileplanet/internal/domain"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
	"mobileplanet/internal/validate"
)

type AdminHandler struct {
	Users       *services.UserService
	Catalog     *services.CatalogService
	Settlements *services.SettlementService
}

// GET /users?role=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	role := ""
	if raw := c.Query("role"); raw != "" {
		r, ok := validate.Role(raw)
		if !ok {
			return apperr.InvalidInput.With("role must be one of buyer seller admin")
		}
		role = r
	}
	users, err := h.Users.List(c.UserContext(), role)
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return err
	}
	return c.JSON(users)
}

// PUT /users/:id
func (h *AdminHandler) ToggleVerified(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	u, err := h.Users.ToggleVerified(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.users.verify", map[string]any{"user_id": id, "verified": u.Verified})
	return c.JSON(u)
}

// DELETE /users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Users.Delete(c.UserContext(), id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return err
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.JSON(fiber.Map{"deleted": true})
}

// GET /products
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	prods, err := h.Catalog.AllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(prods)
}

// PUT /product/:id
func (h *AdminHandler) ToggleListing(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Catalog.ToggleListing(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.products.listing", map[string]any{"product_id": id, "listed": p.DisplayListing})
	return c.JSON(p)
}

// PUT /product/advertise/:id/approve
func (h *AdminHandler) ApproveAdvertise(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Catalog.ApproveAdvertise(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.products.advertise.approve", map[string]any{"product_id": id})
	return c.JSON(p)
}

// GET /payments
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	out, err := h.Settlements.ListPayments(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.payments.list.fail", err, nil)
		return err
	}
	return c.JSON(out)
}

// GET /settlements?state=
func (h *AdminHandler) ListSettlements(c *fiber.Ctx) error {
	state := domain.SettlementState(c.Query("state"))
	if state != "" && !state.Valid() {
		return apperr.InvalidInput.With("state must be one of pending failed rejected completed")
	}
	out, err := h.Settlements.ListSettlements(c.UserContext(), state)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
