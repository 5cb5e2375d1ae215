package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mobileplanet/internal/apperr"
	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
	"mobileplanet/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

// PUT /addToWishlistProduct?id=&name=&img=&price=
func (h *WishlistHandler) Toggle(c *fiber.Ctx) error {
	pid, err := idQuery(c, "id")
	if err != nil {
		return err
	}
	in := services.WishlistInput{ProductID: pid, Image: c.Query("img")}
	if raw := c.Query("name"); raw != "" {
		name, ok := validate.Name(raw)
		if !ok {
			return apperr.InvalidInput.With("name is invalid")
		}
		in.Name = name
	}
	if raw := c.Query("price"); raw != "" {
		price, ok := validate.Price(raw)
		if !ok {
			return apperr.InvalidInput.With("price is invalid")
		}
		in.Price = price
	}
	if len(in.Image) > 2048 {
		return apperr.InvalidInput.With("img is invalid")
	}

	w, err := h.Wish.Toggle(c.UserContext(), callerEmail(c), in)
	if err != nil {
		return err
	}
	applog.Info(c, "wishlist.toggle", map[string]any{"product_id": pid, "wishlist": w.Wishlist})
	return c.JSON(w)
}

// GET /wishlistProduct?id=
func (h *WishlistHandler) Entry(c *fiber.Ctx) error {
	pid, err := idQuery(c, "id")
	if err != nil {
		return err
	}
	w, err := h.Wish.Entry(c.UserContext(), callerEmail(c), pid)
	if err != nil {
		return err
	}
	return c.JSON(w)
}

// GET /wishlistedProducts
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	out, err := h.Wish.Active(c.UserContext(), callerEmail(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GET /removeWishlistProduct/:id
func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	pid, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Wish.Remove(c.UserContext(), callerEmail(c), pid); err != nil {
		return err
	}
	applog.Info(c, "wishlist.remove", map[string]any{"product_id": pid})
	return c.JSON(fiber.Map{"wishlist": false})
}
