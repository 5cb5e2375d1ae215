package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "mobileplanet/internal/log"
	"mobileplanet/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /product-details/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Catalog.ListedProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// GET /advertised
func (h *ProductHandler) Advertised(c *fiber.Ctx) error {
	prods, err := h.Catalog.Advertised(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(prods)
}

// POST /product
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), callerUser(c), in)
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "seller.product.create", map[string]any{"product_id": p.ID, "category": p.Category})
	return c.JSON(p)
}

// GET /product?email=
func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	email, err := ownEmail(c)
	if err != nil {
		return err
	}
	prods, err := h.Catalog.SellerProducts(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(prods)
}

// PUT /product/advertise/:id
func (h *ProductHandler) ToggleAdvertise(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Catalog.ToggleAdvertiseRequest(c.UserContext(), callerUser(c), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "seller.product.advertise", map[string]any{"product_id": id, "advertise": string(p.Advertise)})
	return c.JSON(p)
}

// DELETE /product/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), callerUser(c), id); err != nil {
		return err
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"deleted": true})
}
